// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config loads the signlex configuration file.
//
// The file lives at $XDG_CONFIG_HOME/signlex/config.yaml (or
// ~/.config/signlex/config.yaml). A missing file yields the defaults. Secrets
// may come from the environment instead of the file:
//
//	SIGNLEX_LLM_API_KEY   segmenter API key
//	GEMINI_API_KEY        used when the key above is unset
//	SIGNLEX_REDIS_ADDR    embedding cache address
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/signlex/ai"
)

// Environment variables read by Load.
const (
	EnvLLMAPIKey    = "SIGNLEX_LLM_API_KEY"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvRedisAddr    = "SIGNLEX_REDIS_ADDR"
)

// File is the configuration file.
type File struct {
	Storage    StorageConfig    `yaml:"storage"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Segmenter  SegmenterConfig  `yaml:"segmenter"`
	Cache      CacheConfig      `yaml:"cache"`
	Server     ServerConfig     `yaml:"server"`
	Dictionary DictionaryConfig `yaml:"dictionary"`
	Search     SearchConfig     `yaml:"search"`
}

// StorageConfig selects the store.
type StorageConfig struct {
	Backend string `yaml:"backend"` // badger or sqlite
	Path    string `yaml:"path"`
}

// EmbeddingConfig selects the embedder.
type EmbeddingConfig struct {
	Provider       string `yaml:"provider"` // onnx or openai
	Host           string `yaml:"host"`
	Model          string `yaml:"model"`
	ModelPath      string `yaml:"model_path"`
	TokenizerPath  string `yaml:"tokenizer_path"`
	RuntimeLibrary string `yaml:"runtime_library"`
}

// SegmenterConfig selects the segmentation strategy.
type SegmenterConfig struct {
	Provider    string        `yaml:"provider"` // openai, gemini or tokenizer
	Host        string        `yaml:"host"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// CacheConfig enables the Redis embedding cache when Addr is set.
type CacheConfig struct {
	Addr string        `yaml:"addr"`
	TTL  time.Duration `yaml:"ttl"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DictionaryConfig points the ingestion job at the remote dictionary.
type DictionaryConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	Pacing  time.Duration `yaml:"pacing"`
}

// SearchConfig tunes similarity search.
type SearchConfig struct {
	MinSimilarity float32 `yaml:"min_similarity"`
}

// Default returns the configuration used when no file exists.
func Default() *File {
	aiDefaults := ai.DefaultConfig()
	return &File{
		Storage: StorageConfig{
			Backend: "badger",
			Path:    "~/.local/share/signlex/db",
		},
		Embedding: EmbeddingConfig{
			Provider:      aiDefaults.EmbeddingProvider,
			Host:          aiDefaults.EmbeddingHost,
			Model:         aiDefaults.EmbeddingModel,
			ModelPath:     aiDefaults.ModelPath,
			TokenizerPath: aiDefaults.TokenizerPath,
		},
		Segmenter: SegmenterConfig{
			Provider:    aiDefaults.SegmenterProvider,
			Host:        aiDefaults.SegmenterHost,
			Model:       aiDefaults.SegmenterModel,
			Timeout:     aiDefaults.Timeout,
			MaxAttempts: aiDefaults.MaxAttempts,
		},
		Cache: CacheConfig{
			TTL: aiDefaults.CacheTTL,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Dictionary: DictionaryConfig{
			BaseURL: "https://twtsl.ccu.edu.tw",
			Timeout: 30 * time.Second,
			Pacing:  100 * time.Millisecond,
		},
		Search: SearchConfig{
			MinSimilarity: 0.5,
		},
	}
}

// Path returns the default config file path.
func Path() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "signlex", "config.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

// Load reads the config file at path, or at Path() when path is empty.
// Values missing from the file keep their defaults. A missing default file is
// not an error; a missing explicit file is.
func Load(path string) (*File, error) {
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = Path(); err != nil {
			return nil, err
		}
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, err
	}

	cfg.applyEnv()
	if cfg.Storage.Path, err = ExpandPath(cfg.Storage.Path); err != nil {
		return nil, err
	}
	if cfg.Embedding.ModelPath, err = ExpandPath(cfg.Embedding.ModelPath); err != nil {
		return nil, err
	}
	if cfg.Embedding.TokenizerPath, err = ExpandPath(cfg.Embedding.TokenizerPath); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (f *File) applyEnv() {
	if key := os.Getenv(EnvLLMAPIKey); key != "" {
		f.Segmenter.APIKey = key
	} else if key := os.Getenv(EnvGeminiAPIKey); key != "" && f.Segmenter.APIKey == "" {
		f.Segmenter.APIKey = key
	}
	if addr := os.Getenv(EnvRedisAddr); addr != "" {
		f.Cache.Addr = addr
	}
}

// AIConfig converts the embedding, segmenter and cache sections.
func (f *File) AIConfig() *ai.Config {
	return &ai.Config{
		EmbeddingProvider: f.Embedding.Provider,
		EmbeddingHost:     f.Embedding.Host,
		EmbeddingModel:    f.Embedding.Model,
		ModelPath:         f.Embedding.ModelPath,
		TokenizerPath:     f.Embedding.TokenizerPath,
		RuntimeLibrary:    f.Embedding.RuntimeLibrary,
		SegmenterProvider: f.Segmenter.Provider,
		SegmenterHost:     f.Segmenter.Host,
		SegmenterModel:    f.Segmenter.Model,
		APIKey:            f.Segmenter.APIKey,
		Timeout:           f.Segmenter.Timeout,
		MaxAttempts:       f.Segmenter.MaxAttempts,
		CacheAddr:         f.Cache.Addr,
		CacheTTL:          f.Cache.TTL,
	}
}

// Save writes the config to path.
func (f *File) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
