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


package ai

import (
	"fmt"
	"strings"
	"time"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingProvider selects the embedder: ProviderONNX or ProviderOpenAI.
	EmbeddingProvider string

	// EmbeddingHost is the base URL for an OpenAI-compatible embedding API.
	// Example: "http://localhost:11434/v1"
	EmbeddingHost string

	// EmbeddingModel names the embedding model. It is stored next to every
	// vector, so changing it marks all stored vectors as stale.
	// Example: "Xenova/bge-m3", "bge-m3"
	EmbeddingModel string

	// ModelPath is the ONNX model file used by ProviderONNX.
	ModelPath string

	// TokenizerPath is the HuggingFace tokenizer.json used by ProviderONNX.
	TokenizerPath string

	// RuntimeLibrary is the onnxruntime shared library. Empty uses the
	// platform default search path.
	RuntimeLibrary string

	// SegmenterProvider selects the segmentation strategy: SegmenterLLM,
	// SegmenterGemini or SegmenterTokenizer.
	SegmenterProvider string

	// SegmenterHost is the base URL for an OpenAI-compatible chat API.
	SegmenterHost string

	// SegmenterModel is the chat model used by the LLM strategies.
	// Example: "qwen2.5:7b", "gemini-2.5-flash"
	SegmenterModel string

	// APIKey authenticates against hosted APIs. Local servers ignore it.
	APIKey string

	// Timeout bounds every single remote call.
	// Default: 30s
	Timeout time.Duration

	// MaxAttempts bounds how often a malformed LLM answer is re-requested.
	// Default: 3
	MaxAttempts int

	// CacheAddr is a Redis address for caching query embeddings. Empty disables the cache.
	CacheAddr string

	// CacheTTL is how long cached embeddings live.
	// Default: 24h
	CacheTTL time.Duration

	// Vocabulary lists words SegmenterTokenizer keeps whole. Lexicon.Open
	// fills it from the stored words when it is empty.
	Vocabulary []string
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingProvider sets the embedding provider.
func WithEmbeddingProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingProvider = provider
	}
}

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithSegmenterHost sets the segmentation chat service host URL.
func WithSegmenterHost(host string) ConfigOption {
	return func(c *Config) {
		c.SegmenterHost = host
	}
}

// WithHost sets both embedding and segmenter hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.SegmenterHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithONNXModel sets the ONNX model and tokenizer files.
func WithONNXModel(modelPath, tokenizerPath string) ConfigOption {
	return func(c *Config) {
		c.ModelPath = modelPath
		c.TokenizerPath = tokenizerPath
	}
}

// WithSegmenter sets the segmentation strategy and its model.
func WithSegmenter(provider, model string) ConfigOption {
	return func(c *Config) {
		c.SegmenterProvider = provider
		c.SegmenterModel = model
	}
}

// WithAPIKey sets the API key for hosted providers.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithVocabulary sets the words the tokenizer segmenter keeps whole.
func WithVocabulary(words ...string) ConfigOption {
	return func(c *Config) {
		c.Vocabulary = words
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithCache enables the Redis embedding cache.
func WithCache(addr string, ttl time.Duration) ConfigOption {
	return func(c *Config) {
		c.CacheAddr = addr
		c.CacheTTL = ttl
	}
}

// DefaultConfig returns a Config with a local bge-m3 embedder and a local
// OpenAI-compatible chat model for segmentation.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingProvider: ProviderONNX,
		EmbeddingHost:     defaultHost,
		EmbeddingModel:    "Xenova/bge-m3",
		ModelPath:         "models/bge-m3/model.onnx",
		TokenizerPath:     "models/bge-m3/tokenizer.json",
		SegmenterProvider: SegmenterLLM,
		SegmenterHost:     defaultHost,
		SegmenterModel:    "qwen2.5:7b",
		Timeout:           30 * time.Second,
		MaxAttempts:       3,
		CacheTTL:          24 * time.Hour,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithEmbeddingProvider(ProviderOpenAI),
//	    WithHost("http://localhost:11434/v1"),
//	    WithEmbeddingModel("bge-m3"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	c.EmbeddingProvider = strings.ToLower(strings.TrimSpace(c.EmbeddingProvider))
	c.SegmenterProvider = strings.ToLower(strings.TrimSpace(c.SegmenterProvider))
	c.EmbeddingHost = withV1(c.EmbeddingHost)
	c.SegmenterHost = withV1(c.SegmenterHost)
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 3
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 24 * time.Hour
	}
}

func withV1(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingModel == "" {
		return fmt.Errorf("%w: EmbeddingModel is required", ErrInvalidConfig)
	}
	switch c.EmbeddingProvider {
	case ProviderONNX:
		if c.ModelPath == "" || c.TokenizerPath == "" {
			return fmt.Errorf("%w: ModelPath and TokenizerPath are required for %s", ErrInvalidConfig, ProviderONNX)
		}
	case ProviderOpenAI:
		if c.EmbeddingHost == "" {
			return fmt.Errorf("%w: EmbeddingHost is required for %s", ErrInvalidConfig, ProviderOpenAI)
		}
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidConfig, c.EmbeddingProvider)
	}

	switch c.SegmenterProvider {
	case SegmenterLLM:
		if c.SegmenterHost == "" || c.SegmenterModel == "" {
			return fmt.Errorf("%w: SegmenterHost and SegmenterModel are required for %s", ErrInvalidConfig, SegmenterLLM)
		}
	case SegmenterGemini:
		if c.APIKey == "" || c.SegmenterModel == "" {
			return fmt.Errorf("%w: APIKey and SegmenterModel are required for %s", ErrInvalidConfig, SegmenterGemini)
		}
	case SegmenterTokenizer:
	default:
		return fmt.Errorf("%w: unknown segmenter %q", ErrInvalidConfig, c.SegmenterProvider)
	}
	return nil
}
