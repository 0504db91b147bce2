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


package signlex

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/signlex/ai"
	"github.com/poiesic/signlex/ai/cache"
	"github.com/poiesic/signlex/ai/gemini"
	"github.com/poiesic/signlex/ai/kagome"
	"github.com/poiesic/signlex/ai/onnx"
	"github.com/poiesic/signlex/ai/openai"
)

// NewProvider builds the AI provider described by config: the embedder,
// optionally behind the Redis cache, and the segmenter.
func NewProvider(ctx context.Context, config *ai.Config) (ai.AIProvider, error) {
	config.Normalize()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.EmbeddingProvider == ai.ProviderOpenAI &&
		config.SegmenterProvider == ai.SegmenterLLM &&
		config.CacheAddr == "" {
		return openai.NewProvider(config)
	}

	var closers []io.Closer
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i].Close()
		}
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}
	if c, ok := embedder.(io.Closer); ok {
		closers = append(closers, c)
	}

	if config.CacheAddr != "" {
		cached, err := cache.NewEmbedder(ctx, config.CacheAddr, embedder, config.CacheTTL)
		if err != nil {
			slog.Warn("embedding cache unavailable, continuing without it", "addr", config.CacheAddr, "err", err)
		} else {
			embedder = cached
			if c, ok := cached.(io.Closer); ok {
				closers = append(closers, c)
			}
		}
	}

	segmenter, err := newSegmenter(ctx, config)
	if err != nil {
		closeAll()
		return nil, err
	}

	// Close the cache before the model it wraps
	for i, j := 0, len(closers)-1; i < j; i, j = i+1, j-1 {
		closers[i], closers[j] = closers[j], closers[i]
	}
	return ai.Compose(embedder, segmenter, closers...), nil
}

func newEmbedder(config *ai.Config) (ai.Embedder, error) {
	switch config.EmbeddingProvider {
	case ai.ProviderONNX:
		return onnx.NewEmbedder(config)
	case ai.ProviderOpenAI:
		return openai.NewEmbedder(config)
	}
	return nil, fmt.Errorf("%w: unknown embedder %q", ai.ErrInvalidConfig, config.EmbeddingProvider)
}

func newSegmenter(ctx context.Context, config *ai.Config) (ai.Segmenter, error) {
	switch config.SegmenterProvider {
	case ai.SegmenterLLM:
		return openai.NewSegmenter(config)
	case ai.SegmenterGemini:
		return gemini.NewSegmenter(ctx, config)
	case ai.SegmenterTokenizer:
		return kagome.NewSegmenter(kagome.WithVocabulary(config.Vocabulary))
	}
	return nil, fmt.Errorf("%w: unknown segmenter %q", ai.ErrInvalidConfig, config.SegmenterProvider)
}
