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


// Package cache provides a Redis read-through cache for ai.Embedder.
//
// Query embeddings are recomputed for every search and every translated unit.
// Caching them by model and text keeps repeated lookups off the model. Redis
// failures never fail a request; the cache simply steps aside.
package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/poiesic/signlex/ai"
	"github.com/poiesic/signlex/core"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "signlex:emb:"

// Embedder wraps an ai.Embedder with a Redis cache.
type Embedder struct {
	inner  ai.Embedder
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewEmbedder connects to Redis at addr and wraps inner.
//
// Returns ai.Embedder interface to enforce abstraction. The value also
// implements io.Closer, which closes the Redis client only.
func NewEmbedder(ctx context.Context, addr string, inner ai.Embedder, ttl time.Duration) (ai.Embedder, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return Wrap(client, inner, ttl), nil
}

// Wrap builds a cache around inner using an existing client.
func Wrap(client *redis.Client, inner ai.Embedder, ttl time.Duration) *Embedder {
	return &Embedder{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: slog.Default().With("component", "embedding-cache"),
	}
}

// Model returns the wrapped embedder's model.
func (e *Embedder) Model() string {
	return e.inner.Model()
}

// EmbedText returns the cached vector for text or computes and stores it.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	key := e.key(text)
	if raw, err := e.client.Get(ctx, key).Bytes(); err == nil {
		if vector, ok := decodeVector(raw); ok {
			return vector, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		e.logger.Warn("cache read failed", "err", err)
	}

	vector, err := e.inner.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := e.client.Set(ctx, key, encodeVector(vector), e.ttl).Err(); err != nil {
		e.logger.Warn("cache write failed", "err", err)
	}
	return vector, nil
}

// EmbedTexts serves hits from the cache and embeds the misses in one batch.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	keys := make([]string, len(texts))
	for i, text := range texts {
		keys[i] = e.key(text)
	}

	vectors := make([][]float32, len(texts))
	values, err := e.client.MGet(ctx, keys...).Result()
	if err != nil {
		e.logger.Warn("cache read failed", "err", err)
		values = nil
	}
	for i, value := range values {
		if s, ok := value.(string); ok {
			if vector, ok := decodeVector([]byte(s)); ok {
				vectors[i] = vector
			}
		}
	}

	var missIdx []int
	var missTexts []string
	for i, v := range vectors {
		if v == nil {
			missIdx = append(missIdx, i)
			missTexts = append(missTexts, texts[i])
		}
	}
	if len(missTexts) == 0 {
		return vectors, nil
	}

	computed, err := e.inner.EmbedTexts(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(computed) != len(missTexts) {
		return nil, fmt.Errorf("%w: requested %d embeddings, received %d",
			ai.ErrEmbeddingMismatch, len(missTexts), len(computed))
	}

	pipe := e.client.Pipeline()
	for j, i := range missIdx {
		vectors[i] = computed[j]
		pipe.Set(ctx, keys[i], encodeVector(computed[j]), e.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		e.logger.Warn("cache write failed", "err", err)
	}
	return vectors, nil
}

// Close closes the Redis client. The wrapped embedder is left open.
func (e *Embedder) Close() error {
	return e.client.Close()
}

func (e *Embedder) key(text string) string {
	return keyPrefix + e.inner.Model() + ":" + core.ContentKeyString(text)
}

// encodeVector writes v as little-endian float32s.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 0, 4*len(v))
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, bool) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, false
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, true
}
