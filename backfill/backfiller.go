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


package backfill

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/signlex/ai"
	"github.com/poiesic/signlex/core"
	"github.com/poiesic/signlex/retry"
	"github.com/poiesic/signlex/storage"
)

// ErrEmbedderRequired is returned when no embedder is provided.
var ErrEmbedderRequired = errors.New("embedder required")

// ErrWordRepositoryRequired is returned when no word repository is provided.
var ErrWordRepositoryRequired = errors.New("word repository required")

// Config holds configuration for a backfill run.
type Config struct {
	// BatchSize is the number of words embedded per call
	BatchSize int

	// ReportInterval is how often to report progress (number of words)
	ReportInterval int

	// Workers is the number of batches embedded concurrently
	Workers int

	// Force re-embeds every word, not only missing or stale ones
	Force bool

	// Retry governs the embedding calls of each batch
	Retry retry.Policy
}

// DefaultConfig returns a Config with sensible defaults.
// A single worker suits local inference, which is serialized anyway.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		Workers:        1,
		Retry:          retry.Policy{MaxAttempts: 3, BaseDelay: time.Second},
	}
}

// Result summarizes a backfill run.
type Result struct {
	Candidates    int // words that needed a vector
	Embedded      int
	FailedBatches int
	Elapsed       time.Duration
}

// Backfiller embeds every word lacking a vector of the current model.
type Backfiller struct {
	words     storage.WordRepository
	embedder  ai.Embedder
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *WordIterator
	logger    *slog.Logger
}

// NewBackfiller creates a new backfiller.
// progress: where to write progress output (typically os.Stderr, or io.Discard)
func NewBackfiller(words storage.WordRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Backfiller, error) {
	if words == nil {
		return nil, ErrWordRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.Retry.MaxAttempts <= 0 {
		return nil, retry.ErrInvalidMaxAttempts
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Backfiller{
		words:     words,
		embedder:  embedder,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(words, embedder, config.Retry),
		iterator:  NewWordIterator(words, config.BatchSize),
		logger:    slog.Default().With("component", "backfill"),
	}, nil
}

// needsEmbedding reports whether word lacks a vector of model.
func (b *Backfiller) needsEmbedding(word *core.Word, model string) bool {
	return b.config.Force || !word.HasEmbedding(model)
}

// Run embeds every candidate word. A batch that still fails after retries is
// logged and counted; the run continues with the next one. Only iteration and
// cancellation errors are returned.
func (b *Backfiller) Run(ctx context.Context) (*Result, error) {
	model := b.embedder.Model()
	result := &Result{}

	err := b.iterator.ForEach(ctx, func(words []*core.Word) error {
		for _, word := range words {
			if b.needsEmbedding(word, model) {
				result.Candidates++
			}
		}
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("failed to count words: %w", err)
	}

	if result.Candidates == 0 {
		fmt.Fprintf(b.progress, "All words already embedded with %s\n", model)
		return result, nil
	}

	fmt.Fprintf(b.progress, "Embedding %d words with %s (batch size: %d, workers: %d)\n",
		result.Candidates, model, b.iterator.batchSize, b.config.Workers)

	pool, err := ants.NewPool(b.config.Workers)
	if err != nil {
		return result, err
	}
	defer pool.Release()

	tracker := NewProgressTracker(b.progress, result.Candidates, b.config.ReportInterval)
	tracker.Start()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	submit := func(batch []*core.Word) error {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if err := b.processor.Process(ctx, batch); err != nil {
				b.logger.Error("batch failed", "first", batch[0].Id, "size", len(batch), "err", err)
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			tracker.Increment(len(batch))
		})
		if err != nil {
			wg.Done()
		}
		return err
	}

	var pending []*core.Word
	err = b.iterator.ForEach(ctx, func(words []*core.Word) error {
		for _, word := range words {
			if !b.needsEmbedding(word, model) {
				continue
			}
			pending = append(pending, word)
			if len(pending) == b.iterator.batchSize {
				if err := submit(pending); err != nil {
					return err
				}
				pending = nil
			}
		}
		return nil
	})
	if err == nil && len(pending) > 0 {
		err = submit(pending)
	}
	wg.Wait()

	tracker.Finish()
	result.Embedded = tracker.Current()
	result.FailedBatches = failed
	result.Elapsed = tracker.Elapsed()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return result, err
	}

	fmt.Fprintf(b.progress, "Backfill complete. Embedded %d of %d words in %v, %d failed batches\n",
		result.Embedded, result.Candidates, result.Elapsed.Round(time.Millisecond), result.FailedBatches)
	return result, nil
}
