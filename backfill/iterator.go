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

	"github.com/poiesic/signlex/core"
	"github.com/poiesic/signlex/storage"
)

const (
	// DefaultBatchSize is the default number of words to fetch in each batch
	DefaultBatchSize = 64
)

// WordIterator pages over all words in insertion order.
type WordIterator struct {
	repo      storage.WordRepository
	batchSize int
}

// NewWordIterator creates a new word iterator.
// batchSize: number of words to fetch in each page (defaults when <= 0)
func NewWordIterator(repo storage.WordRepository, batchSize int) *WordIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &WordIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach calls fn with each page of words.
// Iteration stops on first error from fn or when all words are visited.
// Context cancellation is checked between pages.
func (it *WordIterator) ForEach(ctx context.Context, fn func([]*core.Word) error) error {
	var after core.ID
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		words, err := it.repo.ListWords(ctx, after, it.batchSize)
		if err != nil {
			return err
		}
		if len(words) == 0 {
			return nil
		}
		after = words[len(words)-1].Id

		if err := fn(words); err != nil {
			return err
		}
		if len(words) < it.batchSize {
			return nil
		}
	}
}
