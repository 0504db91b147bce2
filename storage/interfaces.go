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


package storage

import (
	"context"

	"github.com/poiesic/signlex/core"
)

// RecordRepository provides operations for dictionary records.
type RecordRepository interface {
	// AddRecord inserts a record unless one with the same ID exists.
	// Returns true when a row was written. An existing record is left untouched.
	AddRecord(ctx context.Context, record *core.Record) (bool, error)

	// GetRecord retrieves a record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetRecord(ctx context.Context, id core.ID) (*core.Record, error)
}

// WordRepository provides operations for words and their embeddings.
type WordRepository interface {
	// AddWord inserts a word unless the (RecordId, Text) pair exists.
	// On insert the word's Id and InsertedAt are populated.
	// Returns ErrNotFound if the owning record doesn't exist.
	AddWord(ctx context.Context, word *core.Word) (bool, error)

	// GetWordsByRecord returns the words of a record in insertion order.
	GetWordsByRecord(ctx context.Context, recordID core.ID) ([]*core.Word, error)

	// ListWords pages through all words in insertion order, starting after afterID.
	ListWords(ctx context.Context, afterID core.ID, limit int) ([]*core.Word, error)

	// UpdateWordEmbedding stores a vector and the model that produced it.
	// Returns ErrNotFound if the word doesn't exist.
	UpdateWordEmbedding(ctx context.Context, id core.ID, vector []float32, model string) error

	// FindSimilarWords ranks words embedded by model against vector.
	// Similarity is 1 - cosine distance. Results are ordered by similarity
	// descending, ties by insertion order, keep only similarity > minSimilarity
	// and hold at most limit entries. No match is an empty slice, not an error.
	FindSimilarWords(ctx context.Context, vector []float32, model string, minSimilarity float32, limit int) ([]*core.WordMatch, error)
}

// SentenceRepository provides operations for example sentences.
type SentenceRepository interface {
	// AddSentence inserts a sentence unless the (RecordId, Gloss, Translation)
	// triple exists. Returns ErrNotFound if the owning record doesn't exist.
	AddSentence(ctx context.Context, sentence *core.Sentence) (bool, error)

	// GetSentencesByRecord returns the sentences of a record in insertion order.
	GetSentencesByRecord(ctx context.Context, recordID core.ID) ([]*core.Sentence, error)
}

// CheckpointRepository persists job progress.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint for a processor type.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for a processor type.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, processorType string) (*core.Checkpoint, error)
}

// Store is the complete lexicon store. Implementations must be safe for
// concurrent use.
type Store interface {
	RecordRepository
	WordRepository
	SentenceRepository
	CheckpointRepository

	// Stats returns row counts.
	Stats(ctx context.Context) (*core.Stats, error)

	// Close closes the storage backend and releases resources.
	Close() error
}
