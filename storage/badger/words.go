package badger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/signlex/core"
	"github.com/poiesic/signlex/storage"
)

// WordRepository implements storage.WordRepository for BadgerDB.
type WordRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.WordRepository = (*WordRepository)(nil)

// NewWordRepository creates a new WordRepository.
func NewWordRepository(backend *Backend) (*WordRepository, error) {
	idSeq, err := backend.GetSequence(wordIDSeq)
	if err != nil {
		return nil, err
	}

	return &WordRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *WordRepository) Close() error {
	return r.idSeq.Release()
}

// AddWord inserts a word unless the (RecordId, Text) pair exists.
func (r *WordRepository) AddWord(ctx context.Context, word *core.Word) (bool, error) {
	if err := core.ValidateWord(word); err != nil {
		return false, err
	}

	inserted := false
	err := r.backend.Update(ctx, func(tx *badger.Txn) error {
		inserted = false
		if err := requireRecord(tx, word.RecordId); err != nil {
			return err
		}

		uniqueKey := makeWordUniqueKey(word.RecordId, word.Text)
		exists, err := keyExists(tx, uniqueKey)
		if err != nil || exists {
			return err
		}

		id, err := nextID(r.idSeq)
		if err != nil {
			return err
		}
		word.Id = core.ID(id)
		word.InsertedAt = time.Now().UTC()
		word.UpdatedAt = word.InsertedAt

		if err := tx.Set(makeWordKey(word.Id), storage.MarshalWord(word)); err != nil {
			return err
		}
		if err := tx.Set(makeWordRecordKey(word.RecordId, word.Id), nil); err != nil {
			return err
		}
		inserted = true
		return tx.Set(uniqueKey, storage.MarshalID(word.Id))
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

// GetWordsByRecord returns the words of a record in insertion order.
func (r *WordRepository) GetWordsByRecord(ctx context.Context, recordID core.ID) ([]*core.Word, error) {
	var words []*core.Word
	err := r.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = makeKey(wordRecordPrefix, recordID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			word, err := readWord(tx, idFromKeySuffix(iter.Item().Key()))
			if err != nil {
				return err
			}
			words = append(words, word)
		}
		return nil
	})
	return words, err
}

// ListWords pages through all words in insertion order, starting after afterID.
func (r *WordRepository) ListWords(ctx context.Context, afterID core.ID, limit int) ([]*core.Word, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	var words []*core.Word
	err := r.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(wordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(makeWordKey(afterID + 1)); iter.Valid() && len(words) < limit; iter.Next() {
			word, err := unmarshalWordItem(iter.Item())
			if err != nil {
				return err
			}
			words = append(words, word)
		}
		return nil
	})
	return words, err
}

// UpdateWordEmbedding stores a vector and the model that produced it.
func (r *WordRepository) UpdateWordEmbedding(ctx context.Context, id core.ID, vector []float32, model string) error {
	if err := core.ValidateVector(vector); err != nil {
		return err
	}
	if model == "" {
		return fmt.Errorf("%w: embedding model is required", storage.ErrInvalidQuery)
	}

	return r.backend.Update(ctx, func(tx *badger.Txn) error {
		word, err := readWord(tx, id)
		if err != nil {
			return err
		}
		word.Vector = vector
		word.EmbeddingModel = model
		word.UpdatedAt = time.Now().UTC()
		return tx.Set(makeWordKey(id), storage.MarshalWord(word))
	})
}

// FindSimilarWords ranks the words embedded by model against vector.
// The scan is exact; iteration in ID order keeps ties in insertion order.
func (r *WordRepository) FindSimilarWords(ctx context.Context, vector []float32, model string, minSimilarity float32, limit int) ([]*core.WordMatch, error) {
	if len(vector) == 0 || limit <= 0 {
		return nil, fmt.Errorf("%w: vector and positive limit required", storage.ErrInvalidQuery)
	}

	queryNorm := norm(vector)
	if queryNorm == 0 {
		return []*core.WordMatch{}, nil
	}

	results := []*core.WordMatch{}
	err := r.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(wordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			word, err := unmarshalWordItem(iter.Item())
			if err != nil {
				return err
			}
			// Vectors of other models or dimensions are not comparable
			if !word.HasEmbedding(model) || len(word.Vector) != len(vector) {
				continue
			}

			similarity := cosineSimilarity(vector, queryNorm, word.Vector)
			if similarity > minSimilarity {
				results = append(results, &core.WordMatch{
					Word:       word,
					Similarity: similarity,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(results, func(a, b *core.WordMatch) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// readWord reads a word inside a transaction.
func readWord(tx *badger.Txn, id core.ID) (*core.Word, error) {
	item, err := tx.Get(makeWordKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("word %d: %w", id, storage.ErrNotFound)
		}
		return nil, err
	}
	return unmarshalWordItem(item)
}

func unmarshalWordItem(item *badger.Item) (*core.Word, error) {
	var word *core.Word
	err := item.Value(func(val []byte) error {
		var err error
		word, err = storage.UnmarshalWord(val)
		return err
	})
	return word, err
}

// cosineSimilarity returns 1 - cosine distance between query and v.
func cosineSimilarity(query []float32, queryNorm float64, v []float32) float32 {
	vNorm := norm(v)
	if vNorm == 0 {
		return 0
	}
	var dot float64
	for i := range query {
		dot += float64(query[i]) * float64(v[i])
	}
	return float32(dot / (queryNorm * vNorm))
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
