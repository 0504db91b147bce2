package badger

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/signlex/core"
	"github.com/poiesic/signlex/storage"
)

// Store implements storage.Store on a single BadgerDB instance.
type Store struct {
	*RecordRepository
	*WordRepository
	*SentenceRepository
	*CheckpointRepository
	backend *Backend
	closed  atomic.Bool
}

var _ storage.Store = (*Store)(nil)

// NewStore opens (or creates) a BadgerDB lexicon store at path.
func NewStore(path string) (storage.Store, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return newStore(backend)
}

func newStore(backend *Backend) (*Store, error) {
	words, err := NewWordRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	sentences, err := NewSentenceRepository(backend)
	if err != nil {
		words.Close()
		backend.Close()
		return nil, err
	}

	return &Store{
		RecordRepository:     NewRecordRepository(backend),
		WordRepository:       words,
		SentenceRepository:   sentences,
		CheckpointRepository: NewCheckpointRepository(backend),
		backend:              backend,
	}, nil
}

// Stats counts rows by scanning the entity prefixes.
func (s *Store) Stats(ctx context.Context) (*core.Stats, error) {
	stats := &core.Stats{}
	err := s.backend.View(func(tx *badger.Txn) error {
		var err error
		if stats.Records, err = countPrefix(tx, recordPrefix); err != nil {
			return err
		}
		if stats.Sentences, err = countPrefix(tx, sentencePrefix); err != nil {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(wordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			word, err := unmarshalWordItem(iter.Item())
			if err != nil {
				return err
			}
			stats.Words++
			if len(word.Vector) > 0 {
				stats.EmbeddedWords++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Close releases the ID sequences and closes the database. Closing twice is
// a no-op.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return errors.Join(
		s.WordRepository.Close(),
		s.SentenceRepository.Close(),
		s.backend.Close(),
	)
}

func countPrefix(tx *badger.Txn, prefix string) (int, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefix)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	n := 0
	for iter.Rewind(); iter.Valid(); iter.Next() {
		n++
	}
	return n, nil
}
