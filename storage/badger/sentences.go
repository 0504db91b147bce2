package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/signlex/core"
	"github.com/poiesic/signlex/storage"
)

// SentenceRepository implements storage.SentenceRepository for BadgerDB.
type SentenceRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.SentenceRepository = (*SentenceRepository)(nil)

// NewSentenceRepository creates a new SentenceRepository.
func NewSentenceRepository(backend *Backend) (*SentenceRepository, error) {
	idSeq, err := backend.GetSequence(sentenceIDSeq)
	if err != nil {
		return nil, err
	}

	return &SentenceRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *SentenceRepository) Close() error {
	return r.idSeq.Release()
}

// AddSentence inserts a sentence unless the (RecordId, Gloss, Translation)
// triple exists.
func (r *SentenceRepository) AddSentence(ctx context.Context, sentence *core.Sentence) (bool, error) {
	if err := core.ValidateSentence(sentence); err != nil {
		return false, err
	}

	inserted := false
	err := r.backend.Update(ctx, func(tx *badger.Txn) error {
		inserted = false
		if err := requireRecord(tx, sentence.RecordId); err != nil {
			return err
		}

		uniqueKey := makeSentenceUniqueKey(sentence)
		exists, err := keyExists(tx, uniqueKey)
		if err != nil || exists {
			return err
		}

		id, err := nextID(r.idSeq)
		if err != nil {
			return err
		}
		sentence.Id = core.ID(id)
		sentence.InsertedAt = time.Now().UTC()

		if err := tx.Set(makeSentenceKey(sentence.Id), storage.MarshalSentence(sentence)); err != nil {
			return err
		}
		if err := tx.Set(makeSentenceRecordKey(sentence.RecordId, sentence.Id), nil); err != nil {
			return err
		}
		inserted = true
		return tx.Set(uniqueKey, storage.MarshalID(sentence.Id))
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

// GetSentencesByRecord returns the sentences of a record in insertion order.
func (r *SentenceRepository) GetSentencesByRecord(ctx context.Context, recordID core.ID) ([]*core.Sentence, error) {
	var sentences []*core.Sentence
	err := r.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = makeKey(sentenceRecordPrefix, recordID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			sentence, err := readSentence(tx, idFromKeySuffix(iter.Item().Key()))
			if err != nil {
				return err
			}
			sentences = append(sentences, sentence)
		}
		return nil
	})
	return sentences, err
}

func readSentence(tx *badger.Txn, id core.ID) (*core.Sentence, error) {
	item, err := tx.Get(makeSentenceKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("sentence %d: %w", id, storage.ErrNotFound)
		}
		return nil, err
	}

	var sentence *core.Sentence
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		sentence, unmarshalErr = storage.UnmarshalSentence(val)
		return unmarshalErr
	})
	return sentence, err
}
