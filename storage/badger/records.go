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

// RecordRepository implements storage.RecordRepository for BadgerDB.
type RecordRepository struct {
	backend *Backend
}

var _ storage.RecordRepository = (*RecordRepository)(nil)

// NewRecordRepository creates a new RecordRepository.
func NewRecordRepository(backend *Backend) *RecordRepository {
	return &RecordRepository{backend: backend}
}

// AddRecord inserts a record unless one with the same ID exists.
func (r *RecordRepository) AddRecord(ctx context.Context, record *core.Record) (bool, error) {
	if err := core.ValidateRecord(record); err != nil {
		return false, err
	}

	inserted := false
	err := r.backend.Update(ctx, func(tx *badger.Txn) error {
		inserted = false
		key := makeRecordKey(record.Id)
		exists, err := keyExists(tx, key)
		if err != nil || exists {
			return err
		}
		if record.InsertedAt.IsZero() {
			record.InsertedAt = time.Now().UTC()
		}
		inserted = true
		return tx.Set(key, storage.MarshalRecord(record))
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

// GetRecord retrieves a record by ID.
func (r *RecordRepository) GetRecord(ctx context.Context, id core.ID) (*core.Record, error) {
	var record *core.Record
	err := r.backend.View(func(tx *badger.Txn) error {
		var err error
		record, err = readRecord(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// readRecord reads a record inside a transaction.
func readRecord(tx *badger.Txn, id core.ID) (*core.Record, error) {
	item, err := tx.Get(makeRecordKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("record %d: %w", id, storage.ErrNotFound)
		}
		return nil, err
	}

	var record *core.Record
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalRecord(val)
		return unmarshalErr
	})
	return record, err
}

// requireRecord fails with storage.ErrNotFound unless the record exists.
func requireRecord(tx *badger.Txn, id core.ID) error {
	exists, err := keyExists(tx, makeRecordKey(id))
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("record %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

// keyExists reports whether key is present.
func keyExists(tx *badger.Txn, key []byte) (bool, error) {
	_, err := tx.Get(key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return false, err
}
