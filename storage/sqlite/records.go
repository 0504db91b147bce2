package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/poiesic/signlex/core"
	"github.com/poiesic/signlex/storage"
)

// AddRecord inserts a record unless one with the same ID exists.
func (s *Store) AddRecord(ctx context.Context, record *core.Record) (bool, error) {
	if err := s.live(); err != nil {
		return false, err
	}
	if err := core.ValidateRecord(record); err != nil {
		return false, err
	}
	insertedAt := record.InsertedAt
	if insertedAt.IsZero() {
		insertedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO records (id, name, description, clip, stroke, polysemy, inserted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		record.Id, record.Name, record.Description, record.Clip, record.Stroke, record.Polysemy, toMicros(insertedAt))
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}
	record.InsertedAt = insertedAt
	return true, nil
}

// GetRecord retrieves a record by ID.
func (s *Store) GetRecord(ctx context.Context, id core.ID) (*core.Record, error) {
	if err := s.live(); err != nil {
		return nil, err
	}
	record := &core.Record{}
	var insertedAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, clip, stroke, polysemy, inserted_at
		FROM records WHERE id = ?`, id,
	).Scan(&record.Id, &record.Name, &record.Description, &record.Clip, &record.Stroke, &record.Polysemy, &insertedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	record.InsertedAt = fromMicros(insertedAt)
	return record, nil
}
