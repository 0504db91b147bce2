// Package sqlite implements storage.Store on SQLite with the sqlite-vec
// extension providing vector distance functions.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/poiesic/signlex/core"
	"github.com/poiesic/signlex/storage"
)

func init() {
	// Registers sqlite-vec with every connection opened by go-sqlite3.
	vec.Auto()
}

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id          INTEGER PRIMARY KEY,
	name        TEXT    NOT NULL DEFAULT '',
	description TEXT    NOT NULL DEFAULT '',
	clip        TEXT    NOT NULL DEFAULT '',
	stroke      INTEGER NOT NULL DEFAULT 0,
	polysemy    INTEGER NOT NULL DEFAULT 0,
	inserted_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS words (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	record_id       INTEGER NOT NULL REFERENCES records(id),
	word            TEXT    NOT NULL,
	embedding       BLOB,
	embedding_model TEXT    NOT NULL DEFAULT '',
	embedding_dim   INTEGER NOT NULL DEFAULT 0,
	inserted_at     INTEGER NOT NULL,
	updated_at      INTEGER NOT NULL,
	UNIQUE (record_id, word)
);

CREATE INDEX IF NOT EXISTS idx_words_model ON words (embedding_model, embedding_dim);

CREATE TABLE IF NOT EXISTS sentences (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	record_id   INTEGER NOT NULL REFERENCES records(id),
	gloss       TEXT    NOT NULL DEFAULT '',
	translation TEXT    NOT NULL DEFAULT '',
	clip        TEXT    NOT NULL DEFAULT '',
	inserted_at INTEGER NOT NULL,
	UNIQUE (record_id, gloss, translation)
);

CREATE INDEX IF NOT EXISTS idx_sentences_record ON sentences (record_id);

CREATE TABLE IF NOT EXISTS checkpoints (
	processor_type TEXT PRIMARY KEY,
	position       INTEGER NOT NULL,
	updated_at     INTEGER NOT NULL
);
`

// Store implements storage.Store on a SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	closed atomic.Bool
}

var _ storage.Store = (*Store)(nil)

// NewStore opens (or creates) a SQLite lexicon store at path.
func NewStore(path string) (storage.Store, error) {
	return open(path)
}

func open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{
		db:     db,
		logger: slog.Default().With("component", "sqlite"),
	}
	if err := store.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	var version string
	if err := s.db.QueryRowContext(ctx, "SELECT vec_version()").Scan(&version); err != nil {
		return fmt.Errorf("sqlite-vec not available: %w", err)
	}
	s.logger.Debug("sqlite-vec loaded", "version", version)

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database. Closing twice is a no-op.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// live returns storage.ErrStorageClosed once Close has been called.
func (s *Store) live() error {
	if s.closed.Load() {
		return storage.ErrStorageClosed
	}
	return nil
}

// Stats counts rows in every table.
func (s *Store) Stats(ctx context.Context) (*core.Stats, error) {
	if err := s.live(); err != nil {
		return nil, err
	}
	stats := &core.Stats{}
	err := s.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM records),
		       (SELECT COUNT(*) FROM words),
		       (SELECT COUNT(*) FROM words WHERE embedding IS NOT NULL),
		       (SELECT COUNT(*) FROM sentences)`,
	).Scan(&stats.Records, &stats.Words, &stats.EmbeddedWords, &stats.Sentences)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// SaveCheckpoint persists a checkpoint for a processor type.
func (s *Store) SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error {
	if err := s.live(); err != nil {
		return err
	}
	if checkpoint == nil || checkpoint.ProcessorType == "" {
		return fmt.Errorf("%w: checkpoint needs a processor type", storage.ErrInvalidQuery)
	}
	checkpoint.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (processor_type, position, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (processor_type) DO UPDATE SET position = excluded.position, updated_at = excluded.updated_at`,
		checkpoint.ProcessorType, checkpoint.Position, toMicros(checkpoint.UpdatedAt))
	return err
}

// LoadCheckpoint retrieves the checkpoint for a processor type.
// Returns nil, nil if no checkpoint exists.
func (s *Store) LoadCheckpoint(ctx context.Context, processorType string) (*core.Checkpoint, error) {
	if err := s.live(); err != nil {
		return nil, err
	}
	checkpoint := &core.Checkpoint{ProcessorType: processorType}
	var updatedAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT position, updated_at FROM checkpoints WHERE processor_type = ?", processorType,
	).Scan(&checkpoint.Position, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	checkpoint.UpdatedAt = fromMicros(updatedAt)
	return checkpoint, nil
}

// insertOrIgnore runs an INSERT ... ON CONFLICT DO NOTHING statement and
// returns the new row ID, or 0 when the row already existed.
func (s *Store) insertOrIgnore(ctx context.Context, recordID core.ID, query string, args ...any) (core.ID, error) {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
			return 0, fmt.Errorf("record %d: %w", recordID, storage.ErrNotFound)
		}
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil || affected == 0 {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	return core.ID(id), nil
}

func toMicros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func fromMicros(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.UnixMicro(v).UTC()
}
