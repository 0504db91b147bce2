package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/poiesic/signlex/core"
	"github.com/poiesic/signlex/storage"
)

const wordColumns = "id, record_id, word, embedding, embedding_model, inserted_at, updated_at"

// AddWord inserts a word unless the (RecordId, Text) pair exists.
func (s *Store) AddWord(ctx context.Context, word *core.Word) (bool, error) {
	if err := s.live(); err != nil {
		return false, err
	}
	if err := core.ValidateWord(word); err != nil {
		return false, err
	}
	now := time.Now().UTC()

	// A nil []byte binds as an empty blob, so unembedded words get an explicit NULL
	var blob any
	if word.Vector != nil {
		serialized, err := vec.SerializeFloat32(word.Vector)
		if err != nil {
			return false, err
		}
		blob = serialized
	}

	id, err := s.insertOrIgnore(ctx, word.RecordId, `
		INSERT INTO words (record_id, word, embedding, embedding_model, embedding_dim, inserted_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (record_id, word) DO NOTHING`,
		word.RecordId, word.Text, blob, word.EmbeddingModel, len(word.Vector), toMicros(now), toMicros(now))
	if err != nil || id == 0 {
		return false, err
	}
	word.Id = id
	word.InsertedAt = now
	word.UpdatedAt = now
	return true, nil
}

// GetWordsByRecord returns the words of a record in insertion order.
func (s *Store) GetWordsByRecord(ctx context.Context, recordID core.ID) ([]*core.Word, error) {
	if err := s.live(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+wordColumns+" FROM words WHERE record_id = ? ORDER BY id", recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWords(rows)
}

// ListWords pages through all words in insertion order, starting after afterID.
func (s *Store) ListWords(ctx context.Context, afterID core.ID, limit int) ([]*core.Word, error) {
	if err := s.live(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+wordColumns+" FROM words WHERE id > ? ORDER BY id LIMIT ?", afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWords(rows)
}

// UpdateWordEmbedding stores a vector and the model that produced it.
func (s *Store) UpdateWordEmbedding(ctx context.Context, id core.ID, vector []float32, model string) error {
	if err := s.live(); err != nil {
		return err
	}
	if err := core.ValidateVector(vector); err != nil {
		return err
	}
	if model == "" {
		return fmt.Errorf("%w: embedding model is required", storage.ErrInvalidQuery)
	}
	blob, err := vec.SerializeFloat32(vector)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE words SET embedding = ?, embedding_model = ?, embedding_dim = ?, updated_at = ?
		WHERE id = ?`,
		blob, model, len(vector), toMicros(time.Now().UTC()), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("word %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

// FindSimilarWords ranks the words embedded by model against vector using
// sqlite-vec's cosine distance. Only rows of the query's dimension reach the
// distance function.
func (s *Store) FindSimilarWords(ctx context.Context, vector []float32, model string, minSimilarity float32, limit int) ([]*core.WordMatch, error) {
	if err := s.live(); err != nil {
		return nil, err
	}
	if len(vector) == 0 || limit <= 0 {
		return nil, fmt.Errorf("%w: vector and positive limit required", storage.ErrInvalidQuery)
	}
	blob, err := vec.SerializeFloat32(vector)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+wordColumns+`, similarity FROM (
			SELECT `+wordColumns+`,
			       CASE WHEN embedding_dim = ? THEN 1.0 - vec_distance_cosine(embedding, ?) END AS similarity
			FROM words
			WHERE embedding IS NOT NULL AND embedding_model = ? AND embedding_dim = ?
		)
		WHERE similarity > ?
		ORDER BY similarity DESC, id ASC
		LIMIT ?`,
		len(vector), blob, model, len(vector), minSimilarity, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := []*core.WordMatch{}
	for rows.Next() {
		var similarity float64
		word, err := scanWord(rows, &similarity)
		if err != nil {
			return nil, err
		}
		matches = append(matches, &core.WordMatch{
			Word:       word,
			Similarity: float32(similarity),
		})
	}
	return matches, rows.Err()
}

func scanWords(rows *sql.Rows) ([]*core.Word, error) {
	var words []*core.Word
	for rows.Next() {
		word, err := scanWord(rows)
		if err != nil {
			return nil, err
		}
		words = append(words, word)
	}
	return words, rows.Err()
}

func scanWord(rows *sql.Rows, extra ...any) (*core.Word, error) {
	word := &core.Word{}
	var (
		blob       []byte
		insertedAt int64
		updatedAt  int64
	)
	dest := append([]any{&word.Id, &word.RecordId, &word.Text, &blob, &word.EmbeddingModel, &insertedAt, &updatedAt}, extra...)
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}
	vector, err := decodeVector(blob)
	if err != nil {
		return nil, err
	}
	word.Vector = vector
	word.InsertedAt = fromMicros(insertedAt)
	word.UpdatedAt = fromMicros(updatedAt)
	return word, nil
}

// decodeVector reverses vec.SerializeFloat32 (little endian float32).
func decodeVector(blob []byte) ([]float32, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("%w: vector blob of %d bytes", storage.ErrSerializationFailed, len(blob))
	}
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector, nil
}
