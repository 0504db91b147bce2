package sqlite

import (
	"context"
	"time"

	"github.com/poiesic/signlex/core"
)

// AddSentence inserts a sentence unless the (RecordId, Gloss, Translation)
// triple exists.
func (s *Store) AddSentence(ctx context.Context, sentence *core.Sentence) (bool, error) {
	if err := s.live(); err != nil {
		return false, err
	}
	if err := core.ValidateSentence(sentence); err != nil {
		return false, err
	}
	now := time.Now().UTC()

	id, err := s.insertOrIgnore(ctx, sentence.RecordId, `
		INSERT INTO sentences (record_id, gloss, translation, clip, inserted_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (record_id, gloss, translation) DO NOTHING`,
		sentence.RecordId, sentence.Gloss, sentence.Translation, sentence.Clip, toMicros(now))
	if err != nil || id == 0 {
		return false, err
	}
	sentence.Id = id
	sentence.InsertedAt = now
	return true, nil
}

// GetSentencesByRecord returns the sentences of a record in insertion order.
func (s *Store) GetSentencesByRecord(ctx context.Context, recordID core.ID) ([]*core.Sentence, error) {
	if err := s.live(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, record_id, gloss, translation, clip, inserted_at
		FROM sentences WHERE record_id = ? ORDER BY id`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sentences []*core.Sentence
	for rows.Next() {
		sentence := &core.Sentence{}
		var insertedAt int64
		if err := rows.Scan(&sentence.Id, &sentence.RecordId, &sentence.Gloss, &sentence.Translation, &sentence.Clip, &insertedAt); err != nil {
			return nil, err
		}
		sentence.InsertedAt = fromMicros(insertedAt)
		sentences = append(sentences, sentence)
	}
	return sentences, rows.Err()
}
