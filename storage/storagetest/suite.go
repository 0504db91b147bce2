// Package storagetest holds behavior tests shared by every storage.Store
// implementation.
package storagetest

import (
	"context"
	"testing"

	"github.com/poiesic/signlex/core"
	"github.com/poiesic/signlex/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModel = "test-model"

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) storage.Store

// Run exercises the full storage.Store contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, store storage.Store)
	}{
		{"RecordInsertOrIgnore", testRecordInsertOrIgnore},
		{"GetRecordNotFound", testGetRecordNotFound},
		{"WordUniqueness", testWordUniqueness},
		{"WordRequiresRecord", testWordRequiresRecord},
		{"SentenceUniqueness", testSentenceUniqueness},
		{"ChildrenByRecord", testChildrenByRecord},
		{"ListWordsPaging", testListWordsPaging},
		{"UpdateWordEmbedding", testUpdateWordEmbedding},
		{"FindSimilarOrdering", testFindSimilarOrdering},
		{"FindSimilarThreshold", testFindSimilarThreshold},
		{"FindSimilarLimit", testFindSimilarLimit},
		{"FindSimilarTiesKeepInsertionOrder", testFindSimilarTies},
		{"FindSimilarSkipsOtherModels", testFindSimilarSkipsOtherModels},
		{"FindSimilarEmptyStore", testFindSimilarEmptyStore},
		{"Checkpoints", testCheckpoints},
		{"Stats", testStats},
		{"ClosedStore", testClosedStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t)
			defer store.Close()
			tt.fn(t, store)
		})
	}
}

func addRecord(t *testing.T, store storage.Store, id core.ID, name string) {
	t.Helper()
	inserted, err := store.AddRecord(context.Background(), &core.Record{Id: id, Name: name, Stroke: 5})
	require.NoError(t, err)
	require.True(t, inserted)
}

func addWord(t *testing.T, store storage.Store, recordID core.ID, text string, vector []float32) *core.Word {
	t.Helper()
	ctx := context.Background()
	word := &core.Word{RecordId: recordID, Text: text}
	inserted, err := store.AddWord(ctx, word)
	require.NoError(t, err)
	require.True(t, inserted)
	require.NotZero(t, word.Id)
	if vector != nil {
		require.NoError(t, store.UpdateWordEmbedding(ctx, word.Id, vector, testModel))
	}
	return word
}

func matchTexts(matches []*core.WordMatch) []string {
	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Word.Text
	}
	return texts
}

func testRecordInsertOrIgnore(t *testing.T, store storage.Store) {
	ctx := context.Background()
	record := &core.Record{Id: 42, Name: "蘋果", Description: "水果", Clip: "https://example.com/42.mp4", Stroke: 8, Polysemy: 1}

	inserted, err := store.AddRecord(ctx, record)
	require.NoError(t, err)
	assert.True(t, inserted)

	// A second insert with different fields is a no-op
	inserted, err = store.AddRecord(ctx, &core.Record{Id: 42, Name: "changed"})
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := store.GetRecord(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "蘋果", got.Name)
	assert.Equal(t, "水果", got.Description)
	assert.Equal(t, "https://example.com/42.mp4", got.Clip)
	assert.Equal(t, 8, got.Stroke)
	assert.Equal(t, 1, got.Polysemy)
	assert.False(t, got.InsertedAt.IsZero())
}

func testGetRecordNotFound(t *testing.T, store storage.Store) {
	_, err := store.GetRecord(context.Background(), 999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testWordUniqueness(t *testing.T, store storage.Store) {
	ctx := context.Background()
	addRecord(t, store, 1, "蘋果")
	addRecord(t, store, 2, "香蕉")

	first := addWord(t, store, 1, "蘋果", nil)

	inserted, err := store.AddWord(ctx, &core.Word{RecordId: 1, Text: "蘋果"})
	require.NoError(t, err)
	assert.False(t, inserted)

	// Same text under another record is a different word
	other := addWord(t, store, 2, "蘋果", nil)
	assert.Greater(t, other.Id, first.Id)

	words, err := store.GetWordsByRecord(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, words, 1)
}

func testWordRequiresRecord(t *testing.T, store storage.Store) {
	ctx := context.Background()
	_, err := store.AddWord(ctx, &core.Word{RecordId: 77, Text: "孤兒"})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.AddSentence(ctx, &core.Sentence{RecordId: 77, Gloss: "孤兒"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testSentenceUniqueness(t *testing.T, store storage.Store) {
	ctx := context.Background()
	addRecord(t, store, 1, "蘋果")

	sentence := &core.Sentence{RecordId: 1, Gloss: "蘋果 我 喜歡", Translation: "我喜歡蘋果", Clip: "a.mp4"}
	inserted, err := store.AddSentence(ctx, sentence)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NotZero(t, sentence.Id)

	inserted, err = store.AddSentence(ctx, &core.Sentence{RecordId: 1, Gloss: "蘋果 我 喜歡", Translation: "我喜歡蘋果", Clip: "b.mp4"})
	require.NoError(t, err)
	assert.False(t, inserted)

	inserted, err = store.AddSentence(ctx, &core.Sentence{RecordId: 1, Gloss: "蘋果 我 喜歡", Translation: "我愛蘋果"})
	require.NoError(t, err)
	assert.True(t, inserted)

	sentences, err := store.GetSentencesByRecord(ctx, 1)
	require.NoError(t, err)
	require.Len(t, sentences, 2)
	assert.Equal(t, "我喜歡蘋果", sentences[0].Translation)
	assert.Equal(t, "a.mp4", sentences[0].Clip)
}

func testChildrenByRecord(t *testing.T, store storage.Store) {
	ctx := context.Background()
	addRecord(t, store, 1, "蘋果")
	addRecord(t, store, 2, "香蕉")
	addWord(t, store, 1, "蘋果", nil)
	addWord(t, store, 2, "香蕉", nil)
	addWord(t, store, 1, "蘋果樹", nil)
	_, err := store.AddSentence(ctx, &core.Sentence{RecordId: 2, Gloss: "香蕉 好吃"})
	require.NoError(t, err)

	words, err := store.GetWordsByRecord(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"蘋果", "蘋果樹"}, []string{words[0].Text, words[1].Text})

	sentences, err := store.GetSentencesByRecord(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, sentences)

	sentences, err = store.GetSentencesByRecord(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, sentences, 1)
}

func testListWordsPaging(t *testing.T, store storage.Store) {
	ctx := context.Background()
	addRecord(t, store, 1, "數字")
	texts := []string{"一", "二", "三", "四", "五"}
	for _, text := range texts {
		addWord(t, store, 1, text, nil)
	}

	var seen []string
	var after core.ID
	for {
		page, err := store.ListWords(ctx, after, 2)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		assert.LessOrEqual(t, len(page), 2)
		for _, w := range page {
			seen = append(seen, w.Text)
			after = w.Id
		}
	}
	assert.Equal(t, texts, seen)

	_, err := store.ListWords(ctx, 0, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func testUpdateWordEmbedding(t *testing.T, store storage.Store) {
	ctx := context.Background()
	addRecord(t, store, 1, "蘋果")
	word := addWord(t, store, 1, "蘋果", nil)

	require.NoError(t, store.UpdateWordEmbedding(ctx, word.Id, []float32{0.6, 0.8}, "model-a"))

	words, err := store.GetWordsByRecord(ctx, 1)
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, words[0].Vector, 1e-6)
	assert.Equal(t, "model-a", words[0].EmbeddingModel)

	err = store.UpdateWordEmbedding(ctx, 9999, []float32{1}, "model-a")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = store.UpdateWordEmbedding(ctx, word.Id, nil, "model-a")
	assert.Error(t, err)
}

func testFindSimilarOrdering(t *testing.T, store storage.Store) {
	ctx := context.Background()
	addRecord(t, store, 1, "蘋果")
	addWord(t, store, 1, "far", []float32{0.6, 0.8, 0})
	addWord(t, store, 1, "exact", []float32{1, 0, 0})
	addWord(t, store, 1, "near", []float32{0.9, 0.43589, 0})

	matches, err := store.FindSimilarWords(ctx, []float32{1, 0, 0}, testModel, 0.5, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"exact", "near", "far"}, matchTexts(matches))
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-4)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Similarity, matches[i].Similarity)
	}
}

func testFindSimilarThreshold(t *testing.T, store storage.Store) {
	ctx := context.Background()
	addRecord(t, store, 1, "蘋果")
	addWord(t, store, 1, "orthogonal", []float32{0, 1})
	addWord(t, store, 1, "opposite", []float32{-1, 0})
	addWord(t, store, 1, "below", []float32{0.4, 0.9165151})
	addWord(t, store, 1, "close", []float32{0.8, 0.6})
	addWord(t, store, 1, "exact", []float32{1, 0})

	matches, err := store.FindSimilarWords(ctx, []float32{1, 0}, testModel, 0.5, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"exact", "close"}, matchTexts(matches))
	for _, m := range matches {
		assert.Greater(t, m.Similarity, float32(0.5))
	}

	// The floor is exclusive
	matches, err = store.FindSimilarWords(ctx, []float32{1, 0}, testModel, 1.0, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func testFindSimilarLimit(t *testing.T, store storage.Store) {
	ctx := context.Background()
	addRecord(t, store, 1, "蘋果")
	for i, text := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		addWord(t, store, 1, text, []float32{1, float32(i) * 0.05})
	}

	matches, err := store.FindSimilarWords(ctx, []float32{1, 0}, testModel, 0.5, 5)
	require.NoError(t, err)
	assert.Len(t, matches, 5)

	matches, err = store.FindSimilarWords(ctx, []float32{1, 0}, testModel, 0.5, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, matchTexts(matches))

	_, err = store.FindSimilarWords(ctx, []float32{1, 0}, testModel, 0.5, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func testFindSimilarTies(t *testing.T, store storage.Store) {
	ctx := context.Background()
	addRecord(t, store, 1, "蘋果")
	addRecord(t, store, 2, "香蕉")
	addWord(t, store, 2, "first", []float32{0, 1})
	addWord(t, store, 1, "second", []float32{0, 1})
	addWord(t, store, 2, "third", []float32{0, 2})

	matches, err := store.FindSimilarWords(ctx, []float32{0, 1}, testModel, 0.5, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, matchTexts(matches))
}

func testFindSimilarSkipsOtherModels(t *testing.T, store storage.Store) {
	ctx := context.Background()
	addRecord(t, store, 1, "蘋果")
	current := addWord(t, store, 1, "current", []float32{1, 0})
	stale := addWord(t, store, 1, "stale", nil)
	require.NoError(t, store.UpdateWordEmbedding(ctx, stale.Id, []float32{1, 0}, "old-model"))
	addWord(t, store, 1, "wrong-dimension", []float32{1, 0, 0})
	addWord(t, store, 1, "unembedded", nil)

	matches, err := store.FindSimilarWords(ctx, []float32{1, 0}, testModel, 0.5, 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, current.Id, matches[0].Word.Id)
	assert.Equal(t, core.ID(1), matches[0].Word.RecordId)
}

func testFindSimilarEmptyStore(t *testing.T, store storage.Store) {
	matches, err := store.FindSimilarWords(context.Background(), []float32{1, 0}, testModel, 0.5, 5)
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func testCheckpoints(t *testing.T, store storage.Store) {
	ctx := context.Background()

	checkpoint, err := store.LoadCheckpoint(ctx, "ingestion")
	require.NoError(t, err)
	assert.Nil(t, checkpoint)

	require.NoError(t, store.SaveCheckpoint(ctx, &core.Checkpoint{ProcessorType: "ingestion", Position: 3}))
	require.NoError(t, store.SaveCheckpoint(ctx, &core.Checkpoint{ProcessorType: "ingestion", Position: 4}))

	checkpoint, err = store.LoadCheckpoint(ctx, "ingestion")
	require.NoError(t, err)
	require.NotNil(t, checkpoint)
	assert.Equal(t, int64(4), checkpoint.Position)
	assert.False(t, checkpoint.UpdatedAt.IsZero())
}

func testStats(t *testing.T, store storage.Store) {
	ctx := context.Background()
	addRecord(t, store, 1, "蘋果")
	addRecord(t, store, 2, "香蕉")
	addWord(t, store, 1, "蘋果", []float32{1, 0})
	addWord(t, store, 2, "香蕉", nil)
	_, err := store.AddSentence(ctx, &core.Sentence{RecordId: 1, Gloss: "蘋果 好吃"})
	require.NoError(t, err)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &core.Stats{Records: 2, Words: 2, EmbeddedWords: 1, Sentences: 1}, stats)
}

func testClosedStore(t *testing.T, store storage.Store) {
	ctx := context.Background()
	addRecord(t, store, 1, "一")
	require.NoError(t, store.Close())
	require.NoError(t, store.Close(), "closing twice is a no-op")

	_, err := store.GetRecord(ctx, 1)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	_, err = store.AddRecord(ctx, &core.Record{Id: 2})
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	_, err = store.ListWords(ctx, 0, 10)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	_, err = store.FindSimilarWords(ctx, []float32{1, 0}, testModel, 0, 5)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	err = store.SaveCheckpoint(ctx, &core.Checkpoint{ProcessorType: "harvest", Position: 1})
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	_, err = store.Stats(ctx)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}
