package ingestion

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/signlex/ai/mock"
	"github.com/poiesic/signlex/core"
	"github.com/poiesic/signlex/dictapi"
	"github.com/poiesic/signlex/retry"
	"github.com/poiesic/signlex/storage"
	"github.com/poiesic/signlex/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDictionary implements Source from in-memory fixtures.
type fakeDictionary struct {
	mu        sync.Mutex
	buckets   map[int][]dictapi.Summary
	entries   map[core.ID]*dictapi.Entry
	sentences map[core.ID][]dictapi.Example
	groups    map[core.ID][]dictapi.Sense

	// failures maps a record ID to the errors returned by successive Record calls.
	failures    map[core.ID][]error
	listErr     map[int]error
	listed      []int
	recordCalls map[core.ID]int
	onRecord    func(id core.ID)
}

func newFakeDictionary() *fakeDictionary {
	return &fakeDictionary{
		buckets: map[int][]dictapi.Summary{
			1: {{ID: 1, Name: "一"}},
			2: {{ID: 2, Name: "人"}, {ID: 3, Name: "蘋果"}},
		},
		entries: map[core.ID]*dictapi.Entry{
			1: {ID: 1, Name: "一", Clip: "https://example.test/1.mp4", Stroke: 1},
			2: {ID: 2, Name: "人", Description: "人類", Stroke: 2},
			3: {ID: 3, Name: "蘋果", Stroke: 2, Polysemy: 1},
		},
		sentences: map[core.ID][]dictapi.Example{
			2: {{Gloss: "人 多", Translation: "人很多"}},
			3: {
				{Gloss: "我 蘋果 吃", Translation: "我吃蘋果"},
				{Gloss: "", Translation: ""},
			},
		},
		groups: map[core.ID][]dictapi.Sense{
			3: {{ID: 3, Word: "蘋果"}, {ID: 3, Word: "平安"}},
		},
		failures:    map[core.ID][]error{},
		listErr:     map[int]error{},
		recordCalls: map[core.ID]int{},
	}
}

func (f *fakeDictionary) ListByStroke(ctx context.Context, stroke int) ([]dictapi.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed = append(f.listed, stroke)
	if err := f.listErr[stroke]; err != nil {
		return nil, err
	}
	return f.buckets[stroke], nil
}

func (f *fakeDictionary) Record(ctx context.Context, id core.ID) (*dictapi.Entry, error) {
	f.mu.Lock()
	f.recordCalls[id]++
	hook := f.onRecord
	var err error
	if queue := f.failures[id]; len(queue) > 0 {
		err, f.failures[id] = queue[0], queue[1:]
	}
	entry, ok := f.entries[id]
	f.mu.Unlock()

	if hook != nil {
		hook(id)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, dictapi.ErrNotFound
	}
	copied := *entry
	return &copied, nil
}

func (f *fakeDictionary) Sentences(ctx context.Context, id core.ID) ([]dictapi.Example, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sentences[id], nil
}

func (f *fakeDictionary) Group(ctx context.Context, id core.ID) ([]dictapi.Sense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.groups[id], nil
}

func setupTestStore(t *testing.T) storage.Store {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func fastOptions(opts ...Option) []Option {
	return append([]Option{
		WithPacing(0),
		WithRetryPolicy(retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}),
	}, opts...)
}

func wordTextsOf(t *testing.T, store storage.Store, id core.ID) []string {
	words, err := store.GetWordsByRecord(context.Background(), id)
	require.NoError(t, err)
	texts := make([]string, len(words))
	for i, w := range words {
		texts[i] = w.Text
	}
	return texts
}

func TestNewHarvester(t *testing.T) {
	store := setupTestStore(t)
	source := newFakeDictionary()

	t.Run("defaults", func(t *testing.T) {
		h, err := NewHarvester(source, store)
		require.NoError(t, err)
		defer h.Release()

		assert.Equal(t, FirstStroke, h.firstStroke)
		assert.Equal(t, LastStroke, h.lastStroke)
		assert.Equal(t, DefaultPacing, h.pacing)
		assert.Equal(t, retry.DefaultPolicy(), h.policy)
		assert.Nil(t, h.embeddingPool)
	})

	t.Run("nil source", func(t *testing.T) {
		_, err := NewHarvester(nil, store)
		assert.Equal(t, ErrSourceRequired, err)
	})

	t.Run("nil store", func(t *testing.T) {
		_, err := NewHarvester(source, nil)
		assert.Equal(t, ErrStoreRequired, err)
	})

	t.Run("invalid options", func(t *testing.T) {
		_, err := NewHarvester(source, store, WithStrokes(0, 5))
		assert.ErrorIs(t, err, ErrInvalidStrokeRange)

		_, err = NewHarvester(source, store, WithStrokes(5, 21))
		assert.ErrorIs(t, err, ErrInvalidStrokeRange)

		_, err = NewHarvester(source, store, WithStrokes(6, 5))
		assert.ErrorIs(t, err, ErrInvalidStrokeRange)

		_, err = NewHarvester(source, store, WithPacing(-time.Second))
		assert.Error(t, err)

		_, err = NewHarvester(source, store, WithRetryPolicy(retry.Policy{}))
		assert.ErrorIs(t, err, retry.ErrInvalidMaxAttempts)

		_, err = NewHarvester(source, store, WithEmbedder(nil, 1))
		assert.Equal(t, ErrEmbedderRequired, err)
	})
}

func TestHarvester_Run(t *testing.T) {
	store := setupTestStore(t)
	source := newFakeDictionary()
	ctx := context.Background()

	h, err := NewHarvester(source, store, fastOptions()...)
	require.NoError(t, err)
	defer h.Release()

	report, err := h.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, LastStroke, report.Buckets)
	assert.Equal(t, 3, report.Items)
	assert.Equal(t, 3, report.Records)
	assert.Equal(t, 4, report.Words)
	assert.Equal(t, 2, report.Sentences)
	assert.Empty(t, report.Failures)
	assert.NotEqual(t, uuid.Nil, report.RunID)

	record, err := store.GetRecord(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "人", record.Name)
	assert.Equal(t, "人類", record.Description)
	assert.Equal(t, 2, record.Stroke)

	// Name first, then each distinct sense
	assert.Equal(t, []string{"蘋果", "平安"}, wordTextsOf(t, store, 3))

	sentences, err := store.GetSentencesByRecord(ctx, 3)
	require.NoError(t, err)
	require.Len(t, sentences, 1)
	assert.Equal(t, "我吃蘋果", sentences[0].Translation)

	cp, err := store.LoadCheckpoint(ctx, CheckpointName)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, int64(LastStroke), cp.Position)

	t.Run("second run inserts nothing", func(t *testing.T) {
		again, err := h.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, again.Items)
		assert.Zero(t, again.Records)
		assert.Zero(t, again.Words)
		assert.Zero(t, again.Sentences)

		stats, err := store.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, stats.Records)
		assert.Equal(t, 4, stats.Words)
		assert.Equal(t, 2, stats.Sentences)
	})
}

func TestHarvester_SkipsFailingItems(t *testing.T) {
	store := setupTestStore(t)
	source := newFakeDictionary()
	ctx := context.Background()

	// Record 2 recovers after two transient failures, record 3 is rejected.
	source.failures[2] = []error{
		&dictapi.StatusError{Code: http.StatusServiceUnavailable},
		&dictapi.StatusError{Code: http.StatusTooManyRequests},
	}
	source.failures[3] = []error{&dictapi.StatusError{Code: http.StatusBadRequest}}

	h, err := NewHarvester(source, store, fastOptions(WithStrokes(1, 2))...)
	require.NoError(t, err)
	defer h.Release()

	report, err := h.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, source.recordCalls[2])
	assert.Equal(t, 1, source.recordCalls[3], "permanent errors are not retried")

	require.Len(t, report.Failures, 1)
	assert.Equal(t, 2, report.Failures[0].Stroke)
	assert.Equal(t, core.ID(3), report.Failures[0].RecordID)
	assert.Equal(t, 2, report.Records)

	_, err = store.GetRecord(ctx, 3)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestHarvester_GivesUpAfterMaxAttempts(t *testing.T) {
	store := setupTestStore(t)
	source := newFakeDictionary()
	unavailable := &dictapi.StatusError{Code: http.StatusBadGateway}
	source.failures[1] = []error{unavailable, unavailable, unavailable, unavailable}

	h, err := NewHarvester(source, store, fastOptions(WithStrokes(1, 1))...)
	require.NoError(t, err)
	defer h.Release()

	report, err := h.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, source.recordCalls[1])
	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[0].Err, unavailable)
}

func TestHarvester_SkipsFailedBucket(t *testing.T) {
	store := setupTestStore(t)
	source := newFakeDictionary()
	source.listErr[1] = &dictapi.StatusError{Code: http.StatusNotFound}

	h, err := NewHarvester(source, store, fastOptions(WithStrokes(1, 2))...)
	require.NoError(t, err)
	defer h.Release()

	report, err := h.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Failures, 1)
	assert.Equal(t, 1, report.Failures[0].Stroke)
	assert.Zero(t, report.Failures[0].RecordID)
	assert.Equal(t, 1, report.Buckets)
	assert.Equal(t, 2, report.Records)
}

func TestHarvester_FailedBucketIsRetriedOnResume(t *testing.T) {
	store := setupTestStore(t)
	source := newFakeDictionary()
	source.buckets[3] = []dictapi.Summary{{ID: 4, Name: "口"}}
	source.entries[4] = &dictapi.Entry{ID: 4, Name: "口", Stroke: 3}
	source.listErr[2] = &dictapi.StatusError{Code: http.StatusServiceUnavailable}
	ctx := context.Background()

	h, err := NewHarvester(source, store, fastOptions(WithStrokes(1, 3), WithResume(true))...)
	require.NoError(t, err)
	report, err := h.Run(ctx)
	h.Release()
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, 2, report.Failures[0].Stroke)
	assert.Equal(t, 2, report.Buckets)

	cp, err := store.LoadCheckpoint(ctx, CheckpointName)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, int64(1), cp.Position, "checkpoint stops before the failed bucket")

	_, err = store.GetRecord(ctx, 4)
	require.NoError(t, err, "buckets after the failure are still harvested")

	// The source recovers; the resumed run picks up the failed bucket.
	delete(source.listErr, 2)
	source.listed = nil

	h, err = NewHarvester(source, store, fastOptions(WithStrokes(1, 3), WithResume(true))...)
	require.NoError(t, err)
	defer h.Release()
	report, err = h.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Failures)
	assert.Equal(t, []int{2, 3}, source.listed)

	for _, id := range []core.ID{2, 3} {
		_, err = store.GetRecord(ctx, id)
		assert.NoError(t, err)
	}

	cp, err = store.LoadCheckpoint(ctx, CheckpointName)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cp.Position)
}

func TestHarvester_Resume(t *testing.T) {
	store := setupTestStore(t)
	source := newFakeDictionary()
	ctx := context.Background()

	require.NoError(t, store.SaveCheckpoint(ctx, &core.Checkpoint{ProcessorType: CheckpointName, Position: 1}))

	h, err := NewHarvester(source, store, fastOptions(WithStrokes(1, 3), WithResume(true))...)
	require.NoError(t, err)
	defer h.Release()

	report, err := h.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 3}, source.listed)
	assert.Equal(t, 2, report.Buckets)

	_, err = store.GetRecord(ctx, 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestHarvester_Cancellation(t *testing.T) {
	store := setupTestStore(t)
	source := newFakeDictionary()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source.onRecord = func(id core.ID) {
		if id == 2 {
			cancel()
		}
	}

	h, err := NewHarvester(source, store, fastOptions(WithStrokes(1, 2))...)
	require.NoError(t, err)
	defer h.Release()

	report, err := h.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, report.Records)
	assert.Zero(t, source.recordCalls[3])

	cp, err := store.LoadCheckpoint(context.Background(), CheckpointName)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, int64(1), cp.Position)
}

func TestHarvester_PacingHonorsContext(t *testing.T) {
	store := setupTestStore(t)
	source := newFakeDictionary()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	h, err := NewHarvester(source, store, WithPacing(time.Hour), WithStrokes(2, 2))
	require.NoError(t, err)
	defer h.Release()

	report, err := h.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, report.Records)
	assert.Zero(t, source.recordCalls[3])
}

func TestHarvester_WithEmbedder(t *testing.T) {
	store := setupTestStore(t)
	source := newFakeDictionary()
	embedder := mock.NewMockEmbedder()
	ctx := context.Background()

	h, err := NewHarvester(source, store, fastOptions(WithEmbedder(embedder, 2))...)
	require.NoError(t, err)

	report, err := h.Run(ctx)
	require.NoError(t, err)
	h.Release()

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, report.Words, stats.EmbeddedWords)

	words, err := store.GetWordsByRecord(ctx, 3)
	require.NoError(t, err)
	for _, w := range words {
		assert.True(t, w.HasEmbedding(embedder.Model()), w.Text)
	}
}

func TestEmbeddingProcessor_Process(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.AddRecord(ctx, &core.Record{Id: 1, Name: "一"})
	require.NoError(t, err)
	word := &core.Word{RecordId: 1, Text: "一"}
	_, err = store.AddWord(ctx, word)
	require.NoError(t, err)

	t.Run("stores vector with model", func(t *testing.T) {
		embedder := mock.NewMockEmbedder().WithVector("一", []float32{1, 0, 0})
		ep := newEmbeddingProcessor(store, embedder, nil)

		require.NoError(t, ep.process(ctx, word))

		words, err := store.GetWordsByRecord(ctx, 1)
		require.NoError(t, err)
		require.Len(t, words, 1)
		assert.Equal(t, []float32{1, 0, 0}, words[0].Vector)
		assert.Equal(t, mock.DefaultModel, words[0].EmbeddingModel)
	})

	t.Run("embedder error", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, errors.New("embedder error")
		}
		ep := newEmbeddingProcessor(store, embedder, nil)

		err := ep.process(ctx, word)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "embedder error")
	})

	t.Run("count mismatch", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{}, nil
		}
		ep := newEmbeddingProcessor(store, embedder, nil)

		assert.Error(t, ep.process(ctx, word))
	})

	t.Run("no words", func(t *testing.T) {
		ep := newEmbeddingProcessor(store, mock.NewMockEmbedder(), nil)
		assert.NoError(t, ep.process(ctx))
	})
}

func TestWordTexts(t *testing.T) {
	senses := []dictapi.Sense{{Word: " 平安 "}, {Word: "蘋果"}, {Word: ""}, {Word: "平安"}}
	assert.Equal(t, []string{"蘋果", "平安"}, wordTexts("蘋果", senses))
	assert.Equal(t, []string{"平安", "蘋果"}, wordTexts("", senses))
}

func TestHarvester_Release(t *testing.T) {
	store := setupTestStore(t)
	h, err := NewHarvester(newFakeDictionary(), store, WithEmbedder(mock.NewMockEmbedder(), 1))
	require.NoError(t, err)

	// Release should not panic
	h.Release()

	// Multiple releases should not panic
	h.Release()
}
