package search

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/poiesic/signlex/ai/mock"
	"github.com/poiesic/signlex/core"
	"github.com/poiesic/signlex/retry"
	"github.com/poiesic/signlex/storage"
	"github.com/poiesic/signlex/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastRetry = retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}

func newFruitEmbedder() *mock.MockEmbedder {
	return mock.NewMockEmbedder().
		WithVector("蘋果", []float32{1, 0, 0}).
		WithVector("香蕉", []float32{0, 1, 0}).
		WithVector("水果", []float32{0.8, 0.6, 0}).
		WithVector("電腦", []float32{0, 0, 1})
}

// seed stores one record per text with a single embedded word.
func seed(t *testing.T, store storage.Store, embedder *mock.MockEmbedder, texts ...string) map[string]*core.Word {
	t.Helper()
	ctx := context.Background()
	words := make(map[string]*core.Word, len(texts))
	for i, text := range texts {
		recordID := core.ID(i + 1)
		_, err := store.AddRecord(ctx, &core.Record{Id: recordID, Name: text})
		require.NoError(t, err)

		vector, err := embedder.EmbedText(ctx, text)
		require.NoError(t, err)
		word := &core.Word{RecordId: recordID, Text: text, Vector: vector, EmbeddingModel: embedder.Model()}
		_, err = store.AddWord(ctx, word)
		require.NoError(t, err)
		words[text] = word
	}
	embedder.Reset()
	return words
}

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewSearcher(t *testing.T) {
	store := newTestStore(t)
	embedder := mock.NewMockEmbedder()

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(store, embedder)
		require.NoError(t, err)
		assert.Equal(t, DefaultMinSimilarity, searcher.MinSimilarity())
	})

	t.Run("with custom logger", func(t *testing.T) {
		searcher, err := NewSearcher(store, embedder, WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(store, embedder, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("nil word repository", func(t *testing.T) {
		_, err := NewSearcher(nil, embedder)
		assert.Equal(t, ErrWordRepositoryRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewSearcher(store, nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})

	t.Run("threshold out of range", func(t *testing.T) {
		_, err := NewSearcher(store, embedder, WithMinSimilarity(1))
		assert.ErrorIs(t, err, ErrInvalidThreshold)
	})

	t.Run("invalid retry policy", func(t *testing.T) {
		_, err := NewSearcher(store, embedder, WithRetryPolicy(retry.Policy{}))
		assert.ErrorIs(t, err, retry.ErrInvalidMaxAttempts)
	})
}

func TestFindSimilar_IdenticalTextRanksFirst(t *testing.T) {
	store := newTestStore(t)
	embedder := newFruitEmbedder()
	words := seed(t, store, embedder, "香蕉", "水果", "蘋果")

	searcher, err := NewSearcher(store, embedder)
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), "蘋果", 0)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, words["蘋果"].Id, results[0].Word.Id)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-5)
	assert.Equal(t, words["水果"].Id, results[1].Word.Id)
	assert.InDelta(t, 0.8, results[1].Similarity, 1e-5)
}

func TestFindSimilar_UnrelatedQueryIsEmpty(t *testing.T) {
	store := newTestStore(t)
	embedder := newFruitEmbedder()
	seed(t, store, embedder, "蘋果", "香蕉")

	searcher, err := NewSearcher(store, embedder)
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), "電腦", 5)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestFindSimilar_EmptyDatabase(t *testing.T) {
	searcher, err := NewSearcher(newTestStore(t), mock.NewMockEmbedder())
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), "蘋果", 10)
	require.NoError(t, err)
	assert.Equal(t, []*core.WordMatch{}, results)
}

func TestFindSimilar_DefaultLimit(t *testing.T) {
	store := newTestStore(t)
	embedder := mock.NewMockEmbedder()
	texts := []string{"一", "二", "三", "四", "五", "六", "七"}
	for _, text := range texts {
		embedder.WithVector(text, []float32{1, 0})
	}
	seed(t, store, embedder, texts...)
	embedder.WithVector("查詢", []float32{1, 0})

	searcher, err := NewSearcher(store, embedder)
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), "查詢", 0)
	require.NoError(t, err)
	require.Len(t, results, DefaultLimit)

	// Ties keep insertion order
	for i, r := range results {
		assert.Equal(t, texts[i], r.Word.Text)
	}

	results, err = searcher.FindSimilar(context.Background(), "查詢", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestFindSimilar_InvalidQueries(t *testing.T) {
	searcher, err := NewSearcher(newTestStore(t), mock.NewMockEmbedder())
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		name  string
		query string
		limit int
	}{
		{"empty query", "", 5},
		{"blank query", " \t ", 5},
		{"punctuation only", "。？", 5},
		{"negative limit", "蘋果", -1},
		{"limit too large", "蘋果", MaxLimit + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := searcher.FindSimilar(ctx, tt.query, tt.limit)
			assert.ErrorIs(t, err, core.ErrInvalidQuery)
		})
	}
}

func TestFindSimilar_SkipsOtherModels(t *testing.T) {
	store := newTestStore(t)
	embedder := newFruitEmbedder()
	seed(t, store, embedder, "蘋果")

	searcher, err := NewSearcher(store, embedder.WithModel("bge-m3-v2"))
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), "蘋果", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilar_CustomThreshold(t *testing.T) {
	store := newTestStore(t)
	embedder := newFruitEmbedder()
	seed(t, store, embedder, "蘋果", "水果")

	searcher, err := NewSearcher(store, embedder, WithMinSimilarity(0.9))
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), "蘋果", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "蘋果", results[0].Word.Text)
}

func TestFindSimilar_RetriesEmbedder(t *testing.T) {
	store := newTestStore(t)
	embedder := newFruitEmbedder()
	seed(t, store, embedder, "蘋果")

	failures := 1
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if failures > 0 {
			failures--
			return nil, errors.New("model busy")
		}
		return []float32{1, 0, 0}, nil
	}

	searcher, err := NewSearcher(store, embedder, WithRetryPolicy(fastRetry))
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), "蘋果", 5)
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, 2, embedder.CallCount())
}

func TestFindSimilar_UpstreamFailure(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("connection refused")
	}

	searcher, err := NewSearcher(newTestStore(t), embedder, WithRetryPolicy(fastRetry))
	require.NoError(t, err)

	_, err = searcher.FindSimilar(context.Background(), "蘋果", 5)
	assert.ErrorIs(t, err, core.ErrUpstream)
	assert.Equal(t, 3, embedder.CallCount())
}

func TestFindSimilar_EmptyEmbeddingIsUpstream(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{}, nil
	}

	searcher, err := NewSearcher(newTestStore(t), embedder, WithRetryPolicy(fastRetry))
	require.NoError(t, err)

	_, err = searcher.FindSimilar(context.Background(), "蘋果", 5)
	assert.ErrorIs(t, err, core.ErrUpstream)
}

func TestFindSimilar_CanceledContext(t *testing.T) {
	searcher, err := NewSearcher(newTestStore(t), mock.NewMockEmbedder())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = searcher.FindSimilar(ctx, "蘋果", 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, core.ErrUpstream)
}

func TestBestMatch(t *testing.T) {
	store := newTestStore(t)
	embedder := newFruitEmbedder()
	seed(t, store, embedder, "水果", "蘋果")

	searcher, err := NewSearcher(store, embedder)
	require.NoError(t, err)

	match, err := searcher.BestMatch(context.Background(), "蘋果")
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "蘋果", match.Word.Text)

	match, err = searcher.BestMatch(context.Background(), "電腦")
	require.NoError(t, err)
	assert.Nil(t, match)
}

type recordingMonitor struct {
	query   string
	model   string
	dim     int
	results []*core.WordMatch
}

func (m *recordingMonitor) Start(query string) { m.query = query }

func (m *recordingMonitor) AfterEmbedding(model string, vector []float32) {
	m.model = model
	m.dim = len(vector)
}

func (m *recordingMonitor) Finish(results []*core.WordMatch, _ time.Duration) {
	m.results = results
}

func TestFindSimilarWithMonitor(t *testing.T) {
	store := newTestStore(t)
	embedder := newFruitEmbedder()
	seed(t, store, embedder, "蘋果")

	searcher, err := NewSearcher(store, embedder)
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	results, err := searcher.FindSimilarWithMonitor(context.Background(), " 蘋果。", 5, monitor)
	require.NoError(t, err)

	assert.Equal(t, "蘋果", monitor.query)
	assert.Equal(t, mock.DefaultModel, monitor.model)
	assert.Equal(t, 3, monitor.dim)
	assert.Equal(t, results, monitor.results)
}

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"蘋果", "蘋果"},
		{"  蘋果  ", "蘋果"},
		{"蘋果。", "蘋果"},
		{"「蘋果」", "蘋果"},
		{"紅色   蘋果", "紅色 蘋果"},
		{"?!", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeQuery(tt.in), tt.in)
	}
}
