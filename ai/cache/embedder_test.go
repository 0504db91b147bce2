package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/poiesic/signlex/ai/mock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Embedder, *mock.MockEmbedder, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	inner := mock.NewMockEmbedder()
	e := Wrap(client, inner, time.Hour)
	t.Cleanup(func() { e.Close() })
	return e, inner, srv
}

func TestEmbedder_EmbedTextCachesResult(t *testing.T) {
	e, inner, srv := newTestCache(t)
	ctx := context.Background()

	first, err := e.EmbedText(ctx, "蘋果")
	require.NoError(t, err)
	second, err := e.EmbedText(ctx, "蘋果")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.CallCount())
	assert.Len(t, srv.Keys(), 1)
	assert.Contains(t, srv.Keys()[0], keyPrefix+mock.DefaultModel+":")
}

func TestEmbedder_EmbedTextsMixesHitsAndMisses(t *testing.T) {
	e, inner, _ := newTestCache(t)
	ctx := context.Background()

	cached, err := e.EmbedText(ctx, "蘋果")
	require.NoError(t, err)

	var batches [][]string
	inner.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		batches = append(batches, texts)
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{float32(i + 1), 0}
		}
		return out, nil
	}

	vectors, err := e.EmbedTexts(ctx, []string{"香蕉", "蘋果", "西瓜"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, [][]string{{"香蕉", "西瓜"}}, batches)
	assert.Equal(t, cached, vectors[1])
	assert.Equal(t, []float32{1, 0}, vectors[0])
	assert.Equal(t, []float32{2, 0}, vectors[2])

	// Everything is cached now
	_, err = e.EmbedTexts(ctx, []string{"香蕉", "蘋果", "西瓜"})
	require.NoError(t, err)
	assert.Len(t, batches, 1)
}

func TestEmbedder_KeysIncludeModel(t *testing.T) {
	e, inner, srv := newTestCache(t)
	ctx := context.Background()

	_, err := e.EmbedText(ctx, "蘋果")
	require.NoError(t, err)
	inner.WithModel("other-model")
	_, err = e.EmbedText(ctx, "蘋果")
	require.NoError(t, err)

	assert.Equal(t, 2, inner.CallCount())
	assert.Len(t, srv.Keys(), 2)
	assert.Equal(t, "other-model", e.Model())
}

func TestEmbedder_FallsBackWhenRedisIsDown(t *testing.T) {
	e, inner, srv := newTestCache(t)
	srv.Close()

	vector, err := e.EmbedText(context.Background(), "蘋果")
	require.NoError(t, err)
	assert.NotEmpty(t, vector)

	vectors, err := e.EmbedTexts(context.Background(), []string{"蘋果", "香蕉"})
	require.NoError(t, err)
	assert.Len(t, vectors, 2)
	assert.Equal(t, 2, inner.CallCount())
}

func TestEmbedder_IgnoresCorruptEntries(t *testing.T) {
	e, inner, srv := newTestCache(t)
	require.NoError(t, srv.Set(e.key("蘋果"), "abc"))

	_, err := e.EmbedText(context.Background(), "蘋果")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.CallCount())
}

func TestVectorEncoding(t *testing.T) {
	v := []float32{0.25, -1.5, 3}
	decoded, ok := decodeVector(encodeVector(v))
	require.True(t, ok)
	assert.Equal(t, v, decoded)

	_, ok = decodeVector(nil)
	assert.False(t, ok)
}
