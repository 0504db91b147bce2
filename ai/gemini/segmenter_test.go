package gemini

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/signlex/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scripted(calls *int, answers ...string) generateFunc {
	return func(ctx context.Context, sentence string) (string, error) {
		idx := min(*calls, len(answers)-1)
		*calls++
		return answers[idx], nil
	}
}

func TestSegmenter_Segment(t *testing.T) {
	var calls int
	seg := newSegmenter(scripted(&calls, `["明天","學校","我","去"]`), ai.DefaultConfig())

	units, err := seg.Segment(context.Background(), "我明天去學校")
	require.NoError(t, err)
	assert.Equal(t, []string{"明天", "學校", "我", "去"}, units)
	assert.Equal(t, 1, calls)
}

func TestSegmenter_RetriesThenFails(t *testing.T) {
	var calls int
	seg := newSegmenter(scripted(&calls, `[1,2]`), ai.DefaultConfig())

	_, err := seg.Segment(context.Background(), "我明天去學校")
	assert.ErrorIs(t, err, ai.ErrMalformedSequence)
	assert.Equal(t, 3, calls)
}

func TestSegmenter_RecoversOnSecondAttempt(t *testing.T) {
	var calls int
	seg := newSegmenter(scripted(&calls, `not json`, `["你","名字","什麼"]`), ai.DefaultConfig())

	units, err := seg.Segment(context.Background(), "你叫什麼名字？")
	require.NoError(t, err)
	assert.Equal(t, []string{"你", "名字", "什麼"}, units)
	assert.Equal(t, 2, calls)
}

func TestSegmenter_TransportError(t *testing.T) {
	boom := errors.New("unavailable")
	calls := 0
	seg := newSegmenter(func(ctx context.Context, sentence string) (string, error) {
		calls++
		return "", boom
	}, ai.DefaultConfig())

	_, err := seg.Segment(context.Background(), "我")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestSegmenter_AppliesTimeout(t *testing.T) {
	cfg := ai.NewConfig(ai.WithTimeout(10 * time.Millisecond))
	seg := newSegmenter(func(ctx context.Context, sentence string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}, cfg)

	_, err := seg.Segment(context.Background(), "我")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewSegmenter_RequiresAPIKey(t *testing.T) {
	cfg := ai.NewConfig(ai.WithSegmenter(ai.SegmenterGemini, "gemini-2.5-flash"))
	_, err := NewSegmenter(context.Background(), cfg)
	assert.ErrorIs(t, err, ai.ErrInvalidConfig)
}
