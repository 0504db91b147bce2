package kagome

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmenter_DropsPunctuation(t *testing.T) {
	seg, err := NewSegmenter()
	require.NoError(t, err)

	units, err := seg.Segment(context.Background(), "蘋果。")
	require.NoError(t, err)
	assert.Equal(t, "蘋果", strings.Join(units, ""))
	assert.NotContains(t, units, "。")
}

func TestSegmenter_KeepsSurfaceOrder(t *testing.T) {
	seg, err := NewSegmenter()
	require.NoError(t, err)

	units, err := seg.Segment(context.Background(), "学校 先生")
	require.NoError(t, err)
	require.NotEmpty(t, units)
	joined := strings.Join(units, "")
	assert.Less(t, strings.Index(joined, "学校"), strings.Index(joined, "先生"))
}

func TestSegmenter_VocabularyKeepsChineseWordsWhole(t *testing.T) {
	seg, err := NewSegmenter(WithVocabulary([]string{"喜歡", "蘋果", "今天", "天氣", "蘋果", " ", "。"}))
	require.NoError(t, err)

	tests := []struct {
		sentence string
		want     []string
	}{
		{"我喜歡吃蘋果", []string{"喜歡", "蘋果"}},
		{"今天天氣很好。", []string{"今天", "天氣"}},
	}
	for _, tt := range tests {
		units, err := seg.Segment(context.Background(), tt.sentence)
		require.NoError(t, err)
		for _, word := range tt.want {
			assert.Contains(t, units, word, tt.sentence)
		}
		assert.Equal(t, strings.TrimSuffix(tt.sentence, "。"), strings.Join(units, ""), "no characters are lost")
	}
}

func TestUserRecords(t *testing.T) {
	records := userRecords([]string{"蘋果", " 蘋果 ", "", "我 你", "？！", "電腦"})
	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Text
		assert.Equal(t, []string{r.Text}, r.Tokens)
		assert.Equal(t, vocabularyPOS, r.Pos)
	}
	assert.Equal(t, []string{"蘋果", "電腦"}, texts)
}

func TestSegmenter_EmptyInput(t *testing.T) {
	seg, err := NewSegmenter()
	require.NoError(t, err)

	for _, input := range []string{"", "   ", "，。！？"} {
		units, err := seg.Segment(context.Background(), input)
		require.NoError(t, err)
		assert.Empty(t, units, "input %q", input)
	}
}

func TestSegmenter_CanceledContext(t *testing.T) {
	seg, err := NewSegmenter()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = seg.Segment(ctx, "蘋果")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDropped(t *testing.T) {
	tests := []struct {
		surface  string
		features []string
		want     bool
	}{
		{"的", nil, true},
		{"。", nil, true},
		{"...", []string{"名詞"}, true},
		{"蘋果", []string{"名詞"}, false},
		{"★", []string{symbolPOS}, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, dropped(tt.surface, tt.features), tt.surface)
	}
}
