package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignSequence(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected []string
	}{
		{"plain array", `["蘋果","我","喜歡"]`, []string{"蘋果", "我", "喜歡"}},
		{"surrounding whitespace", "  [\"明天\", \"學校\"]\n", []string{"明天", "學校"}},
		{"json code fence", "```json\n[\"你\",\"名字\",\"什麼\"]\n```", []string{"你", "名字", "什麼"}},
		{"bare code fence", "```\n[\"他\"]\n```", []string{"他"}},
		{"blank entries dropped", `["下雨", " ", "", "他"]`, []string{"下雨", "他"}},
		{"entries trimmed", `[" 不 "]`, []string{"不"}},
		{"empty array", `[]`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			units, err := ParseSignSequence(tt.response)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, units)
		})
	}
}

func TestParseSignSequence_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"empty", ""},
		{"prose", "The sign order is 蘋果 我 喜歡"},
		{"prose around array", `Sure! ["蘋果","我"]`},
		{"object", `{"units":["蘋果"]}`},
		{"number element", `["蘋果", 1]`},
		{"nested array", `[["蘋果"]]`},
		{"null element", `["蘋果", null]`},
		{"truncated", `["蘋果","我"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			units, err := ParseSignSequence(tt.response)
			assert.ErrorIs(t, err, ErrMalformedSequence)
			assert.Nil(t, units)
		})
	}
}

func TestCleanSentence(t *testing.T) {
	assert.Equal(t, "我 喜歡蘋果", CleanSentence("  我 \t喜歡蘋果\n"))
	assert.Equal(t, "", CleanSentence(" \n "))
}
