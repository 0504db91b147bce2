package search

import (
	"strings"
	"unicode"
)

// normalizeQuery collapses whitespace and strips punctuation around the query,
// so "蘋果。" and " 蘋果 " embed like "蘋果".
func normalizeQuery(q string) string {
	q = strings.Join(strings.Fields(q), " ")
	return strings.TrimFunc(q, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}
