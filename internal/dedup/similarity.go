package dedup

import (
	"strings"
	"unicode/utf8"

	"github.com/agext/levenshtein"
)

// Similarity returns 1 - levenshtein(a, b) / max(len(a), len(b)) over the
// lower-cased, trimmed names, measured in runes. Identical strings, including
// two empty strings, score 1.
func Similarity(a, b string) float64 {
	s1 := strings.ToLower(strings.TrimSpace(a))
	s2 := strings.ToLower(strings.TrimSpace(b))

	if s1 == s2 {
		return 1
	}

	maxLen := max(utf8.RuneCountInString(s1), utf8.RuneCountInString(s2))
	return 1 - float64(levenshtein.Distance(s1, s2, nil))/float64(maxLen)
}
