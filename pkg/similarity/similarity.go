// Package similarity provides the field-level comparison primitives used by
// the match engine: case- and whitespace-insensitive exact matching, and a
// normalised Levenshtein similarity for fuzzy fields.
package similarity

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/ledgerline/mdm/pkg/records"
)

// ExactMatch returns 1 when both values are present and equal after
// trimming and lower-casing their text form, otherwise 0.
func ExactMatch(a, b records.Value) float64 {
	if a == nil || b == nil {
		return 0
	}
	if fold(a) == fold(b) {
		return 1
	}
	return 0
}

// FuzzyMatch returns 1 - lev(a, b) / max(len(a), len(b)) over the trimmed,
// lower-cased text forms. Identical strings (including two empty ones)
// score 1; a missing value on either side scores 0.
func FuzzyMatch(a, b records.Value) float64 {
	if a == nil || b == nil {
		return 0
	}
	return Ratio(fold(a), fold(b))
}

// Ratio is the normalised Levenshtein similarity of two strings, in [0,1].
func Ratio(x, y string) float64 {
	if x == y {
		return 1
	}
	maxLen := utf8.RuneCountInString(x)
	if n := utf8.RuneCountInString(y); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(x, y)
	return 1 - float64(dist)/float64(maxLen)
}

func fold(v records.Value) string {
	return strings.ToLower(strings.TrimSpace(records.String(v)))
}
