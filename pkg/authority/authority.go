// Package authority ranks source systems by how much their values are
// trusted. Survivorship picks the value from the highest ranked source; a
// per-field table lets specific fields trust a different ordering.
package authority

import (
	"path/filepath"
	"strings"
)

// Source systems known to the back office, most trusted first.
const (
	ManualEntry    = "manual_entry"
	CustodianAPI   = "custodian_api"
	BankFeed       = "bank_feed"
	Bloomberg      = "bloomberg"
	Refinitiv      = "refinitiv"
	InternalSystem = "internal_system"
	LegacyImport   = "legacy_import"
)

// Merge tags prefixed to source systems while a merge plan is built.
const (
	PrimaryTag   = "primary:"
	SecondaryTag = "secondary:"
)

// DefaultSourcePriority is the global source ordering.
func DefaultSourcePriority() []string {
	return []string{ManualEntry, CustodianAPI, BankFeed, Bloomberg, Refinitiv, InternalSystem, LegacyImport}
}

// BaseSource strips a merge tag from a source system name.
func BaseSource(source string) string {
	for _, tag := range []string{PrimaryTag, SecondaryTag} {
		if strings.HasPrefix(source, tag) {
			return strings.TrimPrefix(source, tag)
		}
	}
	return source
}

// Ranking maps source systems to their position in a priority list.
type Ranking struct {
	order []string
	index map[string]int
}

// NewRanking builds a ranking from a priority list. An empty list falls
// back to DefaultSourcePriority.
func NewRanking(order []string) *Ranking {
	if len(order) == 0 {
		order = DefaultSourcePriority()
	}
	r := &Ranking{order: append([]string(nil), order...), index: make(map[string]int, len(order))}
	for i, s := range order {
		if _, dup := r.index[s]; !dup {
			r.index[s] = i
		}
	}
	return r
}

// Rank returns the position of source in the list; lower is more trusted.
// Unknown sources rank after every listed one. Merge tags are ignored.
func (r *Ranking) Rank(source string) int {
	if i, ok := r.index[BaseSource(source)]; ok {
		return i
	}
	return len(r.order)
}

// Order returns a copy of the priority list.
func (r *Ranking) Order() []string {
	return append([]string(nil), r.order...)
}

// Field assigns a priority list to a field path or pattern.
type Field struct {
	Path    string   `json:"path" yaml:"path"`       // e.g. "email", "address.*", "*"
	Sources []string `json:"sources" yaml:"sources"` // most trusted first
}

// ByField returns the most specific authority whose pattern matches the
// field: an exact path wins over a pattern, a longer pattern over a shorter
// one, and earlier entries win ties.
func ByField(fieldPath string, authorities []Field) *Field {
	var best *Field
	bestScore := -1
	for i, auth := range authorities {
		if !MatchesPattern(fieldPath, auth.Path) {
			continue
		}
		score := len(auth.Path)
		if auth.Path == fieldPath {
			score += 1 << 16
		}
		if score > bestScore {
			best = &authorities[i]
			bestScore = score
		}
	}
	return best
}

// MatchesPattern checks if a field path matches a pattern (supports * wildcards)
func MatchesPattern(fieldPath, pattern string) bool {
	if fieldPath == pattern {
		return true
	}

	if len(pattern) > 0 && pattern[len(pattern)-1] == '*' {
		prefix := pattern[:len(pattern)-1]
		return strings.HasPrefix(fieldPath, prefix)
	}

	matched, err := filepath.Match(pattern, fieldPath)
	if err != nil {
		return false
	}
	return matched
}
