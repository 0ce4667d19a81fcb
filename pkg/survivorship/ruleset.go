package survivorship

import (
	"sort"
	"strings"

	"github.com/ledgerline/mdm/pkg/authority"
	"github.com/ledgerline/mdm/pkg/records"
)

// RuleSet maps field names or patterns ("*", "address.*") to rules. The
// most specific matching pattern applies.
type RuleSet struct {
	fields []authority.Field
	rules  map[string]Rule
}

// NewRuleSet creates an empty rule set.
func NewRuleSet() *RuleSet {
	return &RuleSet{rules: make(map[string]Rule)}
}

// Set assigns rule to a field pattern, replacing any previous rule for it.
func (s *RuleSet) Set(pattern string, rule Rule) *RuleSet {
	if s.rules == nil {
		s.rules = make(map[string]Rule)
	}
	if _, exists := s.rules[pattern]; !exists {
		s.fields = append(s.fields, authority.Field{Path: pattern})
	}
	for i := range s.fields {
		if s.fields[i].Path == pattern {
			s.fields[i].Sources = rule.SourcePriority
		}
	}
	s.rules[pattern] = rule
	return s
}

// For returns the rule that applies to field, or nil.
func (s *RuleSet) For(field string) *Rule {
	if s == nil {
		return nil
	}
	best := authority.ByField(field, s.fields)
	if best == nil {
		return nil
	}
	r := s.rules[best.Path]
	return &r
}

// Patterns lists configured patterns in sorted order.
func (s *RuleSet) Patterns() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.rules))
	for p := range s.rules {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (s *RuleSet) Clone() *RuleSet {
	out := NewRuleSet()
	if s == nil {
		return out
	}
	for _, f := range s.fields {
		out.Set(f.Path, s.rules[f.Path])
	}
	return out
}

// Built-in custom rules that configuration can reference by name.
const (
	CustomMostCommon = "most_common"
	CustomLongest    = "longest"
)

// CustomRules returns the built-in custom rules keyed by name.
func CustomRules() map[string]CustomRuleFunc {
	return map[string]CustomRuleFunc{
		CustomMostCommon: mostCommon,
		CustomLongest:    longest,
	}
}

// mostCommon picks the value reported by a strict majority of candidates.
func mostCommon(_ string, candidates []SourceValue) (records.Value, bool) {
	for _, c := range candidates {
		n := 0
		for _, o := range candidates {
			if records.EqualFold(c.Value, o.Value) {
				n++
			}
		}
		if n*2 > len(candidates) {
			return c.Value, true
		}
	}
	return nil, false
}

// longest picks the longest string value; useful for names and addresses
// where feeds truncate.
func longest(_ string, candidates []SourceValue) (records.Value, bool) {
	var best records.Value
	bestLen := -1
	for _, c := range candidates {
		s, ok := c.Value.(string)
		if !ok {
			return nil, false
		}
		if n := len(strings.TrimSpace(s)); n > bestLen {
			best, bestLen = c.Value, n
		}
	}
	return best, bestLen >= 0
}
