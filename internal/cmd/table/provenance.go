package table

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/ledgerline/mdm/internal/matcher"
	"github.com/ledgerline/mdm/pkg/provenance"
)

// ProvenanceToTableData shows every survivorship decision recorded for a
// record, newest first per field. Only fields matching one of patterns are
// shown; no patterns shows all.
func ProvenanceToTableData(fieldProvenance map[string][]provenance.Provenance, patterns []string, now time.Time) Data {
	var rows [][]string
	for _, field := range sortedKeys(fieldProvenance) {
		history := fieldProvenance[field]
		if len(history) == 0 || !MatchField(field, patterns) {
			continue
		}

		sorted := make([]provenance.Provenance, len(history))
		copy(sorted, history)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Timestamp.After(sorted[j].Timestamp)
		})

		for i, entry := range sorted {
			name, current := "", ""
			if i == 0 {
				name, current = field, "→"
			}
			rows = append(rows, []string{
				name,
				current,
				formatValueAsYAML(entry.Value),
				entry.Source,
				entry.Rule,
				fmt.Sprintf("%d", entry.Confidence),
				FormatTime(entry.AsOf),
				FormatAge(entry.Timestamp, now),
				entry.Reason,
			})
		}
	}

	return Data{
		Headers: []string{"Field", "Curr", "Value", "Source", "Rule", "Confidence", "As Of", "When", "Reason"},
		Rows:    rows,
		ColumnAlignment: []Align{
			AlignLeft,   // Field
			AlignCenter, // Curr
			AlignLeft,   // Value
			AlignLeft,   // Source
			AlignLeft,   // Rule
			AlignRight,  // Confidence
			AlignLeft,   // As Of
			AlignLeft,   // When
			AlignLeft,   // Reason
		},
	}
}

// MatchField reports whether field matches any pattern, case-insensitively.
// Patterns are globs or regexes; "address.*" also matches "address" itself.
// No patterns matches everything.
func MatchField(field string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	opts := &matcher.Options{CaseInsensitive: true, Anchored: true}
	for _, pattern := range patterns {
		if m, err := matcher.New(matcher.Auto, pattern, opts); err == nil && m.Match(field) {
			return true
		}
		if prefix, ok := strings.CutSuffix(pattern, ".*"); ok && strings.EqualFold(field, prefix) {
			return true
		}
	}
	return false
}

// formatValueAsYAML keeps scalars as-is and renders nested values as YAML.
func formatValueAsYAML(val any) string {
	switch v := val.(type) {
	case nil:
		return "<nil>"
	case string:
		if v == "" {
			return "<empty>"
		}
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%.2f", v)
	case int, int64, bool:
		return fmt.Sprintf("%v", v)
	}

	out, err := yaml.Marshal(val)
	if err != nil {
		return fmt.Sprintf("%v", val)
	}
	return strings.TrimSuffix(string(out), "\n")
}
