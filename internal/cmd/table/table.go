// Package table converts MDM values into rows for tabular CLI output.
package table

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ledgerline/mdm/pkg/records"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// maxCell is the widest cell rendered before truncation in narrow mode.
const maxCell = 48

// FormatValue renders a field value for a cell; empty values become "-".
func FormatValue(v records.Value) string {
	if records.IsEmpty(v) {
		return "-"
	}
	return records.String(v)
}

// Truncate shortens s to n runes with a trailing ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 3 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// FormatScore renders a 0..1 score with two decimals.
func FormatScore(score float64) string {
	return fmt.Sprintf("%.2f", score)
}

// FormatTime renders a timestamp as a date, or "-" when unset.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

// FormatAge renders how long ago t was, relative to now.
func FormatAge(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func cell(s string, wide bool) string {
	if s == "" {
		return "-"
	}
	if wide {
		return s
	}
	return Truncate(s, maxCell)
}

func reasonFields(reasons []records.MatchReason) string {
	fields := make([]string, 0, len(reasons))
	for _, r := range reasons {
		fields = append(fields, r.Field)
	}
	return strings.Join(fields, ", ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
