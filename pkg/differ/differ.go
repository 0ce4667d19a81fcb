// Package differ compares golden records: a side-by-side view of two
// records for steward review, and field-level changesets between two
// versions of the same record for audit details.
package differ

import (
	"sort"

	"github.com/ledgerline/mdm/pkg/records"
)

// Differ handles change detection between records.
type Differ interface {
	// Compare builds a side-by-side view of two records' chosen values
	Compare(a, b *records.Record) *Comparison

	// Changes lists chosen-value changes between two versions of a record
	Changes(before, after *records.Record) []FieldChange

	// Records compares two sets of records by id
	Records(existing, updated []*records.Record) *Changeset
}

// differ is the default implementation of Differ.
type differ struct {
	ignoreFields map[string]bool
}

// Option is a functional option for configuring a Differ.
type Option func(*differ)

// WithIgnoredFields sets fields to ignore during comparison.
func WithIgnoredFields(fields ...string) Option {
	return func(d *differ) {
		for _, field := range fields {
			d.ignoreFields[field] = true
		}
	}
}

// New creates a Differ with default settings.
func New(opts ...Option) Differ {
	d := &differ{ignoreFields: make(map[string]bool)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// FieldComparison is one row of a comparison view.
type FieldComparison struct {
	Field  string        `json:"field" yaml:"field"`
	ValueA records.Value `json:"value_a" yaml:"value_a"`
	ValueB records.Value `json:"value_b" yaml:"value_b"`
	Match  bool          `json:"match" yaml:"match"`
}

// Comparison is the side-by-side view of two records.
type Comparison struct {
	IDA    string            `json:"id_a" yaml:"id_a"`
	IDB    string            `json:"id_b" yaml:"id_b"`
	Fields []FieldComparison `json:"fields" yaml:"fields"`
}

// Mismatches counts the fields whose values differ.
func (c *Comparison) Mismatches() int {
	n := 0
	for _, f := range c.Fields {
		if !f.Match {
			n++
		}
	}
	return n
}

// Compare lists the union of both records' chosen fields, mismatches first
// and then alphabetically. Strings match case-insensitively.
func Compare(a, b *records.Record) *Comparison {
	return New().Compare(a, b)
}

func (d *differ) Compare(a, b *records.Record) *Comparison {
	cmp := &Comparison{IDA: a.ID, IDB: b.ID, Fields: []FieldComparison{}}
	for _, field := range d.union(a.Chosen, b.Chosen) {
		va, vb := a.Get(field), b.Get(field)
		cmp.Fields = append(cmp.Fields, FieldComparison{
			Field:  field,
			ValueA: va,
			ValueB: vb,
			Match:  records.EqualFold(va, vb),
		})
	}
	sort.SliceStable(cmp.Fields, func(i, j int) bool {
		fi, fj := cmp.Fields[i], cmp.Fields[j]
		if fi.Match != fj.Match {
			return !fi.Match
		}
		return fi.Field < fj.Field
	})
	return cmp
}

func (d *differ) union(maps ...map[string]records.Value) []string {
	seen := make(map[string]struct{})
	for _, m := range maps {
		for k := range m {
			if !d.ignoreFields[k] {
				seen[k] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
