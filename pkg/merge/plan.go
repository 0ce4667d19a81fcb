// Package merge plans, validates and applies the merge of secondary golden
// records into a primary one.
//
// The engine is pure: Apply computes the complete write set (new golden
// record, retired secondaries, applied job, audit events) without touching
// its inputs. Persisting the write set atomically is the caller's job.
package merge

import (
	"sort"

	"github.com/ledgerline/mdm/pkg/authority"
	"github.com/ledgerline/mdm/pkg/golden"
	"github.com/ledgerline/mdm/pkg/records"
	"github.com/ledgerline/mdm/pkg/survivorship"
)

// Conflict is a field whose candidates disagree.
type Conflict struct {
	Field  string          `json:"field" yaml:"field"`
	Values []records.Value `json:"values" yaml:"values"`
}

// Plan is the proposed outcome of a merge.
type Plan struct {
	SurvivorshipPlan map[string]records.PlanEntry          `json:"survivorship_plan" yaml:"survivorship_plan"`
	Decisions        map[string]survivorship.FieldDecision `json:"decisions" yaml:"decisions"`
	Conflicts        []Conflict                            `json:"conflicts" yaml:"conflicts"`
}

// CreatePlan proposes the merged golden values. Snapshots are tagged
// "primary:" or "secondary:" so decisions show where each value came from;
// only the primary's overrides are honoured.
func CreatePlan(primary *records.Record, secondaries []*records.Record, rules *survivorship.RuleSet) *Plan {
	var sources []records.SourceSnapshot
	sources = append(sources, tagged(primary, authority.PrimaryTag)...)
	for _, s := range secondaries {
		sources = append(sources, tagged(s, authority.SecondaryTag)...)
	}

	var overrides map[string]records.Override
	if primary != nil {
		overrides = primary.Overrides
	}
	res := golden.Build(sources, overrides, rules)

	plan := &Plan{
		SurvivorshipPlan: make(map[string]records.PlanEntry, len(res.Decisions)),
		Decisions:        res.Decisions,
		Conflicts:        []Conflict{},
	}
	for _, field := range res.Fields() {
		d := res.Decisions[field]
		plan.SurvivorshipPlan[field] = records.PlanEntry{
			Value:      d.ChosenValue,
			Source:     d.ChosenSource,
			Rule:       string(d.Rule),
			Confidence: d.Confidence,
		}
		if c, ok := conflictFor(d); ok {
			plan.Conflicts = append(plan.Conflicts, c)
		}
	}
	sort.Slice(plan.Conflicts, func(i, j int) bool {
		return plan.Conflicts[i].Field < plan.Conflicts[j].Field
	})
	return plan
}

func tagged(r *records.Record, tag string) []records.SourceSnapshot {
	if r == nil {
		return nil
	}
	out := make([]records.SourceSnapshot, 0, len(r.Sources))
	for _, s := range r.Sources {
		c := s.Clone()
		c.SourceSystem = tag + s.SourceSystem
		out = append(out, c)
	}
	return out
}

// conflictFor lists the chosen value followed by each distinct alternative
// that differs from it.
func conflictFor(d survivorship.FieldDecision) (Conflict, bool) {
	values := []records.Value{d.ChosenValue}
	for _, alt := range d.Alternatives {
		dup := false
		for _, v := range values {
			if records.Equal(v, alt.Value) {
				dup = true
				break
			}
		}
		if !dup {
			values = append(values, alt.Value)
		}
	}
	if len(values) < 2 {
		return Conflict{}, false
	}
	return Conflict{Field: d.Field, Values: values}, true
}
