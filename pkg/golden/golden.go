// Package golden assembles golden records from source snapshots by running
// survivorship independently for every field.
package golden

import (
	"fmt"
	"sort"
	"time"

	"github.com/ledgerline/mdm/pkg/logging"
	"github.com/ledgerline/mdm/pkg/provenance"
	"github.com/ledgerline/mdm/pkg/records"
	"github.com/ledgerline/mdm/pkg/survivorship"
	"github.com/rs/zerolog"
)

// Result is the outcome of a golden record build.
type Result struct {
	Chosen     map[string]records.Value              `json:"chosen" yaml:"chosen"`
	Confidence map[string]int                        `json:"confidence" yaml:"confidence"`
	Decisions  map[string]survivorship.FieldDecision `json:"decisions" yaml:"decisions"`
}

// Fields returns the decided field names in sorted order.
func (r *Result) Fields() []string {
	out := make([]string, 0, len(r.Decisions))
	for f := range r.Decisions {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Build runs survivorship for every field seen in any snapshot plus every
// overridden field. Fields are decided independently of one another.
func Build(sources []records.SourceSnapshot, overrides map[string]records.Override, rules *survivorship.RuleSet) *Result {
	fields := make(map[string]struct{})
	for _, s := range sources {
		for f := range s.Fields {
			fields[f] = struct{}{}
		}
	}
	for f := range overrides {
		fields[f] = struct{}{}
	}
	names := make([]string, 0, len(fields))
	for f := range fields {
		names = append(names, f)
	}
	sort.Strings(names)

	res := &Result{
		Chosen:     make(map[string]records.Value, len(names)),
		Confidence: make(map[string]int, len(names)),
		Decisions:  make(map[string]survivorship.FieldDecision, len(names)),
	}
	for _, field := range names {
		var values []survivorship.SourceValue
		for _, s := range sources {
			v, ok := s.Fields[field]
			if !ok {
				continue
			}
			values = append(values, survivorship.SourceValue{
				Source:   s.SourceSystem,
				SourceID: s.SourceID,
				Value:    v,
				AsOf:     s.AsOf,
			})
		}

		var override *records.Override
		if o, ok := overrides[field]; ok {
			override = &o
		}

		d := survivorship.SelectValue(field, values, override, rules.For(field))
		res.Chosen[field] = d.ChosenValue
		res.Confidence[field] = d.Confidence
		res.Decisions[field] = d
	}
	return res
}

// Builder builds golden records and records provenance for each decision.
type Builder struct {
	rules   *survivorship.RuleSet
	tracker provenance.Tracker
	logger  *zerolog.Logger
	now     func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithTracker records every decision in t.
func WithTracker(t provenance.Tracker) Option {
	return func(b *Builder) { b.tracker = t }
}

// WithLogger sets the builder's logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithClock sets the clock used to stamp rebuilt records.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// NewBuilder creates a builder. A nil rule set uses survivorship defaults.
func NewBuilder(rules *survivorship.RuleSet, opts ...Option) *Builder {
	b := &Builder{
		rules:   rules,
		tracker: provenance.NewTracker(false),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = logging.OrDefault(b.logger)
	return b
}

// Rebuild returns a copy of rec with Chosen and Confidence recomputed from
// its snapshots and overrides. The input record is not modified.
func (b *Builder) Rebuild(rec *records.Record) (*records.Record, *Result) {
	res := Build(rec.Sources, rec.Overrides, b.rules)

	out := rec.Clone()
	out.Chosen = res.Chosen
	out.Confidence = res.Confidence
	out.UpdatedAt = b.now()

	b.track(rec.RecordType, rec.ID, res)
	b.logger.Debug().
		Str("record_id", rec.ID).
		Str("record_type", string(rec.RecordType)).
		Int("fields", len(res.Decisions)).
		Int("sources", len(rec.Sources)).
		Msg("Golden record rebuilt")

	return out, res
}

// Tracker returns the builder's provenance tracker.
func (b *Builder) Tracker() provenance.Tracker {
	return b.tracker
}

func (b *Builder) track(rt records.RecordType, id string, res *Result) {
	for _, field := range res.Fields() {
		d := res.Decisions[field]
		alts := make([]provenance.Alternative, 0, len(d.Alternatives))
		for _, a := range d.Alternatives {
			alts = append(alts, provenance.Alternative{Source: a.Source, Value: a.Value})
		}
		b.tracker.Track(rt, id, field, provenance.Provenance{
			Source:       d.ChosenSource,
			Value:        d.ChosenValue,
			AsOf:         d.ChosenAsOf,
			Rule:         string(d.Rule),
			Confidence:   d.Confidence,
			Reason:       fmt.Sprintf("selected by %s from %d candidate(s)", d.Rule, len(d.Alternatives)+1),
			Alternatives: alts,
		})
	}
}
