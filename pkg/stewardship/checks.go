// Package stewardship inspects golden records for data quality problems,
// scores them and turns the problems into a prioritized steward queue.
package stewardship

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ledgerline/mdm/internal/matcher"
	"github.com/ledgerline/mdm/pkg/constants"
	"github.com/ledgerline/mdm/pkg/logging"
	"github.com/ledgerline/mdm/pkg/records"
)

// Issue is one data quality problem found on a record.
type Issue struct {
	IssueType   records.IssueType `json:"issue_type" yaml:"issue_type"`
	Severity    records.Severity  `json:"severity" yaml:"severity"`
	Field       string            `json:"field,omitempty" yaml:"field,omitempty"`
	Description string            `json:"description" yaml:"description"`
	Details     map[string]any    `json:"details,omitempty" yaml:"details,omitempty"`
}

// Check is the outcome of inspecting one record.
type Check struct {
	RecordID   string             `json:"record_id" yaml:"record_id"`
	RecordType records.RecordType `json:"record_type" yaml:"record_type"`
	Issues     []Issue            `json:"issues" yaml:"issues"`
	CheckedAt  time.Time          `json:"checked_at" yaml:"checked_at"`
}

// Checker runs the quality checks.
type Checker struct {
	formats    *matcher.Formats
	now        func() time.Time
	staleAfter time.Duration
	newID      func() string
	logger     *zerolog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithClock sets the clock used for staleness and timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Checker) { c.now = now }
}

// WithStaleAfter sets how old a snapshot may be before it is flagged.
func WithStaleAfter(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.staleAfter = d
		}
	}
}

// WithFormats replaces the field format table.
func WithFormats(f *matcher.Formats) Option {
	return func(c *Checker) { c.formats = f }
}

// WithIDGenerator sets the queue item id generator.
func WithIDGenerator(fn func() string) Option {
	return func(c *Checker) { c.newID = fn }
}

// WithLogger sets the logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(c *Checker) { c.logger = l }
}

// NewChecker creates a Checker with the default formats and a 365 day
// staleness window.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		formats:    matcher.DefaultFormats(),
		now:        func() time.Time { return time.Now().UTC() },
		staleAfter: constants.StaleAfter,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrDefault(c.logger)
	return c
}

// CheckRecordQuality inspects a record with the default checker.
func CheckRecordQuality(rec *records.Record, rt records.RecordType) Check {
	return NewChecker().CheckRecordQuality(rec, rt)
}

// CheckRecordQuality inspects a record. Issues are grouped by check in a
// fixed order and sorted by field within each group.
func (c *Checker) CheckRecordQuality(rec *records.Record, rt records.RecordType) Check {
	now := c.now()
	check := Check{RecordType: rt, Issues: []Issue{}, CheckedAt: now}
	if rec == nil {
		return check
	}
	check.RecordID = rec.ID

	check.Issues = append(check.Issues, missingSource(rec)...)
	check.Issues = append(check.Issues, lowConfidence(rec)...)
	check.Issues = append(check.Issues, conflictingValues(rec)...)
	check.Issues = append(check.Issues, c.staleData(rec, now)...)
	check.Issues = append(check.Issues, c.invalidFormat(rec, rt)...)

	c.logger.Debug().
		Str("record_id", rec.ID).
		Str("record_type", string(rt)).
		Int("issues", len(check.Issues)).
		Msg("Quality check complete")
	return check
}

func missingSource(rec *records.Record) []Issue {
	var issues []Issue
	for _, field := range sortedFields(rec.Chosen) {
		if records.IsEmpty(rec.Chosen[field]) {
			continue
		}
		found := false
		for _, s := range rec.Sources {
			if s.Has(field) {
				found = true
				break
			}
		}
		if !found {
			issues = append(issues, Issue{
				IssueType:   records.IssueMissingSource,
				Severity:    records.SeverityMedium,
				Field:       field,
				Description: fmt.Sprintf("%s has a value but no source snapshot provides it", field),
				Details:     map[string]any{"value": records.CloneValue(rec.Chosen[field])},
			})
		}
	}
	return issues
}

func lowConfidence(rec *records.Record) []Issue {
	fields := make([]string, 0, len(rec.Confidence))
	for f := range rec.Confidence {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var issues []Issue
	for _, field := range fields {
		conf := rec.Confidence[field]
		if conf >= constants.LowConfidenceThreshold {
			continue
		}
		severity := records.SeverityMedium
		if conf < constants.VeryLowConfidenceThreshold {
			severity = records.SeverityHigh
		}
		issues = append(issues, Issue{
			IssueType:   records.IssueLowConfidence,
			Severity:    severity,
			Field:       field,
			Description: fmt.Sprintf("%s has low confidence (%d)", field, conf),
			Details:     map[string]any{"confidence": conf},
		})
	}
	return issues
}

func conflictingValues(rec *records.Record) []Issue {
	type seen struct {
		value   records.Value
		sources []string
	}
	byField := make(map[string][]*seen)
	for _, s := range rec.Sources {
		for field, v := range s.Fields {
			if records.IsEmpty(v) {
				continue
			}
			var hit *seen
			for _, existing := range byField[field] {
				if records.Equal(existing.value, v) {
					hit = existing
					break
				}
			}
			if hit == nil {
				hit = &seen{value: v}
				byField[field] = append(byField[field], hit)
			}
			hit.sources = append(hit.sources, s.SourceSystem)
		}
	}

	fields := make([]string, 0, len(byField))
	for f, values := range byField {
		if len(values) >= 2 {
			fields = append(fields, f)
		}
	}
	sort.Strings(fields)

	issues := make([]Issue, 0, len(fields))
	for _, field := range fields {
		values := make([]any, 0, len(byField[field]))
		sources := make([]any, 0, len(byField[field]))
		for _, s := range byField[field] {
			values = append(values, records.CloneValue(s.value))
			sources = append(sources, s.sources)
		}
		issues = append(issues, Issue{
			IssueType:   records.IssueConflictingValues,
			Severity:    records.SeverityHigh,
			Field:       field,
			Description: fmt.Sprintf("sources disagree on %s (%d distinct values)", field, len(values)),
			Details:     map[string]any{"values": values, "sources": sources},
		})
	}
	return issues
}

// staleData flags snapshots older than the staleness window. Snapshots
// without an as-of time are skipped.
func (c *Checker) staleData(rec *records.Record, now time.Time) []Issue {
	var issues []Issue
	for _, s := range rec.Sources {
		if s.AsOf.IsZero() {
			continue
		}
		age := now.Sub(s.AsOf)
		if age <= c.staleAfter {
			continue
		}
		days := int(age.Hours() / 24)
		issues = append(issues, Issue{
			IssueType:   records.IssueStaleData,
			Severity:    records.SeverityLow,
			Description: fmt.Sprintf("snapshot from %s is %d days old", s.SourceSystem, days),
			Details: map[string]any{
				"source_system": s.SourceSystem,
				"source_id":     s.SourceID,
				"as_of":         s.AsOf,
				"age_days":      days,
			},
		})
	}
	return issues
}

func (c *Checker) invalidFormat(rec *records.Record, rt records.RecordType) []Issue {
	var issues []Issue
	for _, f := range c.formats.For(rt) {
		v := rec.Chosen[f.Field]
		if records.IsEmpty(v) {
			continue
		}
		s := records.String(v)
		if f.Valid(s) {
			continue
		}
		issues = append(issues, Issue{
			IssueType:   records.IssueInvalidFormat,
			Severity:    f.Severity,
			Field:       f.Field,
			Description: f.Description,
			Details:     map[string]any{"value": s, "pattern": f.Pattern()},
		})
	}
	return issues
}

func sortedFields(m map[string]records.Value) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
