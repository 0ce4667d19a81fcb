package merge

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/mdm/pkg/differ"
	"github.com/ledgerline/mdm/pkg/records"
)

// Result is the write set produced by a merge. On failure only Success
// and Errors are set.
type Result struct {
	Success       bool                 `json:"success" yaml:"success"`
	Errors        []string             `json:"errors" yaml:"errors"`
	GoldenRecord  *records.Record      `json:"golden_record,omitempty" yaml:"golden_record,omitempty"`
	MergedRecords []*records.Record    `json:"merged_records,omitempty" yaml:"merged_records,omitempty"`
	Job           *records.MergeJob    `json:"job,omitempty" yaml:"job,omitempty"`
	AuditEvents   []records.AuditEvent `json:"audit_events,omitempty" yaml:"audit_events,omitempty"`
}

// Option configures Apply.
type Option func(*applier)

type applier struct {
	now   func() time.Time
	newID func() string
	actor string
}

// WithClock sets the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *applier) { a.now = now }
}

// WithIDGenerator sets the audit event id generator.
func WithIDGenerator(fn func() string) Option {
	return func(a *applier) { a.newID = fn }
}

// WithActor records who applied the merge on the audit events.
func WithActor(actor string) Option {
	return func(a *applier) { a.actor = actor }
}

func failed(errs ...string) Result {
	return Result{Success: false, Errors: errs}
}

// Apply validates the job and computes the merge write set. The primary
// keeps its id and receives the plan's values and confidences plus the
// union of all snapshots; every secondary is marked merged into the
// primary; the job becomes applied. Inputs are never modified, and either
// the whole write set is returned or none of it.
func Apply(job *records.MergeJob, primary *records.Record, secondaries []*records.Record, opts ...Option) Result {
	a := applier{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&a)
	}

	if v := Validate(job, primary, secondaries); !v.Valid {
		return failed(v.Errors...)
	}

	now := a.now()

	appliedJob := job.Clone()
	if err := appliedJob.Transition(records.JobApplied, now); err != nil {
		return failed(err.Error())
	}

	merged := primary.Clone()
	merged.Chosen = make(map[string]records.Value, len(job.SurvivorshipPlan))
	merged.Confidence = make(map[string]int, len(job.SurvivorshipPlan))
	for field, entry := range job.SurvivorshipPlan {
		if entry.Confidence < 0 || entry.Confidence > 100 {
			return failed(fmt.Sprintf("plan entry for %s has confidence %d outside 0-100", field, entry.Confidence))
		}
		merged.Chosen[field] = records.CloneValue(entry.Value)
		merged.Confidence[field] = entry.Confidence
	}
	merged.Sources = unionSources(primary, secondaries)
	if merged.Status == records.StatusPendingReview || merged.Status == "" {
		merged.Status = records.StatusActive
	}
	merged.UpdatedAt = now
	merged.Version++

	retired := make([]*records.Record, 0, len(secondaries))
	secondaryIDs := make([]string, 0, len(secondaries))
	for _, s := range secondaries {
		r := s.Clone()
		r.Status = records.StatusMerged
		r.MergedIntoID = primary.ID
		r.UpdatedAt = now
		r.Version++
		retired = append(retired, r)
		secondaryIDs = append(secondaryIDs, s.ID)
	}

	events := make([]records.AuditEvent, 0, len(retired)+1)
	events = append(events, records.AuditEvent{
		ID:       a.newID(),
		Action:   records.AuditRecordMerged,
		RecordID: primary.ID,
		Actor:    a.actor,
		Summary:  fmt.Sprintf("Merged %d record(s) into %s", len(retired), primary.ID),
		Details: map[string]any{
			"job_id":        job.ID,
			"secondary_ids": secondaryIDs,
			"changes":       differ.Changes(primary, merged),
		},
		CreatedAt: now,
	})
	for _, r := range retired {
		events = append(events, records.AuditEvent{
			ID:       a.newID(),
			Action:   records.AuditRecordMergedInto,
			RecordID: r.ID,
			Actor:    a.actor,
			Summary:  fmt.Sprintf("Record %s merged into %s", r.ID, primary.ID),
			Details: map[string]any{
				"job_id":         job.ID,
				"merged_into_id": primary.ID,
			},
			CreatedAt: now,
		})
	}

	return Result{
		Success:       true,
		Errors:        []string{},
		GoldenRecord:  merged,
		MergedRecords: retired,
		Job:           appliedJob,
		AuditEvents:   events,
	}
}

// unionSources concatenates every snapshot, primary first, dropping exact
// repeats of the same source, id and as-of time.
func unionSources(primary *records.Record, secondaries []*records.Record) []records.SourceSnapshot {
	type key struct {
		system, id string
		asOf       time.Time
	}
	seen := make(map[key]bool)
	var out []records.SourceSnapshot
	add := func(r *records.Record) {
		for _, s := range r.Sources {
			k := key{s.SourceSystem, s.SourceID, s.AsOf}
			if s.SourceID != "" && seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, s.Clone())
		}
	}
	add(primary)
	for _, s := range secondaries {
		add(s)
	}
	return out
}
