package records

import (
	"strings"
	"time"

	"github.com/ledgerline/mdm/pkg/errors"
)

// DuplicateStatus is the review status of a persisted duplicate candidate.
type DuplicateStatus string

// Duplicate statuses.
const (
	DuplicateOpen            DuplicateStatus = "open"
	DuplicateIgnored         DuplicateStatus = "ignored"
	DuplicateMergeInProgress DuplicateStatus = "merge_in_progress"
	DuplicateMerged          DuplicateStatus = "merged"
)

var duplicateTransitions = map[DuplicateStatus][]DuplicateStatus{
	DuplicateOpen:            {DuplicateIgnored, DuplicateMergeInProgress},
	DuplicateMergeInProgress: {DuplicateMerged, DuplicateOpen},
}

// Terminal reports whether no further transition is possible.
func (s DuplicateStatus) Terminal() bool {
	return len(duplicateTransitions[s]) == 0
}

// Duplicate is a persisted match result awaiting steward review.
type Duplicate struct {
	ID           string          `json:"id" yaml:"id"`
	RecordType   RecordType      `json:"record_type" yaml:"record_type"`
	IDA          string          `json:"id_a" yaml:"id_a"`
	IDB          string          `json:"id_b" yaml:"id_b"`
	MatchScore   float64         `json:"match_score" yaml:"match_score"`
	Reasons      []MatchReason   `json:"reasons,omitempty" yaml:"reasons,omitempty"`
	Status       DuplicateStatus `json:"status" yaml:"status"`
	IgnoredBy    string          `json:"ignored_by,omitempty" yaml:"ignored_by,omitempty"`
	IgnoreReason string          `json:"ignore_reason,omitempty" yaml:"ignore_reason,omitempty"`
	MergeJobID   string          `json:"merge_job_id,omitempty" yaml:"merge_job_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at" yaml:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" yaml:"updated_at"`
}

// PairKey identifies an unordered record pair.
func PairKey(idA, idB string) string {
	if idB < idA {
		idA, idB = idB, idA
	}
	return idA + "|" + idB
}

// Key returns the unordered pair key of the duplicate.
func (d *Duplicate) Key() string {
	return PairKey(d.IDA, d.IDB)
}

// Involves reports whether the duplicate references the record id.
func (d *Duplicate) Involves(id string) bool {
	return d.IDA == id || d.IDB == id
}

// Transition moves the duplicate to a new status if the lifecycle allows it.
func (d *Duplicate) Transition(to DuplicateStatus, at time.Time) error {
	for _, next := range duplicateTransitions[d.Status] {
		if next == to {
			d.Status = to
			d.UpdatedAt = at
			return nil
		}
	}
	return errors.NewTransitionError("duplicate", d.ID, string(d.Status), string(to))
}

// Ignore marks the pair as not a duplicate. A reason is required.
func (d *Duplicate) Ignore(by, reason string, at time.Time) error {
	if strings.TrimSpace(reason) == "" {
		return errors.NewValidationError("ignore_reason", reason, "a reason is required to ignore a duplicate")
	}
	if err := d.Transition(DuplicateIgnored, at); err != nil {
		return err
	}
	d.IgnoredBy = by
	d.IgnoreReason = reason
	return nil
}

// StartMerge links the duplicate to a merge job.
func (d *Duplicate) StartMerge(jobID string, at time.Time) error {
	if err := d.Transition(DuplicateMergeInProgress, at); err != nil {
		return err
	}
	d.MergeJobID = jobID
	return nil
}

// Clone returns a deep copy of the duplicate.
func (d *Duplicate) Clone() *Duplicate {
	if d == nil {
		return nil
	}
	out := *d
	if d.Reasons != nil {
		out.Reasons = make([]MatchReason, len(d.Reasons))
		for i, r := range d.Reasons {
			r.ValueA = CloneValue(r.ValueA)
			r.ValueB = CloneValue(r.ValueB)
			out.Reasons[i] = r
		}
	}
	return &out
}
