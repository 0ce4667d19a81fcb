package records

import (
	"time"

	"github.com/ledgerline/mdm/pkg/errors"
)

// JobStatus is the status of a merge job.
type JobStatus string

// Merge job statuses.
const (
	JobDraft           JobStatus = "draft"
	JobPendingApproval JobStatus = "pending_approval"
	JobApplied         JobStatus = "applied"
	JobCancelled       JobStatus = "cancelled"
)

var jobTransitions = map[JobStatus][]JobStatus{
	JobDraft:           {JobPendingApproval, JobCancelled},
	JobPendingApproval: {JobApplied, JobCancelled},
}

// PlanEntry is the value a merge will write for one field.
type PlanEntry struct {
	Value      Value  `json:"value" yaml:"value"`
	Source     string `json:"source" yaml:"source"`
	Rule       string `json:"rule" yaml:"rule"`
	Confidence int    `json:"confidence" yaml:"confidence"`
}

// MergeJob is a proposed merge of secondaries into a primary golden record.
type MergeJob struct {
	ID               string               `json:"id" yaml:"id"`
	RecordType       RecordType           `json:"record_type" yaml:"record_type"`
	PrimaryID        string               `json:"primary_id" yaml:"primary_id"`
	SecondaryIDs     []string             `json:"secondary_ids" yaml:"secondary_ids"`
	SurvivorshipPlan map[string]PlanEntry `json:"survivorship_plan" yaml:"survivorship_plan"`
	Status           JobStatus            `json:"status" yaml:"status"`
	RequestedBy      string               `json:"requested_by,omitempty" yaml:"requested_by,omitempty"`
	ApprovedBy       string               `json:"approved_by,omitempty" yaml:"approved_by,omitempty"`
	ApprovedAt       *time.Time           `json:"approved_at,omitempty" yaml:"approved_at,omitempty"`
	AppliedAt        *time.Time           `json:"applied_at,omitempty" yaml:"applied_at,omitempty"`
	CreatedAt        time.Time            `json:"created_at" yaml:"created_at"`
}

// RecordIDs returns the primary id followed by the secondary ids.
func (j *MergeJob) RecordIDs() []string {
	return append([]string{j.PrimaryID}, j.SecondaryIDs...)
}

// Transition moves the job forward if the lifecycle allows it.
func (j *MergeJob) Transition(to JobStatus, at time.Time) error {
	for _, next := range jobTransitions[j.Status] {
		if next != to {
			continue
		}
		j.Status = to
		if to == JobApplied {
			applied := at
			j.AppliedAt = &applied
		}
		return nil
	}
	return errors.NewTransitionError("merge_job", j.ID, string(j.Status), string(to))
}

// Approve stamps the approver on a job awaiting approval.
func (j *MergeJob) Approve(by string, at time.Time) error {
	if j.Status != JobPendingApproval {
		return errors.NewTransitionError("merge_job", j.ID, string(j.Status), "approved")
	}
	approved := at
	j.ApprovedBy = by
	j.ApprovedAt = &approved
	return nil
}

// Clone returns a deep copy of the job.
func (j *MergeJob) Clone() *MergeJob {
	if j == nil {
		return nil
	}
	out := *j
	out.SecondaryIDs = append([]string(nil), j.SecondaryIDs...)
	if j.SurvivorshipPlan != nil {
		out.SurvivorshipPlan = make(map[string]PlanEntry, len(j.SurvivorshipPlan))
		for k, e := range j.SurvivorshipPlan {
			e.Value = CloneValue(e.Value)
			out.SurvivorshipPlan[k] = e
		}
	}
	if j.ApprovedAt != nil {
		t := *j.ApprovedAt
		out.ApprovedAt = &t
	}
	if j.AppliedAt != nil {
		t := *j.AppliedAt
		out.AppliedAt = &t
	}
	return &out
}
