package mdm

import (
	"context"
	"fmt"
	"time"

	"github.com/ledgerline/mdm/pkg/errors"
	"github.com/ledgerline/mdm/pkg/merge"
	"github.com/ledgerline/mdm/pkg/records"
	"github.com/ledgerline/mdm/pkg/store"
)

// PlanMerge builds a survivorship plan for merging secondaries into the
// primary and stores it as a draft job. Open duplicates between the records
// are moved to merge_in_progress and linked to the job.
func (c *client) PlanMerge(ctx context.Context, primaryID string, secondaryIDs []string, requestedBy string) (*records.MergeJob, *merge.Plan, error) {
	ctx, logger := c.operation(ctx, "plan_merge")

	unlock, err := c.store.Lock(ctx, append([]string{primaryID}, secondaryIDs...)...)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	primary, secondaries, err := c.loadMergeSet(ctx, primaryID, secondaryIDs)
	if err != nil {
		return nil, nil, err
	}

	plan := merge.CreatePlan(primary, secondaries, c.rules.RuleSet(primary.RecordType))
	job := &records.MergeJob{
		ID:               c.config.newID(),
		RecordType:       primary.RecordType,
		PrimaryID:        primaryID,
		SecondaryIDs:     append([]string(nil), secondaryIDs...),
		SurvivorshipPlan: plan.SurvivorshipPlan,
		Status:           records.JobDraft,
		RequestedBy:      requestedBy,
		CreatedAt:        c.config.now(),
	}

	// Validate as if submitted so a hopeless plan is refused up front.
	pending := job.Clone()
	pending.Status = records.JobPendingApproval
	if v := merge.Validate(pending, primary, secondaries); !v.Valid {
		return nil, nil, errors.NewMergeError(job.ID, primaryID, v.Errors, nil)
	}

	dups, err := c.linkedDuplicates(ctx, job, func(d *records.Duplicate) bool {
		return d.Status == records.DuplicateOpen
	})
	if err != nil {
		return nil, nil, err
	}
	for _, d := range dups {
		if err := d.StartMerge(job.ID, job.CreatedAt); err != nil {
			return nil, nil, err
		}
	}

	ws := store.WriteSet{Jobs: []*records.MergeJob{job}, Duplicates: dups}
	if err := c.store.Commit(ctx, ws); err != nil {
		return nil, nil, fmt.Errorf("committing merge plan: %w", err)
	}

	logger.Info().
		Str("job_id", job.ID).
		Str("primary_id", primaryID).
		Strs("secondary_ids", secondaryIDs).
		Int("conflicts", len(plan.Conflicts)).
		Msg("Merge planned")
	return job, plan, nil
}

// SubmitMerge moves a draft job to pending approval.
func (c *client) SubmitMerge(ctx context.Context, jobID, by string) (*records.MergeJob, error) {
	ctx, logger := c.operation(ctx, "submit_merge")

	job, unlock, err := c.lockJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	from := job.Status
	if err := job.Transition(records.JobPendingApproval, c.config.now()); err != nil {
		return nil, err
	}

	ws := store.WriteSet{
		Jobs: []*records.MergeJob{job},
		AuditEvents: []records.AuditEvent{c.event(records.AuditMergeJobSubmitted, job.PrimaryID, by,
			fmt.Sprintf("Submitted merge job %s for approval", job.ID),
			map[string]any{"job_id": job.ID, "secondary_ids": append([]string(nil), job.SecondaryIDs...)})},
	}
	ws.ExpectJob(job.ID, from)
	if err := c.store.Commit(ctx, ws); err != nil {
		return nil, fmt.Errorf("committing submitted job: %w", err)
	}

	logger.Info().Str("job_id", job.ID).Msg("Merge submitted")
	return job, nil
}

// CancelMerge cancels a draft or pending job and reopens the duplicates it
// had claimed.
func (c *client) CancelMerge(ctx context.Context, jobID, by string) (*records.MergeJob, error) {
	ctx, logger := c.operation(ctx, "cancel_merge")

	job, unlock, err := c.lockJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	from := job.Status
	now := c.config.now()
	if err := job.Transition(records.JobCancelled, now); err != nil {
		return nil, err
	}

	dups, err := c.linkedDuplicates(ctx, job, func(d *records.Duplicate) bool {
		return d.Status == records.DuplicateMergeInProgress && d.MergeJobID == job.ID
	})
	if err != nil {
		return nil, err
	}
	for _, d := range dups {
		if err := d.Transition(records.DuplicateOpen, now); err != nil {
			return nil, err
		}
		d.MergeJobID = ""
	}

	ws := store.WriteSet{
		Jobs:       []*records.MergeJob{job},
		Duplicates: dups,
		AuditEvents: []records.AuditEvent{c.event(records.AuditMergeJobCancelled, job.PrimaryID, by,
			fmt.Sprintf("Cancelled merge job %s", job.ID),
			map[string]any{"job_id": job.ID})},
	}
	ws.ExpectJob(job.ID, from)
	if err := c.store.Commit(ctx, ws); err != nil {
		return nil, fmt.Errorf("committing cancelled job: %w", err)
	}

	logger.Info().Str("job_id", job.ID).Int("reopened", len(dups)).Msg("Merge cancelled")
	return job, nil
}

// ApplyMerge approves and applies a pending job. The records involved are
// locked for the duration; the new golden record, retired secondaries,
// applied job, resolved duplicates and audit events are committed together
// or not at all. A job that fails validation yields a result with Success
// false and a nil error.
func (c *client) ApplyMerge(ctx context.Context, jobID, approvedBy string) (*merge.Result, error) {
	ctx, logger := c.operation(ctx, "apply_merge")

	job, unlock, err := c.lockJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	from := job.Status
	primary, err := c.optionalRecord(ctx, job.PrimaryID)
	if err != nil {
		return nil, err
	}
	secondaries := make([]*records.Record, 0, len(job.SecondaryIDs))
	for _, id := range job.SecondaryIDs {
		rec, err := c.optionalRecord(ctx, id)
		if err != nil {
			return nil, err
		}
		secondaries = append(secondaries, rec)
	}

	now := c.config.now()
	if job.Status == records.JobPendingApproval {
		if err := job.Approve(approvedBy, now); err != nil {
			return nil, err
		}
	}

	res := merge.Apply(job, primary, secondaries,
		merge.WithClock(func() time.Time { return now }),
		merge.WithIDGenerator(c.config.newID),
		merge.WithActor(approvedBy),
	)
	if !res.Success {
		logger.Warn().
			Str("job_id", job.ID).
			Strs("errors", res.Errors).
			Msg("Merge rejected")
		return &res, nil
	}

	dups, err := c.linkedDuplicates(ctx, job, func(d *records.Duplicate) bool {
		return d.Status == records.DuplicateOpen ||
			(d.Status == records.DuplicateMergeInProgress && d.MergeJobID == job.ID)
	})
	if err != nil {
		return nil, err
	}
	for _, d := range dups {
		if d.Status == records.DuplicateOpen {
			if err := d.StartMerge(job.ID, now); err != nil {
				return nil, err
			}
		}
		if err := d.Transition(records.DuplicateMerged, now); err != nil {
			return nil, err
		}
	}

	ws := store.WriteSet{
		Records:     append([]*records.Record{res.GoldenRecord}, res.MergedRecords...),
		Jobs:        []*records.MergeJob{res.Job},
		Duplicates:  dups,
		AuditEvents: res.AuditEvents,
	}
	ws.ExpectJob(job.ID, from)
	ws.Expect(primary)
	for _, s := range secondaries {
		ws.Expect(s)
	}
	if err := c.store.Commit(ctx, ws); err != nil {
		logger.Error().Err(err).Str("job_id", job.ID).Msg("Merge commit failed")
		return nil, errors.NewMergeError(job.ID, job.PrimaryID, nil, err)
	}

	logger.Info().
		Str("job_id", job.ID).
		Str("primary_id", job.PrimaryID).
		Int("merged", len(res.MergedRecords)).
		Int("duplicates_resolved", len(dups)).
		Msg("Merge applied")

	c.recordMerged(&res)
	return &res, nil
}

// lockJob locks the records of a job and returns the job as stored once
// the locks are held. Every job transition goes through here, so a job
// moves through its lifecycle one step at a time.
func (c *client) lockJob(ctx context.Context, jobID string) (*records.MergeJob, func(), error) {
	job, err := c.store.Job(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	unlock, err := c.store.Lock(ctx, job.RecordIDs()...)
	if err != nil {
		return nil, nil, err
	}
	// The job may have moved on while we waited.
	if job, err = c.store.Job(ctx, jobID); err != nil {
		unlock()
		return nil, nil, err
	}
	return job, unlock, nil
}

// loadMergeSet loads the primary and secondaries, failing on the first
// missing record.
func (c *client) loadMergeSet(ctx context.Context, primaryID string, secondaryIDs []string) (*records.Record, []*records.Record, error) {
	primary, err := c.store.Record(ctx, primaryID)
	if err != nil {
		return nil, nil, err
	}
	secondaries := make([]*records.Record, 0, len(secondaryIDs))
	for _, id := range secondaryIDs {
		rec, err := c.store.Record(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		secondaries = append(secondaries, rec)
	}
	return primary, secondaries, nil
}

// optionalRecord returns nil for a missing record so validation can report it.
func (c *client) optionalRecord(ctx context.Context, id string) (*records.Record, error) {
	rec, err := c.store.Record(ctx, id)
	if errors.IsNotFound(err) {
		return nil, nil
	}
	return rec, err
}

// linkedDuplicates returns the stored duplicates that pair two records of
// the job and satisfy keep.
func (c *client) linkedDuplicates(ctx context.Context, job *records.MergeJob, keep func(*records.Duplicate) bool) ([]*records.Duplicate, error) {
	all, err := c.store.Duplicates(ctx, job.RecordType)
	if err != nil {
		return nil, errors.WrapResource("load", "duplicate", "", err)
	}
	ids := make(map[string]bool)
	for _, id := range job.RecordIDs() {
		ids[id] = true
	}
	var out []*records.Duplicate
	for _, d := range all {
		if ids[d.IDA] && ids[d.IDB] && keep(d) {
			out = append(out, d)
		}
	}
	return out, nil
}
