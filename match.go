package mdm

import (
	"context"
	"fmt"

	"github.com/ledgerline/mdm/pkg/errors"
	"github.com/ledgerline/mdm/pkg/matching"
	"github.com/ledgerline/mdm/pkg/records"
	"github.com/ledgerline/mdm/pkg/store"
)

// RefreshResult summarizes a duplicate refresh.
type RefreshResult struct {
	RecordType records.RecordType   `json:"record_type" yaml:"record_type"`
	Candidates int                  `json:"candidates" yaml:"candidates"`
	Created    []*records.Duplicate `json:"created" yaml:"created"`
	Updated    []*records.Duplicate `json:"updated" yaml:"updated"`
	// Skipped counts candidates whose duplicate is ignored, merged or in a
	// merge; those are never reopened.
	Skipped int `json:"skipped" yaml:"skipped"`
}

// FindCandidates scores every eligible pair of one record type.
func (c *client) FindCandidates(ctx context.Context, rt records.RecordType) ([]matching.Result, error) {
	if !rt.Valid() {
		return nil, errors.NewValidationError("record_type", rt, "unknown record type")
	}
	recs, err := c.store.Records(ctx, rt)
	if err != nil {
		return nil, errors.WrapResource("load", "record", "", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	engine := matching.NewEngine(c.rules.Matching,
		matching.WithWorkers(c.config.workers),
		matching.WithShardSize(c.config.shardSize),
		matching.WithLogger(c.logger),
	)
	return engine.FindCandidates(recs, rt), nil
}

// RefreshDuplicates runs the scan and reconciles the results with the
// stored duplicates in one commit: unseen pairs become open duplicates and
// open duplicates get their score and reasons refreshed.
func (c *client) RefreshDuplicates(ctx context.Context, rt records.RecordType) (*RefreshResult, error) {
	ctx, logger := c.operation(ctx, "refresh_duplicates")

	results, err := c.FindCandidates(ctx, rt)
	if err != nil {
		return nil, err
	}
	existing, err := c.store.Duplicates(ctx, rt)
	if err != nil {
		return nil, errors.WrapResource("load", "duplicate", "", err)
	}
	byKey := make(map[string]*records.Duplicate, len(existing))
	for _, d := range existing {
		byKey[d.Key()] = d
	}

	now := c.config.now()
	out := &RefreshResult{
		RecordType: rt,
		Candidates: len(results),
		Created:    []*records.Duplicate{},
		Updated:    []*records.Duplicate{},
	}
	for _, r := range results {
		d, ok := byKey[records.PairKey(r.IDA, r.IDB)]
		switch {
		case !ok:
			d = &records.Duplicate{
				ID:         c.config.newID(),
				RecordType: rt,
				IDA:        r.IDA,
				IDB:        r.IDB,
				MatchScore: r.MatchScore,
				Reasons:    r.Reasons,
				Status:     records.DuplicateOpen,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			byKey[d.Key()] = d
			out.Created = append(out.Created, d)
		case d.Status != records.DuplicateOpen:
			out.Skipped++
		case d.MatchScore != r.MatchScore || len(d.Reasons) != len(r.Reasons):
			d.MatchScore = r.MatchScore
			d.Reasons = r.Reasons
			d.UpdatedAt = now
			out.Updated = append(out.Updated, d)
		}
	}

	ws := store.WriteSet{}
	ws.Duplicates = append(ws.Duplicates, out.Created...)
	ws.Duplicates = append(ws.Duplicates, out.Updated...)
	if !ws.IsEmpty() {
		if err := c.store.Commit(ctx, ws); err != nil {
			return nil, fmt.Errorf("committing duplicates: %w", err)
		}
	}

	logger.Info().
		Str("record_type", string(rt)).
		Int("candidates", out.Candidates).
		Int("created", len(out.Created)).
		Int("updated", len(out.Updated)).
		Int("skipped", out.Skipped).
		Msg("Duplicates refreshed")

	c.duplicatesFound(out.Created)
	return out, nil
}

// IgnoreDuplicate marks an open duplicate as not a match. A reason is
// required and is kept in the audit trail.
func (c *client) IgnoreDuplicate(ctx context.Context, id, by, reason string) (*records.Duplicate, error) {
	ctx, logger := c.operation(ctx, "ignore_duplicate")

	d, err := c.store.Duplicate(ctx, id)
	if err != nil {
		return nil, err
	}
	unlock, err := c.store.Lock(ctx, d.IDA, d.IDB)
	if err != nil {
		return nil, err
	}
	defer unlock()
	if d, err = c.store.Duplicate(ctx, id); err != nil {
		return nil, err
	}
	if err := d.Ignore(by, reason, c.config.now()); err != nil {
		return nil, err
	}

	ws := store.WriteSet{
		Duplicates: []*records.Duplicate{d},
		AuditEvents: []records.AuditEvent{c.event(records.AuditDuplicateIgnored, d.IDA, by,
			fmt.Sprintf("Ignored duplicate %s ~ %s", d.IDA, d.IDB),
			map[string]any{"duplicate_id": d.ID, "other_record_id": d.IDB, "reason": reason})},
	}
	if err := c.store.Commit(ctx, ws); err != nil {
		return nil, fmt.Errorf("committing ignored duplicate: %w", err)
	}

	logger.Info().Str("duplicate_id", d.ID).Str("by", by).Msg("Duplicate ignored")
	return d, nil
}
