package mdm

import (
	"context"
	"fmt"

	"github.com/ledgerline/mdm/pkg/records"
	"github.com/ledgerline/mdm/pkg/stewardship"
	"github.com/ledgerline/mdm/pkg/store"
)

// QualityResult is the outcome of CheckQuality.
type QualityResult struct {
	Check   stewardship.Check    `json:"check" yaml:"check"`
	DQScore int                  `json:"dq_score" yaml:"dq_score"`
	Queued  []*records.QueueItem `json:"queued" yaml:"queued"`
}

// CheckQuality checks a record, stores its DQ score and queues each issue
// that does not already have an unresolved queue item.
func (c *client) CheckQuality(ctx context.Context, recordID string) (*QualityResult, error) {
	ctx, logger := c.operation(ctx, "check_quality")

	unlock, err := c.store.Lock(ctx, recordID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec, err := c.store.Record(ctx, recordID)
	if err != nil {
		return nil, err
	}
	existing, err := c.store.QueueItems(ctx)
	if err != nil {
		return nil, err
	}

	check := c.checker.CheckRecordQuality(rec, rec.RecordType)
	score := stewardship.Score(check.Issues, len(rec.Sources))

	pending := make(map[string]bool)
	for _, item := range existing {
		if item.RecordID == recordID && item.Status != records.QueueResolved {
			pending[issueKey(item)] = true
		}
	}
	var queued []*records.QueueItem
	for _, item := range c.checker.GenerateQueueItems(check, c.config.clientID) {
		key := issueKey(item)
		if pending[key] {
			continue
		}
		pending[key] = true
		queued = append(queued, item)
	}

	updated := rec.Clone()
	updated.DQScore = &score
	updated.Version++

	ws := store.WriteSet{
		Records:    []*records.Record{updated},
		QueueItems: queued,
		AuditEvents: []records.AuditEvent{c.event(records.AuditQualityCheckApplied, recordID, "",
			fmt.Sprintf("Quality check found %d issue(s), DQ score %d", len(check.Issues), score),
			map[string]any{"dq_score": score, "issues": len(check.Issues), "queued": len(queued)})},
	}
	ws.Expect(rec)
	if err := c.store.Commit(ctx, ws); err != nil {
		return nil, fmt.Errorf("committing quality check: %w", err)
	}

	logger.Info().
		Str("record_id", recordID).
		Int("dq_score", score).
		Int("issues", len(check.Issues)).
		Int("queued", len(queued)).
		Msg("Quality check applied")

	c.issuesFlagged(queued)
	if queued == nil {
		queued = []*records.QueueItem{}
	}
	return &QualityResult{Check: check, DQScore: score, Queued: queued}, nil
}

// Queue returns the steward queue in work order.
func (c *client) Queue(ctx context.Context) ([]*records.QueueItem, error) {
	items, err := c.store.QueueItems(ctx)
	if err != nil {
		return nil, err
	}
	return stewardship.PrioritizeQueue(items), nil
}

// issueKey identifies an issue on a record. Stale snapshots are told apart
// by source.
func issueKey(item *records.QueueItem) string {
	key := string(item.IssueType) + "|" + item.Field
	if id, ok := item.Details["source_id"]; ok {
		key += fmt.Sprintf("|%v/%v", item.Details["source_system"], id)
	}
	return key
}
