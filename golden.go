package mdm

import (
	"context"
	"fmt"

	"github.com/ledgerline/mdm/pkg/differ"
	"github.com/ledgerline/mdm/pkg/errors"
	"github.com/ledgerline/mdm/pkg/golden"
	"github.com/ledgerline/mdm/pkg/records"
	"github.com/ledgerline/mdm/pkg/store"
)

// RebuildGolden recomputes Chosen and Confidence from the record's
// snapshots and overrides and stores the result. Nothing is written when
// the golden values are unchanged.
func (c *client) RebuildGolden(ctx context.Context, id string) (*records.Record, *golden.Result, error) {
	ctx, logger := c.operation(ctx, "rebuild_golden")

	unlock, err := c.store.Lock(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	rec, err := c.store.Record(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if rec.IsMerged() {
		return nil, nil, errors.NewValidationError("id", id, fmt.Sprintf("record is merged into %s", rec.MergedIntoID))
	}

	rebuilt, res := c.builderFor(rec.RecordType).Rebuild(rec)
	for _, verr := range records.ValidateFields(rec.RecordType, rebuilt.Chosen) {
		logger.Warn().Err(verr).Str("record_id", id).Msg("Undocumented field in golden record")
	}

	changes := differ.Changes(rec, rebuilt)
	if len(changes) == 0 && confidenceEqual(rec.Confidence, rebuilt.Confidence) {
		return rec, res, nil
	}
	rebuilt.Version++

	ws := store.WriteSet{
		Records: []*records.Record{rebuilt},
		AuditEvents: []records.AuditEvent{c.event(records.AuditGoldenRebuilt, id, "",
			fmt.Sprintf("Rebuilt golden record %s (%d field change(s))", id, len(changes)),
			map[string]any{"changes": changes})},
	}
	ws.Expect(rec)
	if err := c.store.Commit(ctx, ws); err != nil {
		return nil, nil, fmt.Errorf("committing rebuilt record: %w", err)
	}

	logger.Info().Str("record_id", id).Int("changes", len(changes)).Msg("Golden record stored")
	return rebuilt, res, nil
}

// Compare lines up two records field by field.
func (c *client) Compare(ctx context.Context, idA, idB string) (*differ.Comparison, error) {
	a, err := c.store.Record(ctx, idA)
	if err != nil {
		return nil, err
	}
	b, err := c.store.Record(ctx, idB)
	if err != nil {
		return nil, err
	}
	return differ.Compare(a, b), nil
}

func confidenceEqual(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}
