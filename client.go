// Package mdm is the entry point of the master data management engine.
// It keeps golden records for people, legal entities, accounts and assets
// consistent across source systems.
//
// A Client ties the pure engines to a store:
//   - matching finds likely duplicate records and keeps a duplicate worklist
//   - survivorship rebuilds golden records from their source snapshots
//   - merges are planned, submitted, approved and applied atomically
//   - quality checks score records and feed a steward queue
//
// Example usage:
//
//	client, err := mdm.New(mdm.WithStore(memory.New()))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client.OnDuplicateFound(func(d *records.Duplicate) {
//	    log.Printf("possible duplicate: %s ~ %s (%.2f)", d.IDA, d.IDB, d.MatchScore)
//	})
//
//	refreshed, err := client.RefreshDuplicates(ctx, records.RecordTypePerson)
//
//	job, plan, err := client.PlanMerge(ctx, "p-1", []string{"p-2"}, "alice")
//	if _, err := client.SubmitMerge(ctx, job.ID, "alice"); err != nil {
//	    log.Fatal(err)
//	}
//	result, err := client.ApplyMerge(ctx, job.ID, "bob")
package mdm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ledgerline/mdm/pkg/differ"
	"github.com/ledgerline/mdm/pkg/golden"
	"github.com/ledgerline/mdm/pkg/logging"
	"github.com/ledgerline/mdm/pkg/matching"
	"github.com/ledgerline/mdm/pkg/merge"
	"github.com/ledgerline/mdm/pkg/provenance"
	"github.com/ledgerline/mdm/pkg/records"
	"github.com/ledgerline/mdm/pkg/rules"
	"github.com/ledgerline/mdm/pkg/stewardship"
	"github.com/ledgerline/mdm/pkg/store"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// Client orchestrates the MDM engines over a store.
type Client interface {
	// Store returns the underlying store
	Store() store.Store

	// Rules returns the effective rule set
	Rules() *rules.Set

	// Provenance returns the decisions recorded by golden record rebuilds
	Provenance() provenance.Tracker

	// FindCandidates scores every eligible pair of one record type
	FindCandidates(ctx context.Context, rt records.RecordType) ([]matching.Result, error)

	// RefreshDuplicates stores new candidates and rescored open duplicates
	RefreshDuplicates(ctx context.Context, rt records.RecordType) (*RefreshResult, error)

	// IgnoreDuplicate marks a duplicate as not a real match
	IgnoreDuplicate(ctx context.Context, id, by, reason string) (*records.Duplicate, error)

	// RebuildGolden recomputes a record's golden values from its sources
	RebuildGolden(ctx context.Context, id string) (*records.Record, *golden.Result, error)

	// Compare lines up two records field by field
	Compare(ctx context.Context, idA, idB string) (*differ.Comparison, error)

	// PlanMerge stores a draft merge job and returns its plan
	PlanMerge(ctx context.Context, primaryID string, secondaryIDs []string, requestedBy string) (*records.MergeJob, *merge.Plan, error)

	// SubmitMerge moves a draft job to pending approval
	SubmitMerge(ctx context.Context, jobID, by string) (*records.MergeJob, error)

	// CancelMerge cancels a job that has not been applied
	CancelMerge(ctx context.Context, jobID, by string) (*records.MergeJob, error)

	// ApplyMerge approves and applies a pending job
	ApplyMerge(ctx context.Context, jobID, approvedBy string) (*merge.Result, error)

	// CheckQuality checks a record, stores its score and queues new issues
	CheckQuality(ctx context.Context, recordID string) (*QualityResult, error)

	// Queue returns the steward queue in work order
	Queue(ctx context.Context) ([]*records.QueueItem, error)

	// OnDuplicateFound registers a callback for new duplicates
	OnDuplicateFound(DuplicateFoundHook)

	// OnRecordMerged registers a callback for applied merges
	OnRecordMerged(RecordMergedHook)

	// OnIssueFlagged registers a callback for new queue items
	OnIssueFlagged(IssueFlaggedHook)
}

// client is the internal implementation of the Client interface.
type client struct {
	*hooks
	config  *config
	store   store.Store
	rules   *rules.Set
	tracker provenance.Tracker
	checker *stewardship.Checker
	logger  *zerolog.Logger
}

// New creates a Client with the given options.
func New(opts ...Option) (Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("applying options: %w", err)
		}
	}
	cfg.finish()

	return &client{
		hooks:   newHooks(),
		config:  cfg,
		store:   cfg.store,
		rules:   cfg.rules,
		tracker: provenance.NewTracker(true),
		checker: stewardship.NewChecker(
			stewardship.WithClock(cfg.now),
			stewardship.WithStaleAfter(cfg.staleAfter),
			stewardship.WithIDGenerator(cfg.newID),
			stewardship.WithLogger(cfg.logger),
		),
		logger: cfg.logger,
	}, nil
}

// Store returns the underlying store.
func (c *client) Store() store.Store { return c.store }

// Rules returns the effective rule set.
func (c *client) Rules() *rules.Set { return c.rules }

// Provenance returns the provenance tracker shared by all rebuilds.
func (c *client) Provenance() provenance.Tracker { return c.tracker }

// operation returns ctx carrying the client's logger tagged with op.
func (c *client) operation(ctx context.Context, op string) (context.Context, *zerolog.Logger) {
	ctx = logging.WithOperation(logging.WithLogger(ctx, c.logger), op)
	return ctx, logging.FromContext(ctx)
}

// builderFor returns a builder using the survivorship rules of rt.
func (c *client) builderFor(rt records.RecordType) *golden.Builder {
	return golden.NewBuilder(c.rules.RuleSet(rt),
		golden.WithTracker(c.tracker),
		golden.WithLogger(c.logger),
		golden.WithClock(c.config.now),
	)
}

func (c *client) event(action records.AuditAction, recordID, actor, summary string, details map[string]any) records.AuditEvent {
	return records.AuditEvent{
		ID:        c.config.newID(),
		Action:    action,
		RecordID:  recordID,
		Actor:     actor,
		Summary:   summary,
		Details:   details,
		CreatedAt: c.config.now(),
	}
}
