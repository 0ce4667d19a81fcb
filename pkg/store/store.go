// Package store defines persistence for golden records, merge jobs,
// duplicates, steward queue items and the audit trail.
package store

import (
	"context"

	"github.com/ledgerline/mdm/pkg/records"
	"github.com/ledgerline/mdm/pkg/rules"
)

// Store persists MDM state. Reads return copies; callers may modify them
// freely and write them back through Commit.
type Store interface {
	Reader

	// PutRecords inserts or replaces records without version checks.
	// It is meant for ingestion and seeding.
	PutRecords(ctx context.Context, recs ...*records.Record) error

	// Lock acquires the per-record locks for ids in sorted order and
	// returns a function that releases them. It blocks until every lock is
	// held or ctx is done.
	Lock(ctx context.Context, ids ...string) (unlock func(), err error)

	// Commit applies a write set all-or-nothing. Records listed in
	// ExpectedVersions must still be at that version and jobs listed in
	// ExpectedJobStatus must still be in that status, otherwise nothing is
	// written and an error matching errors.ErrConflict is returned.
	Commit(ctx context.Context, ws WriteSet) error
}

// Reader is the read side of a Store.
type Reader interface {
	Record(ctx context.Context, id string) (*records.Record, error)
	// Records lists records of a type sorted by id; an empty type lists all.
	Records(ctx context.Context, rt records.RecordType) ([]*records.Record, error)
	Job(ctx context.Context, id string) (*records.MergeJob, error)
	Jobs(ctx context.Context) ([]*records.MergeJob, error)
	Duplicate(ctx context.Context, id string) (*records.Duplicate, error)
	// Duplicates lists duplicates of a type; an empty type lists all.
	Duplicates(ctx context.Context, rt records.RecordType) ([]*records.Duplicate, error)
	QueueItems(ctx context.Context) ([]*records.QueueItem, error)
	// AuditEvents lists events for a record in creation order; an empty id
	// lists the whole trail.
	AuditEvents(ctx context.Context, recordID string) ([]records.AuditEvent, error)
}

// WriteSet is a batch of changes committed atomically.
type WriteSet struct {
	Records          []*records.Record
	ExpectedVersions map[string]int
	// ExpectedJobStatus maps job ids to the status they must still have.
	ExpectedJobStatus map[string]records.JobStatus
	Jobs             []*records.MergeJob
	Duplicates       []*records.Duplicate
	QueueItems       []*records.QueueItem
	AuditEvents      []records.AuditEvent
}

// IsEmpty reports whether the write set changes nothing.
func (ws WriteSet) IsEmpty() bool {
	return len(ws.Records) == 0 && len(ws.Jobs) == 0 && len(ws.Duplicates) == 0 &&
		len(ws.QueueItems) == 0 && len(ws.AuditEvents) == 0
}

// Expect records the version a record must still be at on commit.
func (ws *WriteSet) Expect(rec *records.Record) {
	if rec == nil {
		return
	}
	if ws.ExpectedVersions == nil {
		ws.ExpectedVersions = make(map[string]int)
	}
	ws.ExpectedVersions[rec.ID] = rec.Version
}

// ExpectJob records the status a stored job must still have on commit.
func (ws *WriteSet) ExpectJob(id string, status records.JobStatus) {
	if ws.ExpectedJobStatus == nil {
		ws.ExpectedJobStatus = make(map[string]records.JobStatus)
	}
	ws.ExpectedJobStatus[id] = status
}

// Dataset is the complete state of a store, as exchanged with files.
type Dataset struct {
	Records     []*records.Record    `yaml:"records"`
	Jobs        []*records.MergeJob  `yaml:"jobs,omitempty"`
	Duplicates  []*records.Duplicate `yaml:"duplicates,omitempty"`
	QueueItems  []*records.QueueItem `yaml:"queue,omitempty"`
	AuditEvents []records.AuditEvent `yaml:"audit,omitempty"`
	Rules       []rules.MdmRule      `yaml:"rules,omitempty"`
}
