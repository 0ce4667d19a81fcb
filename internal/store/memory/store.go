// Package memory provides a thread-safe in-memory store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ledgerline/mdm/pkg/errors"
	"github.com/ledgerline/mdm/pkg/records"
	"github.com/ledgerline/mdm/pkg/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps everything in maps guarded by one RWMutex. Values are
// deep-copied on the way in and out.
type Store struct {
	mu         sync.RWMutex
	records    map[string]*records.Record
	jobs       map[string]*records.MergeJob
	duplicates map[string]*records.Duplicate
	queue      map[string]*records.QueueItem
	audit      []records.AuditEvent

	locks lockTable
}

// New creates an empty store.
func New() *Store {
	return &Store{
		records:    make(map[string]*records.Record),
		jobs:       make(map[string]*records.MergeJob),
		duplicates: make(map[string]*records.Duplicate),
		queue:      make(map[string]*records.QueueItem),
		locks:      lockTable{locks: make(map[string]chan struct{})},
	}
}

// NewFromDataset creates a store holding a copy of ds.
func NewFromDataset(ds *store.Dataset) *Store {
	s := New()
	if ds == nil {
		return s
	}
	for _, r := range ds.Records {
		if r != nil {
			s.records[r.ID] = r.Clone()
		}
	}
	for _, j := range ds.Jobs {
		if j != nil {
			s.jobs[j.ID] = j.Clone()
		}
	}
	for _, d := range ds.Duplicates {
		if d != nil {
			s.duplicates[d.ID] = d.Clone()
		}
	}
	for _, q := range ds.QueueItems {
		if q != nil {
			s.queue[q.ID] = q.Clone()
		}
	}
	for _, e := range ds.AuditEvents {
		s.audit = append(s.audit, cloneEvent(e))
	}
	return s
}

// Dataset returns a copy of the full store contents in stable order.
// Rules are not held by the store and are left empty.
func (s *Store) Dataset() *store.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds := &store.Dataset{
		Records:    sortedClones(s.records, func(r *records.Record) *records.Record { return r.Clone() }),
		Jobs:       sortedClones(s.jobs, func(j *records.MergeJob) *records.MergeJob { return j.Clone() }),
		Duplicates: sortedClones(s.duplicates, func(d *records.Duplicate) *records.Duplicate { return d.Clone() }),
		QueueItems: sortedClones(s.queue, func(q *records.QueueItem) *records.QueueItem { return q.Clone() }),
	}
	for _, e := range s.audit {
		ds.AuditEvents = append(ds.AuditEvents, cloneEvent(e))
	}
	return ds
}

// Record returns a copy of a record.
func (s *Store) Record(ctx context.Context, id string) (*records.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, errors.NewNotFoundError("record", id)
	}
	return r.Clone(), nil
}

// Records returns copies of the records of a type sorted by id.
func (s *Store) Records(ctx context.Context, rt records.RecordType) ([]*records.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*records.Record, 0, len(s.records))
	for _, id := range sortedKeys(s.records) {
		r := s.records[id]
		if rt == "" || r.RecordType == rt {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

// PutRecords inserts or replaces records.
func (s *Store) PutRecords(ctx context.Context, recs ...*records.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, r := range recs {
		if r == nil || r.ID == "" {
			return errors.NewValidationError("id", nil, "record id is required")
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range recs {
		s.records[r.ID] = r.Clone()
	}
	return nil
}

// Job returns a copy of a merge job.
func (s *Store) Job(ctx context.Context, id string) (*records.MergeJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, errors.NewNotFoundError("merge_job", id)
	}
	return j.Clone(), nil
}

// Jobs returns copies of every merge job sorted by id.
func (s *Store) Jobs(ctx context.Context) ([]*records.MergeJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedClones(s.jobs, func(j *records.MergeJob) *records.MergeJob { return j.Clone() }), nil
}

// Duplicate returns a copy of a duplicate.
func (s *Store) Duplicate(ctx context.Context, id string) (*records.Duplicate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.duplicates[id]
	if !ok {
		return nil, errors.NewNotFoundError("duplicate", id)
	}
	return d.Clone(), nil
}

// Duplicates returns copies of the duplicates of a type sorted by id.
func (s *Store) Duplicates(ctx context.Context, rt records.RecordType) ([]*records.Duplicate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*records.Duplicate
	for _, id := range sortedKeys(s.duplicates) {
		d := s.duplicates[id]
		if rt == "" || d.RecordType == rt {
			out = append(out, d.Clone())
		}
	}
	return out, nil
}

// QueueItems returns copies of every queue item sorted by id.
func (s *Store) QueueItems(ctx context.Context) ([]*records.QueueItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedClones(s.queue, func(q *records.QueueItem) *records.QueueItem { return q.Clone() }), nil
}

// AuditEvents returns the audit trail, optionally filtered to one record.
func (s *Store) AuditEvents(ctx context.Context, recordID string) ([]records.AuditEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []records.AuditEvent
	for _, e := range s.audit {
		if recordID == "" || e.RecordID == recordID {
			out = append(out, cloneEvent(e))
		}
	}
	return out, nil
}

// Commit applies ws atomically after checking expected versions.
func (s *Store) Commit(ctx context.Context, ws store.WriteSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validate(ws); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(ws.ExpectedVersions))
	for id := range ws.ExpectedVersions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		want := ws.ExpectedVersions[id]
		current, ok := s.records[id]
		switch {
		case !ok && want != 0:
			return errors.NewNotFoundError("record", id)
		case ok && current.Version != want:
			return errors.NewConflictError("record", id, want, current.Version)
		}
	}

	for _, id := range sortedKeys(ws.ExpectedJobStatus) {
		want := ws.ExpectedJobStatus[id]
		current, ok := s.jobs[id]
		switch {
		case !ok:
			return errors.NewNotFoundError("merge_job", id)
		case current.Status != want:
			return fmt.Errorf("%w: merge job %s is %s, expected %s", errors.ErrConflict, id, current.Status, want)
		}
	}

	for _, r := range ws.Records {
		s.records[r.ID] = r.Clone()
	}
	for _, j := range ws.Jobs {
		s.jobs[j.ID] = j.Clone()
	}
	for _, d := range ws.Duplicates {
		s.duplicates[d.ID] = d.Clone()
	}
	for _, q := range ws.QueueItems {
		s.queue[q.ID] = q.Clone()
	}
	for _, e := range ws.AuditEvents {
		s.audit = append(s.audit, cloneEvent(e))
	}
	return nil
}

// validate rejects malformed write sets before anything is locked.
func validate(ws store.WriteSet) error {
	for _, r := range ws.Records {
		if r == nil || r.ID == "" {
			return errors.NewValidationError("records", nil, "record id is required")
		}
	}
	for _, j := range ws.Jobs {
		if j == nil || j.ID == "" {
			return errors.NewValidationError("jobs", nil, "merge job id is required")
		}
	}
	for _, d := range ws.Duplicates {
		if d == nil || d.ID == "" {
			return errors.NewValidationError("duplicates", nil, "duplicate id is required")
		}
	}
	for _, q := range ws.QueueItems {
		if q == nil || q.ID == "" {
			return errors.NewValidationError("queue_items", nil, "queue item id is required")
		}
	}
	return nil
}

func cloneEvent(e records.AuditEvent) records.AuditEvent {
	if e.Details != nil {
		e.Details = records.CloneValue(e.Details).(map[string]any)
	}
	return e
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedClones[V any](m map[string]V, clone func(V) V) []V {
	out := make([]V, 0, len(m))
	for _, k := range sortedKeys(m) {
		out = append(out, clone(m[k]))
	}
	return out
}
