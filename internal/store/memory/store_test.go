package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ledgerline/mdm/pkg/errors"
	"github.com/ledgerline/mdm/pkg/records"
	"github.com/ledgerline/mdm/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(id string, rt records.RecordType) *records.Record {
	return &records.Record{
		ID:         id,
		RecordType: rt,
		Status:     records.StatusActive,
		Chosen:     map[string]records.Value{"name": id},
		Version:    1,
	}
}

func TestRecordsRoundTripCopies(t *testing.T) {
	ctx := context.Background()
	s := New()

	rec := testRecord("p1", records.RecordTypePerson)
	require.NoError(t, s.PutRecords(ctx, rec, testRecord("a1", records.RecordTypeAsset)))

	rec.Chosen["name"] = "mutated"
	got, err := s.Record(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.Chosen["name"])

	got.Chosen["name"] = "mutated again"
	again, err := s.Record(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", again.Chosen["name"])

	people, err := s.Records(ctx, records.RecordTypePerson)
	require.NoError(t, err)
	require.Len(t, people, 1)

	all, err := s.Records(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a1", all[0].ID)

	_, err = s.Record(ctx, "missing")
	assert.True(t, errors.IsNotFound(err))

	assert.Error(t, s.PutRecords(ctx, &records.Record{}))
}

func TestCommitIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.PutRecords(ctx, testRecord("p1", records.RecordTypePerson), testRecord("p2", records.RecordTypePerson)))

	updated := testRecord("p1", records.RecordTypePerson)
	updated.Version = 2
	job := &records.MergeJob{ID: "job-1", Status: records.JobApplied}
	event := records.AuditEvent{ID: "evt-1", Action: records.AuditRecordMerged, RecordID: "p1"}

	ws := store.WriteSet{
		Records:          []*records.Record{updated},
		ExpectedVersions: map[string]int{"p1": 1, "p2": 7},
		Jobs:             []*records.MergeJob{job},
		AuditEvents:      []records.AuditEvent{event},
	}
	err := s.Commit(ctx, ws)
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))

	got, _ := s.Record(ctx, "p1")
	assert.Equal(t, 1, got.Version, "nothing is written on conflict")
	_, err = s.Job(ctx, "job-1")
	assert.True(t, errors.IsNotFound(err))
	events, _ := s.AuditEvents(ctx, "")
	assert.Empty(t, events)

	ws.ExpectedVersions["p2"] = 1
	require.NoError(t, s.Commit(ctx, ws))

	got, _ = s.Record(ctx, "p1")
	assert.Equal(t, 2, got.Version)
	storedJob, err := s.Job(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, records.JobApplied, storedJob.Status)
	events, _ = s.AuditEvents(ctx, "p1")
	require.Len(t, events, 1)

	err = s.Commit(ctx, ws)
	assert.True(t, errors.IsConflict(err), "replaying a commit must fail")
}

func TestCommitRejectsMissingIDs(t *testing.T) {
	err := New().Commit(context.Background(), store.WriteSet{Jobs: []*records.MergeJob{{}}})
	assert.True(t, errors.IsValidationError(err))
}

func TestCommitExpectedMissingRecord(t *testing.T) {
	err := New().Commit(context.Background(), store.WriteSet{ExpectedVersions: map[string]int{"ghost": 3}})
	assert.True(t, errors.IsNotFound(err))
}

func TestDuplicatesAndQueue(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Commit(ctx, store.WriteSet{
		Duplicates: []*records.Duplicate{
			{ID: "d2", RecordType: records.RecordTypeAsset, IDA: "a1", IDB: "a2", Status: records.DuplicateOpen},
			{ID: "d1", RecordType: records.RecordTypePerson, IDA: "p1", IDB: "p2", Status: records.DuplicateOpen},
		},
		QueueItems: []*records.QueueItem{{ID: "q1", RecordID: "p1", Status: records.QueueOpen}},
	}))

	people, err := s.Duplicates(ctx, records.RecordTypePerson)
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Equal(t, "d1", people[0].ID)

	all, _ := s.Duplicates(ctx, "")
	assert.Len(t, all, 2)

	d, err := s.Duplicate(ctx, "d2")
	require.NoError(t, err)
	assert.Equal(t, "a2", d.IDB)

	items, _ := s.QueueItems(ctx)
	assert.Len(t, items, 1)
}

func TestDatasetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.PutRecords(ctx, testRecord("p1", records.RecordTypePerson)))
	require.NoError(t, s.Commit(ctx, store.WriteSet{
		AuditEvents: []records.AuditEvent{{ID: "e1", RecordID: "p1", Details: map[string]any{"k": "v"}}},
	}))

	ds := s.Dataset()
	copied := NewFromDataset(ds)
	assert.Equal(t, ds, copied.Dataset())

	ds.AuditEvents[0].Details["k"] = "changed"
	events, _ := s.AuditEvents(ctx, "p1")
	assert.Equal(t, "v", events[0].Details["k"])
}

func TestLockSerializesOverlappingSets(t *testing.T) {
	ctx := context.Background()
	s := New()

	unlock, err := s.Lock(ctx, "p2", "p1", "p1")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		u, err := s.Lock(ctx, "p1", "p3")
		if err == nil {
			close(acquired)
			u()
		}
	}()

	select {
	case <-acquired:
		t.Fatal("overlapping lock acquired while held")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock not released")
	}
}

func TestLockHonoursContext(t *testing.T) {
	s := New()
	unlock, err := s.Lock(context.Background(), "p1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = s.Lock(ctx, "p0", "p1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// p0 must have been released again.
	u, err := s.Lock(context.Background(), "p0")
	require.NoError(t, err)
	u()
}

func TestConcurrentCommits(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.PutRecords(ctx, testRecord("p1", records.RecordTypePerson)))

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := s.Record(ctx, "p1")
			if err != nil {
				return
			}
			var ws store.WriteSet
			ws.Expect(rec)
			rec.Version++
			ws.Records = append(ws.Records, rec)
			if s.Commit(ctx, ws) == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	got, _ := s.Record(ctx, "p1")
	assert.Equal(t, 1+wins, got.Version)
	assert.GreaterOrEqual(t, wins, 1)
}
