package provenance_test

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ledgerline/mdm/pkg/provenance"
	"github.com/ledgerline/mdm/pkg/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker(t *testing.T) {
	tr := provenance.NewTracker(true)
	tr.Track(records.RecordTypePerson, "per-1", "email", provenance.Provenance{Source: "bank_feed", Value: "a@b.com", Rule: "source_priority", Confidence: 85})
	tr.Track(records.RecordTypePerson, "per-1", "lastName", provenance.Provenance{Source: "custodian_api", Value: "Lee"})
	tr.Track(records.RecordTypePerson, "per-2", "email", provenance.Provenance{Source: "legacy_import", Value: "z@z.com"})

	got := tr.FindByField(records.RecordTypePerson, "per-1", "email")
	require.Len(t, got, 1)
	assert.Equal(t, "email", got[0].Field)
	assert.False(t, got[0].Timestamp.IsZero())

	byRecord := tr.FindByRecord(records.RecordTypePerson, "per-1")
	assert.Len(t, byRecord, 2)
	assert.Contains(t, byRecord, "lastName")

	assert.Len(t, tr.Map(), 3)
	tr.Clear()
	assert.Empty(t, tr.Map())
}

func TestTrackerDisabled(t *testing.T) {
	tr := provenance.NewTracker(false)
	tr.Track(records.RecordTypeAsset, "a", "isin", provenance.Provenance{Value: "x"})
	assert.Nil(t, tr.FindByField(records.RecordTypeAsset, "a", "isin"))
	assert.Nil(t, tr.Map())
}

func TestTrackerConcurrent(t *testing.T) {
	tr := provenance.NewTracker(true)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Track(records.RecordTypeAccount, "acc", "custodian", provenance.Provenance{Value: i})
		}()
	}
	wg.Wait()
	assert.Len(t, tr.FindByField(records.RecordTypeAccount, "acc", "custodian"), 20)
}

func TestGenerateReport(t *testing.T) {
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	m := provenance.Map{
		"person:per-1:lastName": {
			{Source: "legacy_import", Value: "Le", Timestamp: older},
			{Source: "bank_feed", Value: "Lee", Rule: "freshest_among_priority", Confidence: 80, Timestamp: newer,
				Alternatives: []provenance.Alternative{{Source: "bank_feed", Value: "Lee"}, {Source: "legacy_import", Value: "Li"}}},
		},
		"broken-key": {{Value: 1}},
	}

	report := provenance.GenerateReport(m)
	require.Len(t, report.Records, 1)
	rec := report.Records["person:per-1"]
	assert.Equal(t, records.RecordTypePerson, rec.Type)
	field := rec.Fields["lastName"]
	assert.Equal(t, "Lee", field.Current.Value)
	require.Len(t, field.Conflicts, 1)
	assert.Equal(t, "Li", field.Conflicts[0].Value)

	out := report.String()
	assert.Contains(t, out, "person: per-1")
	assert.Contains(t, out, "Current: Lee (from bank_feed, freshest_among_priority, confidence 80)")
	assert.Contains(t, out, "Li from legacy_import")
}

func TestWriteAndLoad(t *testing.T) {
	m := provenance.Map{
		"asset:ast-1:isin": {{Source: "bloomberg", Field: "isin", Value: "US0378331005", Rule: "source_priority", Confidence: 85,
			Timestamp: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}},
	}
	var buf bytes.Buffer
	require.NoError(t, provenance.Write(&buf, m))
	assert.Contains(t, buf.String(), "asset:ast-1:isin")

	path := filepath.Join(t.TempDir(), "provenance.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	pf, err := provenance.Load(path)
	require.NoError(t, err)
	require.NotNil(t, pf)
	require.Len(t, pf.Provenance["asset:ast-1:isin"], 1)
	assert.Equal(t, "bloomberg", pf.Provenance["asset:ast-1:isin"][0].Source)

	missing, err := provenance.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.NoError(t, err)
	assert.Nil(t, missing)
}
