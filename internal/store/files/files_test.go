package files_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ledgerline/mdm/internal/store/files"
	"github.com/ledgerline/mdm/pkg/errors"
	"github.com/ledgerline/mdm/pkg/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dataset = `
records:
  - id: p1
    record_type: person
    status: active
    version: 1
    chosen:
      email: jane@example.com
    confidence:
      email: 85
    sources:
      - source_system: bank_feed
        source_id: bf-1
        as_of: 2024-01-01T00:00:00Z
        fields:
          email: jane@example.com
          lastName: Doe
rules:
  - id: r1
    name: stricter people
    rule_type: matching
    applies_to: person
    priority: 1
    active: true
    config:
      threshold: 0.8
`

func TestOpenSaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "mdm.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(dataset), 0o644))

	s, err := files.Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, s.Path())

	rec, err := s.Record(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, records.RecordTypePerson, rec.RecordType)
	require.Len(t, rec.Sources, 1)
	assert.Equal(t, "Doe", rec.Sources[0].Fields["lastName"])
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), rec.Sources[0].AsOf.UTC())

	require.Len(t, s.Rules(), 1)
	assert.Equal(t, "r1", s.Rules()[0].ID)

	rec.Status = records.StatusInactive
	require.NoError(t, s.PutRecords(ctx, rec))
	require.NoError(t, s.Save(ctx))

	reopened, err := files.Open(path)
	require.NoError(t, err)
	again, err := reopened.Record(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, records.StatusInactive, again.Status)
	assert.Len(t, reopened.Rules(), 1, "rules survive a save")
}

func TestOpenMissingFileIsEmpty(t *testing.T) {
	s, err := files.Open(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	recs, err := s.Records(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestLoadErrors(t *testing.T) {
	_, err := files.Load(filepath.Join(t.TempDir(), "none.yaml"))
	var ioErr *errors.IOError
	assert.ErrorAs(t, err, &ioErr)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("records: [unterminated"), 0o644))
	_, err = files.Open(bad)
	var parseErr *errors.ParseError
	assert.ErrorAs(t, err, &parseErr)
}
