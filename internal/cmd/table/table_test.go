package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/mdm/pkg/differ"
	"github.com/ledgerline/mdm/pkg/provenance"
	"github.com/ledgerline/mdm/pkg/records"
	"github.com/ledgerline/mdm/pkg/stewardship"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcd...", Truncate("abcdefghij", 7))
	assert.Equal(t, "ünï...", Truncate("ünïcode!", 6))
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "-", FormatAge(time.Time{}, now))
	assert.Equal(t, "just now", FormatAge(now.Add(-10*time.Second), now))
	assert.Equal(t, "5m ago", FormatAge(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3h ago", FormatAge(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2d ago", FormatAge(now.Add(-49*time.Hour), now))
}

func TestRecordToTableData(t *testing.T) {
	rec := &records.Record{
		ID:         "a1",
		Chosen:     map[string]records.Value{"isin": "US0378331005", "ticker": ""},
		Confidence: map[string]int{"isin": 85},
		Overrides:  map[string]records.Override{"isin": {Value: "US0378331005"}},
		Sources: []records.SourceSnapshot{
			{SourceSystem: "bloomberg", Fields: map[string]records.Value{"isin": "US0378331005"}},
		},
	}
	data := RecordToTableData(rec, false)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, []string{"isin", "US0378331005", "85", "1", "yes"}, data.Rows[0])
	assert.Equal(t, []string{"ticker", "-", "-", "0", "-"}, data.Rows[1])
}

func TestComparisonToTableData(t *testing.T) {
	cmp := &differ.Comparison{IDA: "p1", IDB: "p2", Fields: []differ.FieldComparison{
		{Field: "phone", ValueA: "1", ValueB: "2", Match: false},
		{Field: "email", ValueA: "x", ValueB: "x", Match: true},
	}}
	data := ComparisonToTableData(cmp, false)
	assert.Equal(t, []string{"Field", "p1", "p2", "Match"}, data.Headers)
	assert.Equal(t, "✗", data.Rows[0][3])
	assert.Equal(t, "✓", data.Rows[1][3])
}

func TestChangesetToTableData(t *testing.T) {
	cs := &differ.Changeset{
		Added: []string{"p9"},
		Updated: []differ.RecordUpdate{
			{ID: "p1", Changes: []differ.FieldChange{
				{Path: "phone", OldValue: "555-0100", NewValue: "555-0199", Type: differ.ChangeTypeUpdate},
				{Path: "ssn", NewValue: "123-45-6789", Type: differ.ChangeTypeAdd},
			}},
			{ID: "p2"},
		},
	}
	data := ChangesetToTableData(cs, false)
	require.Len(t, data.Rows, 4)
	assert.Equal(t, []string{"p9", "-", "add", "-", "-"}, data.Rows[0])
	assert.Equal(t, []string{"p1", "phone", "update", "555-0100", "555-0199"}, data.Rows[1])
	assert.Equal(t, []string{"p1", "ssn", "add", "-", "123-45-6789"}, data.Rows[2])
	assert.Equal(t, []string{"p2", "-", "update", "-", "-"}, data.Rows[3])
}

func TestChecksToTableData(t *testing.T) {
	checks := []stewardship.Check{
		{RecordID: "a1", Issues: []stewardship.Issue{
			{IssueType: records.IssueInvalidFormat, Severity: records.SeverityMedium, Field: "isin", Description: "bad isin"},
			{IssueType: records.IssueStaleData, Severity: records.SeverityLow, Description: "old"},
		}},
		{RecordID: "a2"},
	}
	data := ChecksToTableData(checks, map[string]int{"a1": 85, "a2": 100}, false)
	require.Len(t, data.Rows, 3)
	assert.Equal(t, "a1", data.Rows[0][0])
	assert.Equal(t, "85", data.Rows[0][1])
	assert.Equal(t, "", data.Rows[1][0], "record id only on its first issue")
	assert.Equal(t, "-", data.Rows[1][4])
	assert.Equal(t, []string{"a2", "100", "-", "-", "-", "no issues"}, data.Rows[2])
}

func TestProvenanceToTableData(t *testing.T) {
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	fields := map[string][]provenance.Provenance{
		"address.city": {
			{Source: "bank_feed", Value: "Paris", Rule: "source_priority", Confidence: 70, Timestamp: now.Add(-2 * time.Hour)},
			{Source: "custodian_api", Value: "Lyon", Rule: "source_priority", Confidence: 85, Timestamp: now.Add(-time.Hour)},
		},
		"email": {{Source: "bank_feed", Value: "x@y.z", Timestamp: now}},
	}

	data := ProvenanceToTableData(fields, []string{"address.*"}, now)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, []string{"address.city", "→", "Lyon", "custodian_api"}, data.Rows[0][:4])
	assert.Equal(t, "", data.Rows[1][0])
	assert.Equal(t, "Paris", data.Rows[1][2])

	assert.Len(t, ProvenanceToTableData(fields, nil, now).Rows, 3)
}

func TestMatchField(t *testing.T) {
	assert.True(t, MatchField("email", nil))
	assert.True(t, MatchField("Address.City", []string{"address.*"}))
	assert.True(t, MatchField("address", []string{"address.*"}))
	assert.True(t, MatchField("firstName", []string{"*name"}))
	assert.False(t, MatchField("email", []string{"phone"}))
	assert.True(t, MatchField("lastName", []string{"^(first|last)name$"}))
	assert.False(t, MatchField("middleName", []string{"(first|last)Name"}))
}
