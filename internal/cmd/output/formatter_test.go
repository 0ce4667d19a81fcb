package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/mdm/internal/cmd/table"
)

type row struct {
	RecordID string `json:"record_id"`
	DQScore  int    `json:"dq_score,omitempty"`
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", "", false},
		{"TABLE", FormatTable, false},
		{"json", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"wide", FormatWide, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestWrite(t *testing.T) {
	data := []row{{RecordID: "a1", DQScore: 90}}
	toTable := func(wide bool) table.Data {
		headers := []string{"Record"}
		if wide {
			headers = append(headers, "DQ")
		}
		return table.Data{Headers: headers, Rows: [][]string{{"a1", "90"}[:len(headers)]}}
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "json", data, toTable))
	assert.JSONEq(t, `[{"record_id":"a1","dq_score":90}]`, buf.String())

	buf.Reset()
	require.NoError(t, Write(&buf, "yaml", data, toTable))
	assert.Contains(t, buf.String(), "record_id: a1")

	buf.Reset()
	require.NoError(t, Write(&buf, "table", data, toTable))
	assert.Contains(t, strings.ToUpper(buf.String()), "RECORD")
	assert.NotContains(t, buf.String(), "DQ")

	buf.Reset()
	require.NoError(t, Write(&buf, "wide", data, toTable))
	assert.Contains(t, buf.String(), "DQ")

	assert.Error(t, Write(&buf, "xml", data, toTable))
}

func TestTableFormatterReflection(t *testing.T) {
	var buf bytes.Buffer
	f := &TableFormatter{}

	require.NoError(t, f.Format(&buf, []row{{RecordID: "a1", DQScore: 90}}))
	assert.Contains(t, buf.String(), "a1")
	assert.Contains(t, buf.String(), "90")

	buf.Reset()
	require.NoError(t, f.Format(&buf, row{RecordID: "a2"}))
	assert.Contains(t, buf.String(), "a2")

	buf.Reset()
	require.NoError(t, f.Format(&buf, map[string]int{"n": 1}))
	assert.JSONEq(t, `{"n":1}`, buf.String(), "non-tabular data falls back to JSON")
}

func TestTableFormatterCells(t *testing.T) {
	type job struct {
		ID        string         `json:"id"`
		AppliedAt *time.Time     `json:"applied_at"`
		CreatedAt time.Time      `json:"created_at"`
		Plan      map[string]any `json:"plan"`
		Secret    string         `json:"-"`
		internal  string
	}
	created := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, (&TableFormatter{}).Format(&buf, job{
		ID: "job-1", CreatedAt: created, Plan: map[string]any{"phone": 1, "email": 2},
		Secret: "hidden", internal: "x",
	}))
	out := buf.String()
	assert.Contains(t, out, "job-1")
	assert.Contains(t, out, "2024-07-01")
	assert.Contains(t, out, "2 fields")
	assert.NotContains(t, out, "hidden")
	assert.NotContains(t, strings.ToLower(out), "internal")
}
