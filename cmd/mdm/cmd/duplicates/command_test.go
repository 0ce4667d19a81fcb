package duplicates_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/mdm"
	"github.com/ledgerline/mdm/cmd/mdm/cmd/duplicates"
	"github.com/ledgerline/mdm/internal/appcontext"
	"github.com/ledgerline/mdm/internal/store/memory"
	"github.com/ledgerline/mdm/pkg/logging"
	"github.com/ledgerline/mdm/pkg/records"
)

func person(id, source, phone string) *records.Record {
	fields := map[string]records.Value{
		"email": "jane.doe@example.com", "firstName": "Jane", "lastName": "Doe",
		"dateOfBirth": "1980-04-02", "phone": phone,
	}
	return &records.Record{
		ID: id, RecordType: records.RecordTypePerson, Status: records.StatusActive, Version: 1,
		Chosen:  fields,
		Sources: []records.SourceSnapshot{{SourceSystem: source, AsOf: time.Now(), Fields: fields}},
	}
}

func setup(t *testing.T, format string) (*appcontext.Mock, mdm.Client) {
	t.Helper()
	s := memory.New()
	require.NoError(t, s.PutRecords(context.Background(),
		person("p1", "bank_feed", "555-0100"),
		person("p2", "custodian_api", "555-0101"),
	))
	client, err := mdm.New(mdm.WithStore(s), mdm.WithLogger(logging.NewNopLogger()))
	require.NoError(t, err)
	return &appcontext.Mock{
		ClientFunc: func() (mdm.Client, error) { return client, nil },
		Format:     format,
		User:       "steward",
	}, client
}

func run(t *testing.T, app appcontext.Interface, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := duplicates.NewCommand(app)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestFindDoesNotSave(t *testing.T) {
	app, client := setup(t, "json")

	out, err := run(t, app, "find", "--type", "person")
	require.NoError(t, err)

	var results []struct {
		IDA string `json:"id_a"`
		IDB string `json:"id_b"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "p1", results[0].IDA)
	assert.Zero(t, app.Saves)

	dups, err := client.Store().Duplicates(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, dups)
}

func TestRefreshListIgnore(t *testing.T) {
	app, client := setup(t, "table")

	out, err := run(t, app, "refresh")
	require.NoError(t, err)
	assert.Contains(t, out, "p1")
	assert.Equal(t, 1, app.Saves)

	dups, err := client.Store().Duplicates(context.Background(), records.RecordTypePerson)
	require.NoError(t, err)
	require.Len(t, dups, 1)

	_, err = run(t, app, "ignore", dups[0].ID)
	assert.Error(t, err, "a reason is required")

	out, err = run(t, app, "ignore", dups[0].ID, "--reason", "siblings")
	require.NoError(t, err)
	assert.Contains(t, out, "Ignored duplicate "+dups[0].ID)

	app.Format = "json"
	out, err = run(t, app, "list", "--status", "ignored")
	require.NoError(t, err)
	var listed []records.Duplicate
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "steward", listed[0].IgnoredBy)

	out, err = run(t, app, "list", "--status", "open")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestUnknownType(t *testing.T) {
	app, _ := setup(t, "json")
	_, err := run(t, app, "find", "--type", "vehicle")
	assert.Error(t, err)
}
