package logging_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ledgerline/mdm/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	t.Run("falls back to default", func(t *testing.T) {
		assert.Equal(t, logging.Default(), logging.FromContext(context.Background()))
	})

	t.Run("returns stored logger", func(t *testing.T) {
		tl := logging.NewTestLogger(t)
		ctx := logging.WithLogger(context.Background(), tl.Logger)
		assert.Same(t, tl.Logger, logging.FromContext(ctx))
	})
}

func TestDomainFields(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithRecord(ctx, "per-001")
	ctx = logging.WithRecordType(ctx, "person")
	ctx = logging.WithJob(ctx, "job-7")
	ctx = logging.WithOperation(ctx, "apply_merge")
	ctx = logging.WithError(ctx, errors.New("boom"))

	logging.FromContext(ctx).Info().Msg("merged")

	tl.AssertContains(t, `"record_id":"per-001"`)
	tl.AssertContains(t, `"record_type":"person"`)
	tl.AssertContains(t, `"job_id":"job-7"`)
	tl.AssertContains(t, `"operation":"apply_merge"`)
	tl.AssertContains(t, `"error":"boom"`)
	require.Len(t, tl.Lines(), 1)
}

func TestWithFields(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithFields(ctx, map[string]any{
		"pairs":     12,
		"threshold": 0.65,
		"ids":       []string{"a", "b"},
	})
	logging.FromContext(ctx).Debug().Msg("scan")

	tl.AssertContains(t, `"pairs":12`)
	tl.AssertContains(t, `"threshold":0.65`)
	tl.AssertContains(t, `"ids":["a","b"]`)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, logging.ParseLevel(tt.in))
		})
	}
}

func TestNewLoggerFromConfig(t *testing.T) {
	old := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(old) })

	logger := logging.NewLoggerFromConfig(&logging.Config{
		Level:  "error",
		Format: "json",
		Output: "discard",
	})
	assert.Equal(t, zerolog.ErrorLevel, logger.GetLevel())
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, logging.Default(), logging.OrDefault(nil))
	nop := logging.NewNopLogger()
	assert.Same(t, nop, logging.OrDefault(nop))
}

func TestComponentAndFields(t *testing.T) {
	old := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(old) })

	path := filepath.Join(t.TempDir(), "mdm.log")
	logger := logging.NewLoggerFromConfig(&logging.Config{
		Level:     "info",
		Format:    "json",
		Output:    path,
		Component: "matching",
		Fields:    map[string]any{"client_id": "c-1"},
	})
	logger.Info().Msg("scan finished")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"matching"`)
	assert.Contains(t, string(data), `"client_id":"c-1"`)
}

func TestTestLoggerEntries(t *testing.T) {
	tl := logging.NewTestLogger(t)
	tl.Debug().Str("record_id", "p1").Msg("checked")
	tl.Warn().Msg("checked")
	tl.Info().Msg("other")

	assert.Len(t, tl.Entries(), 3)
	found := tl.Find("checked")
	require.Len(t, found, 2)
	assert.Equal(t, "p1", found[0]["record_id"])
	tl.AssertLogged(t, zerolog.WarnLevel, "checked")
	tl.AssertLogged(t, zerolog.DebugLevel, "checked")
}
