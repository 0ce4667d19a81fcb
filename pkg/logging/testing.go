package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// Entry is one decoded JSON log line.
type Entry map[string]any

// Level returns the entry's level field.
func (e Entry) Level() string { s, _ := e[zerolog.LevelFieldName].(string); return s }

// Message returns the entry's message field.
func (e Entry) Message() string { s, _ := e[zerolog.MessageFieldName].(string); return s }

// TestLogger is a trace-level JSON logger whose output is kept in memory so
// tests can assert on what an engine logged.
type TestLogger struct {
	*zerolog.Logger

	mu  sync.Mutex
	buf bytes.Buffer
}

// Write implements io.Writer. Engines may log from worker goroutines.
func (tl *TestLogger) Write(p []byte) (int, error) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.buf.Write(p)
}

// NewTestLogger returns a TestLogger. The global level is lowered to trace
// for the duration of the test.
func NewTestLogger(t testing.TB) *TestLogger {
	t.Helper()

	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	tl := &TestLogger{}
	logger := zerolog.New(tl).Level(zerolog.TraceLevel).With().Timestamp().Logger()
	tl.Logger = &logger
	return tl
}

// Output returns everything logged so far.
func (tl *TestLogger) Output() string {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.buf.String()
}

// Lines returns the raw log lines.
func (tl *TestLogger) Lines() []string {
	out := strings.TrimSpace(tl.Output())
	if out == "" {
		return []string{}
	}
	return strings.Split(out, "\n")
}

// Entries decodes every log line. Lines that are not JSON are skipped.
func (tl *TestLogger) Entries() []Entry {
	lines := tl.Lines()
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		var e Entry
		if json.Unmarshal([]byte(line), &e) == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

// Find returns the entries logged with msg.
func (tl *TestLogger) Find(msg string) []Entry {
	var found []Entry
	for _, e := range tl.Entries() {
		if e.Message() == msg {
			found = append(found, e)
		}
	}
	return found
}

// AssertContains fails the test unless the raw output contains substr.
func (tl *TestLogger) AssertContains(t testing.TB, substr string) {
	t.Helper()
	if out := tl.Output(); !strings.Contains(out, substr) {
		t.Errorf("log output does not contain %q\noutput:\n%s", substr, out)
	}
}

// AssertLogged fails the test unless msg was logged at level.
func (tl *TestLogger) AssertLogged(t testing.TB, level zerolog.Level, msg string) {
	t.Helper()
	for _, e := range tl.Find(msg) {
		if e.Level() == level.String() {
			return
		}
	}
	t.Errorf("no %s entry with message %q\noutput:\n%s", level, msg, tl.Output())
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
