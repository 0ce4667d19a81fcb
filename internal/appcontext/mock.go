package appcontext

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ledgerline/mdm"
	"github.com/ledgerline/mdm/pkg/logging"
)

// Mock provides a mock implementation of Interface for testing.
// A nil function field yields a zero value.
type Mock struct {
	ClientFunc func() (mdm.Client, error)
	SaveFunc   func(context.Context) error
	LoggerFunc func() *zerolog.Logger
	Format     string
	User       string

	// Saves counts calls to Save.
	Saves int
}

var _ Interface = (*Mock)(nil)

// Client returns the client from ClientFunc or a fresh in-memory client.
func (m *Mock) Client() (mdm.Client, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc()
	}
	return mdm.New(mdm.WithLogger(logging.NewNopLogger()))
}

// Save records the call and delegates to SaveFunc.
func (m *Mock) Save(ctx context.Context) error {
	m.Saves++
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx)
	}
	return nil
}

// Logger returns the logger from LoggerFunc or a nop logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	return logging.NewNopLogger()
}

// OutputFormat returns Format.
func (m *Mock) OutputFormat() string { return m.Format }

// Actor returns User.
func (m *Mock) Actor() string { return m.User }

// Version returns a fixed test version.
func (m *Mock) Version() string { return "test" }

// Commit returns a fixed test commit.
func (m *Mock) Commit() string { return "none" }

// Date returns a fixed test date.
func (m *Mock) Date() string { return "unknown" }

// BuiltBy returns a fixed builder name.
func (m *Mock) BuiltBy() string { return "test" }
