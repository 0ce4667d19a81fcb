// Package appcontext provides the shared application context interface
// used by all commands, so command packages depend on an interface rather
// than on the concrete App.
package appcontext

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ledgerline/mdm"
)

// Interface defines what commands need from the application.
type Interface interface {
	// Client returns the MDM client over the configured dataset, opening
	// it lazily on first use.
	Client() (mdm.Client, error)

	// Save writes the dataset back to disk. It is a no-op in dry-run mode.
	Save(ctx context.Context) error

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table, wide).
	OutputFormat() string

	// Actor is the user name recorded on jobs and audit events.
	Actor() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
