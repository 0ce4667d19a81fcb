// Package app provides the application context and dependency management
// for the mdm CLI: configuration, logging and the lazily opened client
// over the dataset file.
package app

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ledgerline/mdm"
	"github.com/ledgerline/mdm/internal/appcontext"
	"github.com/ledgerline/mdm/internal/store/files"
	"github.com/ledgerline/mdm/pkg/errors"
	"github.com/ledgerline/mdm/pkg/rules"
)

var _ appcontext.Interface = (*App)(nil)

// App represents the mdm application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger
	out    io.Writer

	// Client and its dataset (lazy-initialized, singleton)
	mu      sync.RWMutex
	client  mdm.Client
	dataset *files.Store
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Version returns the version information.
func (a *App) Version() string { return a.version }

// Commit returns the git commit hash.
func (a *App) Commit() string { return a.commit }

// Date returns the build date.
func (a *App) Date() string { return a.date }

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string { return a.builtBy }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string { return a.config.Format }

// Actor returns the user recorded on jobs and audit events.
func (a *App) Actor() string { return a.config.Actor }

// Client returns the MDM client, opening the dataset on first use.
func (a *App) Client() (mdm.Client, error) {
	a.mu.RLock()
	if a.client != nil {
		c := a.client
		a.mu.RUnlock()
		return c, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.client != nil {
		return a.client, nil
	}

	dataset, err := files.Open(a.config.DataPath)
	if err != nil {
		return nil, err
	}
	set, err := a.ruleSet(dataset)
	if err != nil {
		return nil, err
	}

	c, err := mdm.New(
		mdm.WithStore(dataset),
		mdm.WithRules(set),
		mdm.WithWorkers(a.config.Workers),
		mdm.WithShardSize(a.config.ShardSize),
		mdm.WithStaleAfter(a.config.StaleAfter),
		mdm.WithClientID(a.config.ClientID),
		mdm.WithLogger(a.logger),
	)
	if err != nil {
		return nil, errors.WrapResource("create", "client", "", err)
	}

	a.logger.Debug().
		Str("data", dataset.Path()).
		Str("rules", a.config.RulesPath).
		Msg("Dataset opened")

	a.client = c
	a.dataset = dataset
	return c, nil
}

// ruleSet layers the dataset's own rules over the rules file, if any.
func (a *App) ruleSet(dataset *files.Store) (*rules.Set, error) {
	base, err := rules.LoadSet(a.config.RulesPath)
	if err != nil {
		return nil, err
	}
	embedded := dataset.Rules()
	if len(embedded) == 0 {
		return base, nil
	}
	return rules.Apply(base, embedded)
}

// Save writes the dataset back to disk unless running with --dry-run.
func (a *App) Save(ctx context.Context) error {
	a.mu.RLock()
	dataset := a.dataset
	a.mu.RUnlock()

	if dataset == nil {
		return nil
	}
	if a.config.DryRun {
		a.logger.Info().Str("data", dataset.Path()).Msg("Dry run, dataset not written")
		return nil
	}
	if err := dataset.Save(ctx); err != nil {
		return err
	}
	a.logger.Debug().Str("data", dataset.Path()).Msg("Dataset saved")
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithOutput redirects command output, which defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(a *App) error {
		a.out = w
		return nil
	}
}
