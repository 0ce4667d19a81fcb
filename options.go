package mdm

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ledgerline/mdm/internal/store/memory"
	"github.com/ledgerline/mdm/pkg/constants"
	"github.com/ledgerline/mdm/pkg/logging"
	"github.com/ledgerline/mdm/pkg/matching"
	"github.com/ledgerline/mdm/pkg/rules"
	"github.com/ledgerline/mdm/pkg/store"
)

// Option is a function that configures a Client.
type Option func(*config) error

type config struct {
	store      store.Store
	rules      *rules.Set
	registry   *matching.Registry
	workers    int
	shardSize  int
	now        func() time.Time
	newID      func() string
	logger     *zerolog.Logger
	staleAfter time.Duration
	clientID   string
}

func defaultConfig() *config {
	return &config{
		workers:    constants.DefaultWorkers,
		shardSize:  constants.DefaultShardSize,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
		staleAfter: constants.StaleAfter,
	}
}

// finish fills in collaborators that were not configured.
func (c *config) finish() {
	if c.store == nil {
		c.store = memory.New()
	}
	if c.rules == nil {
		c.rules = rules.DefaultSet()
	}
	if c.registry != nil {
		c.rules = &rules.Set{Matching: c.registry, Survivorship: c.rules.Survivorship}
	}
	c.logger = logging.OrDefault(c.logger)
}

// WithStore configures the store. Defaults to an empty in-memory store.
func WithStore(s store.Store) Option {
	return func(c *config) error {
		if s == nil {
			return fmt.Errorf("store must not be nil")
		}
		c.store = s
		return nil
	}
}

// WithRules configures the effective rule set.
func WithRules(set *rules.Set) Option {
	return func(c *config) error {
		c.rules = set
		return nil
	}
}

// WithMatchingRegistry replaces the matching registry of the rule set.
func WithMatchingRegistry(r *matching.Registry) Option {
	return func(c *config) error {
		if err := r.Validate(); err != nil {
			return err
		}
		c.registry = r
		return nil
	}
}

// WithWorkers configures how many shards the pairwise scan runs at once.
func WithWorkers(n int) Option {
	return func(c *config) error {
		if n < 1 {
			return fmt.Errorf("workers must be positive, got %d", n)
		}
		c.workers = n
		return nil
	}
}

// WithShardSize configures how many rows each scan shard compares.
func WithShardSize(n int) Option {
	return func(c *config) error {
		if n < 1 {
			return fmt.Errorf("shard size must be positive, got %d", n)
		}
		c.shardSize = n
		return nil
	}
}

// WithClock configures the clock used for every timestamp.
func WithClock(now func() time.Time) Option {
	return func(c *config) error {
		c.now = now
		return nil
	}
}

// WithIDGenerator configures how ids for jobs, duplicates, queue items and
// audit events are generated. Defaults to random UUIDs.
func WithIDGenerator(fn func() string) Option {
	return func(c *config) error {
		c.newID = fn
		return nil
	}
}

// WithLogger configures the logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(c *config) error {
		c.logger = l
		return nil
	}
}

// WithStaleAfter configures the age at which source snapshots are stale.
func WithStaleAfter(d time.Duration) Option {
	return func(c *config) error {
		if d <= 0 {
			return fmt.Errorf("stale window must be positive, got %s", d)
		}
		c.staleAfter = d
		return nil
	}
}

// WithClientID tags generated queue items with a client id.
func WithClientID(id string) Option {
	return func(c *config) error {
		c.clientID = id
		return nil
	}
}
