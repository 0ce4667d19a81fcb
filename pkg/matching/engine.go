package matching

import (
	"github.com/ledgerline/mdm/pkg/records"
)

// Engine binds a Registry to scan options so callers can match by record
// type without carrying configs around.
type Engine struct {
	registry *Registry
	opts     []Option
}

// NewEngine creates an engine over registry. A nil registry uses the defaults.
func NewEngine(registry *Registry, opts ...Option) *Engine {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Engine{registry: registry, opts: opts}
}

// Registry returns the engine's registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Score compares two records using the config of a's record type.
func (e *Engine) Score(a, b *records.Record) Result {
	return Score(a, b, e.registry.Config(a.RecordType))
}

// FindCandidates runs the pairwise scan for one record type.
func (e *Engine) FindCandidates(recs []*records.Record, rt records.RecordType) []Result {
	return FindCandidates(recs, rt, e.registry.Config(rt), e.opts...)
}
