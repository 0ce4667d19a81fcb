package matching

import (
	"fmt"
	"sort"

	"github.com/ledgerline/mdm/pkg/constants"
	"github.com/ledgerline/mdm/pkg/logging"
	"github.com/ledgerline/mdm/pkg/records"
	"github.com/ledgerline/mdm/pkg/similarity"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Result is a scored record pair.
type Result struct {
	IDA        string                `json:"id_a" yaml:"id_a"`
	IDB        string                `json:"id_b" yaml:"id_b"`
	MatchScore float64               `json:"match_score" yaml:"match_score"`
	Reasons    []records.MatchReason `json:"reasons" yaml:"reasons"`
}

// Score compares two records field by field under cfg.
func Score(a, b *records.Record, cfg Config) Result {
	res := Result{IDA: a.ID, IDB: b.ID, Reasons: []records.MatchReason{}}

	var weighted, total float64
	for _, field := range cfg.Fields() {
		weight := cfg.Weights[field]
		total += weight

		va, vb := a.Get(field), b.Get(field)
		ca, cb := va, vb
		if n, ok := cfg.Normalizers[field]; ok {
			ca, cb = similarity.Normalize(n, va), similarity.Normalize(n, vb)
		}

		if cfg.IsFuzzy(field) {
			s := similarity.FuzzyMatch(ca, cb)
			weighted += s * weight
			if s >= constants.FuzzyReasonThreshold {
				res.Reasons = append(res.Reasons, records.MatchReason{
					Field:      field,
					ReasonText: fmt.Sprintf("%s is %.0f%% similar", field, s*100),
					Weight:     weight,
					ValueA:     va,
					ValueB:     vb,
				})
			}
			continue
		}

		s := similarity.ExactMatch(ca, cb)
		weighted += s * weight
		if s == 1 {
			res.Reasons = append(res.Reasons, records.MatchReason{
				Field:      field,
				ReasonText: fmt.Sprintf("%s matches exactly", field),
				Weight:     weight,
				ValueA:     va,
				ValueB:     vb,
			})
		}
	}

	if total > 0 {
		res.MatchScore = weighted / total
	}
	return res
}

// Option configures FindCandidates.
type Option func(*options)

type options struct {
	workers   int
	shardSize int
	logger    *zerolog.Logger
}

// WithWorkers bounds the number of shards compared concurrently.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithShardSize sets how many left-hand rows each shard compares.
func WithShardSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.shardSize = n
		}
	}
}

// WithLogger sets the logger used for scan diagnostics.
func WithLogger(l *zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Eligible returns the records of type rt that may take part in matching,
// preserving input order. Merged records are excluded.
func Eligible(recs []*records.Record, rt records.RecordType) []*records.Record {
	out := make([]*records.Record, 0, len(recs))
	for _, r := range recs {
		if r == nil || r.RecordType != rt || r.IsMerged() {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FindCandidates scores every unordered pair of eligible records of type rt
// and returns those at or above the threshold, best first.
func FindCandidates(recs []*records.Record, rt records.RecordType, cfg Config, opts ...Option) []Result {
	o := options{workers: constants.DefaultWorkers, shardSize: constants.DefaultShardSize}
	for _, opt := range opts {
		opt(&o)
	}
	log := logging.OrDefault(o.logger)

	eligible := Eligible(recs, rt)
	n := len(eligible)
	if n < 2 {
		return []Result{}
	}

	shards := (n + o.shardSize - 1) / o.shardSize
	found := make([][]Result, shards)

	var g errgroup.Group
	g.SetLimit(o.workers)
	for s := 0; s < shards; s++ {
		start := s * o.shardSize
		end := min(start+o.shardSize, n)
		g.Go(func() error {
			var local []Result
			for i := start; i < end; i++ {
				for j := i + 1; j < n; j++ {
					r := Score(eligible[i], eligible[j], cfg)
					if r.MatchScore >= cfg.Threshold {
						local = append(local, r)
					}
				}
			}
			found[s] = local
			return nil
		})
	}
	_ = g.Wait()

	var results []Result
	for _, part := range found {
		results = append(results, part...)
	}
	if results == nil {
		results = []Result{}
	}
	Sort(results)

	log.Debug().
		Str("record_type", string(rt)).
		Int("records", n).
		Int("shards", shards).
		Int("candidates", len(results)).
		Float64("threshold", cfg.Threshold).
		Msg("Pairwise scan complete")

	return results
}

// Sort orders results by score descending, then IDA, then IDB.
func Sort(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.MatchScore != b.MatchScore {
			return a.MatchScore > b.MatchScore
		}
		if a.IDA != b.IDA {
			return a.IDA < b.IDA
		}
		return a.IDB < b.IDB
	})
}
