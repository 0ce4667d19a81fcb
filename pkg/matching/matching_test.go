package matching_test

import (
	"fmt"
	"testing"

	"github.com/ledgerline/mdm/pkg/matching"
	"github.com/ledgerline/mdm/pkg/records"
	"github.com/ledgerline/mdm/pkg/similarity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func person(id string, fields map[string]records.Value) *records.Record {
	return &records.Record{
		ID:         id,
		RecordType: records.RecordTypePerson,
		Status:     records.StatusActive,
		Chosen:     fields,
	}
}

func TestScoreExactDuplicateScenario(t *testing.T) {
	cfg := matching.DefaultRegistry().Config(records.RecordTypePerson)
	a := person("per-a", map[string]records.Value{
		"email": "ann.lee@example.com", "lastName": "Lee", "firstName": "Ann", "phone": "617-555-0100",
	})
	b := person("per-b", map[string]records.Value{
		"email": "ANN.LEE@example.com ", "lastName": "lee", "firstName": "Ann", "phone": "617-555-0199",
	})

	res := matching.Score(a, b, cfg)
	assert.GreaterOrEqual(t, res.MatchScore, cfg.Threshold)
	assert.InDelta(t, 0.25+0.20+0.15+0.15*(1-2.0/12.0), res.MatchScore, 1e-9)

	fields := make([]string, 0, len(res.Reasons))
	for _, r := range res.Reasons {
		fields = append(fields, r.Field)
	}
	assert.Equal(t, []string{"email", "firstName", "lastName", "phone"}, fields)
	assert.Equal(t, "ANN.LEE@example.com ", res.Reasons[0].ValueB)

	results := matching.FindCandidates([]*records.Record{a, b}, records.RecordTypePerson, cfg)
	require.Len(t, results, 1)
	assert.Equal(t, "per-a", results[0].IDA)
	assert.Equal(t, "per-b", results[0].IDB)
}

func TestScoreSymmetric(t *testing.T) {
	cfg := matching.DefaultRegistry().Config(records.RecordTypePerson)
	a := person("a", map[string]records.Value{"lastName": "Alvarez", "firstName": "Jon", "ssn": "123"})
	b := person("b", map[string]records.Value{"lastName": "Alvares", "firstName": "John", "dateOfBirth": "1970-01-01"})
	assert.Equal(t, matching.Score(a, b, cfg).MatchScore, matching.Score(b, a, cfg).MatchScore)
}

func TestScoreFuzzyReasonThreshold(t *testing.T) {
	cfg := matching.Config{
		Weights:     map[string]float64{"name": 1},
		FuzzyFields: []string{"name"},
	}
	near := matching.Score(person("a", map[string]records.Value{"name": "Smith"}), person("b", map[string]records.Value{"name": "Smyth"}), cfg)
	require.Len(t, near.Reasons, 1)
	assert.InDelta(t, 0.8, near.MatchScore, 1e-9)

	far := matching.Score(person("a", map[string]records.Value{"name": "Smith"}), person("b", map[string]records.Value{"name": "Jones"}), cfg)
	assert.Empty(t, far.Reasons)
	assert.Less(t, far.MatchScore, 0.7)
}

func TestScoreMissingValuesStayInDenominator(t *testing.T) {
	cfg := matching.DefaultRegistry().Config(records.RecordTypePerson)
	a := person("a", map[string]records.Value{"email": "x@y.com"})
	b := person("b", map[string]records.Value{"email": "x@y.com"})
	assert.InDelta(t, 0.25, matching.Score(a, b, cfg).MatchScore, 1e-9)

	empty := matching.Score(person("a", nil), person("b", nil), matching.Config{})
	assert.Equal(t, 0.0, empty.MatchScore)
}

func TestScoreWithNormalizer(t *testing.T) {
	base := matching.DefaultRegistry()
	reg := base.With(records.RecordTypePerson, matching.Override{
		Normalizers: map[string]string{"phone": similarity.NormalizePhone},
	})
	a := person("a", map[string]records.Value{"phone": "(617) 555-0100"})
	b := person("b", map[string]records.Value{"phone": "617.555.0100"})

	without := matching.Score(a, b, base.Config(records.RecordTypePerson))
	with := matching.Score(a, b, reg.Config(records.RecordTypePerson))
	assert.InDelta(t, 0.15, with.MatchScore, 1e-9)
	assert.Less(t, without.MatchScore, with.MatchScore)
	assert.Equal(t, "(617) 555-0100", with.Reasons[0].ValueA)
}

func TestFindCandidatesThresholdAndExclusion(t *testing.T) {
	cfg := matching.DefaultRegistry().Config(records.RecordTypePerson)
	same := map[string]records.Value{"email": "a@b.com", "lastName": "Lee", "firstName": "Ann", "phone": "6175550100", "dateOfBirth": "1980-01-01"}

	active1 := person("p1", same)
	active2 := person("p2", same)
	merged := person("p3", same)
	merged.Status = records.StatusMerged
	merged.MergedIntoID = "p1"
	pointer := person("p4", same)
	pointer.MergedIntoID = "p2"
	other := person("p5", map[string]records.Value{"email": "z@z.com", "lastName": "Zed"})
	entity := &records.Record{ID: "e1", RecordType: records.RecordTypeEntity, Chosen: same}

	results := matching.FindCandidates([]*records.Record{active1, merged, other, pointer, active2, entity, nil}, records.RecordTypePerson, cfg)
	require.Len(t, results, 1)
	assert.Equal(t, "p1", results[0].IDA)
	assert.Equal(t, "p2", results[0].IDB)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.MatchScore, cfg.Threshold)
		assert.NotContains(t, []string{r.IDA, r.IDB}, "p3")
		assert.NotContains(t, []string{r.IDA, r.IDB}, "p4")
	}

	assert.Empty(t, matching.FindCandidates([]*records.Record{active1}, records.RecordTypePerson, cfg))
	assert.NotNil(t, matching.FindCandidates(nil, records.RecordTypePerson, cfg))
}

func syntheticPeople(n int) []*records.Record {
	lasts := []string{"Lee", "Leigh", "Smith", "Smyth", "Okafor"}
	firsts := []string{"Ann", "Anne", "Bo"}
	out := make([]*records.Record, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, person(fmt.Sprintf("per-%03d", i), map[string]records.Value{
			"lastName":    lasts[i%len(lasts)],
			"firstName":   firsts[i%len(firsts)],
			"email":       fmt.Sprintf("user%d@example.com", i%7),
			"phone":       fmt.Sprintf("617555%04d", i%11),
			"dateOfBirth": fmt.Sprintf("1980-01-%02d", 1+i%4),
		}))
	}
	return out
}

func TestFindCandidatesDeterministicAcrossSharding(t *testing.T) {
	cfg := matching.DefaultRegistry().Config(records.RecordTypePerson)
	recs := syntheticPeople(150)

	sequential := matching.FindCandidates(recs, records.RecordTypePerson, cfg, matching.WithWorkers(1), matching.WithShardSize(1000))
	require.NotEmpty(t, sequential)

	for _, tc := range []struct{ workers, shard int }{{2, 1}, {8, 7}, {3, 64}} {
		t.Run(fmt.Sprintf("workers=%d shard=%d", tc.workers, tc.shard), func(t *testing.T) {
			parallel := matching.FindCandidates(recs, records.RecordTypePerson, cfg, matching.WithWorkers(tc.workers), matching.WithShardSize(tc.shard))
			assert.Equal(t, sequential, parallel)
		})
	}

	again := matching.FindCandidates(recs, records.RecordTypePerson, cfg)
	assert.Equal(t, sequential, again)

	for i := 1; i < len(sequential); i++ {
		prev, cur := sequential[i-1], sequential[i]
		assert.True(t, prev.MatchScore > cur.MatchScore ||
			(prev.MatchScore == cur.MatchScore && (prev.IDA < cur.IDA || (prev.IDA == cur.IDA && prev.IDB < cur.IDB))))
	}
}

func TestRegistry(t *testing.T) {
	reg := matching.DefaultRegistry()
	require.NoError(t, reg.Validate())

	for _, rt := range records.RecordTypes() {
		cfg := reg.Config(rt)
		assert.InDelta(t, 1.0, cfg.TotalWeight(), 1e-9, rt)
		assert.Greater(t, cfg.Threshold, 0.0)
	}

	threshold := 0.9
	tuned := reg.With(records.RecordTypeAsset, matching.Override{
		Weights:   map[string]float64{"ticker": 0.05, "exchange": 0.1},
		Threshold: &threshold,
	})
	asset := tuned.Config(records.RecordTypeAsset)
	assert.Equal(t, 0.9, asset.Threshold)
	assert.Equal(t, 0.05, asset.Weights["ticker"])
	assert.Equal(t, 0.1, asset.Weights["exchange"])
	assert.Equal(t, 0.35, asset.Weights["isin"])
	assert.Equal(t, 0.70, reg.Config(records.RecordTypeAsset).Threshold, "original registry untouched")

	mutated := reg.Config(records.RecordTypePerson)
	mutated.Weights["email"] = 99
	assert.Equal(t, 0.25, reg.Config(records.RecordTypePerson).Weights["email"])

	bad := 1.5
	assert.Error(t, reg.With(records.RecordTypePerson, matching.Override{Threshold: &bad}).Validate())
	assert.Error(t, reg.With(records.RecordTypePerson, matching.Override{Normalizers: map[string]string{"phone": "soundex"}}).Validate())
	assert.Error(t, reg.With(records.RecordTypePerson, matching.Override{Weights: map[string]float64{"phone": -1}}).Validate())
}

func TestConfigIsFuzzy(t *testing.T) {
	cfg := matching.Config{FuzzyFields: []string{"a", "b"}, ExactFields: []string{"b"}}
	assert.True(t, cfg.IsFuzzy("a"))
	assert.False(t, cfg.IsFuzzy("b"))
	assert.False(t, cfg.IsFuzzy("c"))
}

func TestEngine(t *testing.T) {
	eng := matching.NewEngine(nil, matching.WithWorkers(2))
	recs := syntheticPeople(20)
	assert.Equal(t,
		matching.FindCandidates(recs, records.RecordTypePerson, matching.DefaultRegistry().Config(records.RecordTypePerson)),
		eng.FindCandidates(recs, records.RecordTypePerson))
	assert.Equal(t, eng.Score(recs[0], recs[1]).MatchScore, eng.Score(recs[1], recs[0]).MatchScore)
}
