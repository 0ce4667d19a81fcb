// Package survivorship chooses the golden value of a single field from the
// values reported by competing source systems.
//
// Selection order: a manual override always wins; otherwise empty values
// are dropped (unless disabled), a custom rule may decide, and finally the
// value from the most trusted source survives, with the freshest value
// breaking ties inside the top priority tier.
package survivorship

import (
	"math"
	"sort"
	"time"

	"github.com/ledgerline/mdm/pkg/authority"
	"github.com/ledgerline/mdm/pkg/constants"
	"github.com/ledgerline/mdm/pkg/records"
)

// RuleName identifies which survivorship step decided a field.
type RuleName string

// Survivorship rules.
const (
	RuleManualOverride        RuleName = "manual_override"
	RuleNoValues              RuleName = "no_values"
	RuleCustom                RuleName = "custom_rule"
	RuleSourcePriority        RuleName = "source_priority"
	RuleFreshestAmongPriority RuleName = "freshest_among_priority"
)

// ManualOverrideSource is the chosen source reported for overridden fields.
const ManualOverrideSource = "manual_override"

// CustomRuleSource is reported when a custom rule returns a value no source supplied.
const CustomRuleSource = "custom_rule"

// SourceValue is one source system's value for a field.
type SourceValue struct {
	Source   string        `json:"source" yaml:"source"`
	SourceID string        `json:"source_id,omitempty" yaml:"source_id,omitempty"`
	Value    records.Value `json:"value" yaml:"value"`
	AsOf     time.Time     `json:"as_of" yaml:"as_of"`
}

// CustomRuleFunc may pick a value from the candidates. Returning false
// defers to source priority.
type CustomRuleFunc func(field string, candidates []SourceValue) (records.Value, bool)

// Rule configures survivorship for a field.
type Rule struct {
	SourcePriority []string       `json:"source_priority,omitempty" yaml:"source_priority,omitempty"`
	PreferNonNull  *bool          `json:"prefer_non_null,omitempty" yaml:"prefer_non_null,omitempty"`
	PreferFreshest *bool          `json:"prefer_freshest,omitempty" yaml:"prefer_freshest,omitempty"`
	CustomRuleName string         `json:"custom_rule,omitempty" yaml:"custom_rule,omitempty"`
	CustomRule     CustomRuleFunc `json:"-" yaml:"-"`
}

func (r *Rule) preferNonNull() bool {
	return r == nil || r.PreferNonNull == nil || *r.PreferNonNull
}

func (r *Rule) preferFreshest() bool {
	return r == nil || r.PreferFreshest == nil || *r.PreferFreshest
}

func (r *Rule) ranking() *authority.Ranking {
	if r == nil {
		return authority.NewRanking(nil)
	}
	return authority.NewRanking(r.SourcePriority)
}

// FieldDecision records how a field's golden value was chosen.
type FieldDecision struct {
	Field        string        `json:"field" yaml:"field"`
	ChosenValue  records.Value `json:"chosen_value" yaml:"chosen_value"`
	ChosenSource string        `json:"chosen_source" yaml:"chosen_source"`
	ChosenAsOf   time.Time     `json:"chosen_as_of,omitempty" yaml:"chosen_as_of,omitempty"`
	Rule         RuleName      `json:"rule" yaml:"rule"`
	Confidence   int           `json:"confidence" yaml:"confidence"`
	Alternatives []SourceValue `json:"alternatives" yaml:"alternatives"`
}

// SelectValue chooses the golden value for field. A nil rule uses the
// defaults: global source priority, prefer non-null, prefer freshest.
func SelectValue(field string, values []SourceValue, override *records.Override, rule *Rule) FieldDecision {
	candidates := values
	if rule.preferNonNull() {
		var nonEmpty []SourceValue
		for _, v := range values {
			if !records.IsEmpty(v.Value) {
				nonEmpty = append(nonEmpty, v)
			}
		}
		if len(nonEmpty) > 0 {
			candidates = nonEmpty
		}
	}

	if override != nil {
		return FieldDecision{
			Field:        field,
			ChosenValue:  override.Value,
			ChosenSource: ManualOverrideSource,
			ChosenAsOf:   override.OverriddenAt,
			Rule:         RuleManualOverride,
			Confidence:   constants.OverrideConfidence,
			Alternatives: copyValues(candidates),
		}
	}

	if len(candidates) == 0 {
		return FieldDecision{
			Field:        field,
			Rule:         RuleNoValues,
			Confidence:   0,
			Alternatives: []SourceValue{},
		}
	}

	if rule != nil && rule.CustomRule != nil {
		if v, ok := rule.CustomRule(field, copyValues(candidates)); ok {
			d := FieldDecision{
				Field:        field,
				ChosenValue:  v,
				ChosenSource: CustomRuleSource,
				Rule:         RuleCustom,
				Confidence:   constants.CustomRuleConfidence,
			}
			chosen := -1
			for i, c := range candidates {
				if records.EqualFold(c.Value, v) {
					chosen = i
					d.ChosenSource = c.Source
					d.ChosenAsOf = c.AsOf
					break
				}
			}
			d.Alternatives = without(candidates, chosen)
			return d
		}
	}

	ranking := rule.ranking()
	ordered := make([]int, len(candidates))
	for i := range ordered {
		ordered[i] = i
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ranking.Rank(candidates[ordered[i]].Source) < ranking.Rank(candidates[ordered[j]].Source)
	})

	chosen := ordered[0]
	ruleName := RuleSourcePriority
	topRank := ranking.Rank(candidates[chosen].Source)
	var tier []int
	for _, i := range ordered {
		if ranking.Rank(candidates[i].Source) != topRank {
			break
		}
		tier = append(tier, i)
	}
	if len(tier) > 1 && rule.preferFreshest() {
		ruleName = RuleFreshestAmongPriority
		for _, i := range tier[1:] {
			if candidates[i].AsOf.After(candidates[chosen].AsOf) {
				chosen = i
			}
		}
	}

	winner := candidates[chosen]
	return FieldDecision{
		Field:        field,
		ChosenValue:  winner.Value,
		ChosenSource: winner.Source,
		ChosenAsOf:   winner.AsOf,
		Rule:         ruleName,
		Confidence:   Confidence(winner.Value, candidates),
		Alternatives: without(candidates, chosen),
	}
}

// Confidence scores agreement between the chosen value and the candidates:
// 85 for a lone candidate, otherwise 70 plus 30 times the share of
// candidates equal to the chosen value (strings compared case-insensitively).
func Confidence(chosen records.Value, candidates []SourceValue) int {
	switch len(candidates) {
	case 0:
		return 0
	case 1:
		return constants.SingleSourceConfidence
	}
	agree := 0
	for _, c := range candidates {
		if records.EqualFold(c.Value, chosen) {
			agree++
		}
	}
	ratio := float64(agree) / float64(len(candidates))
	return clamp(int(math.Round(constants.AgreementBaseConfidence + ratio*constants.AgreementSpan)))
}

func clamp(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

func without(values []SourceValue, skip int) []SourceValue {
	out := make([]SourceValue, 0, len(values))
	for i, v := range values {
		if i != skip {
			out = append(out, v)
		}
	}
	return out
}

func copyValues(values []SourceValue) []SourceValue {
	return append([]SourceValue{}, values...)
}
