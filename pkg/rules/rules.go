// Package rules loads rule overrides and applies them on top of the
// built-in matching, normalization and survivorship configuration.
//
// Rules are read-only input: applying them builds a new Set and never
// changes the rules or the base configuration.
package rules

import (
	"fmt"
	"sort"

	"github.com/go-viper/mapstructure/v2"

	"github.com/ledgerline/mdm/pkg/errors"
	"github.com/ledgerline/mdm/pkg/matching"
	"github.com/ledgerline/mdm/pkg/records"
	"github.com/ledgerline/mdm/pkg/survivorship"
)

// RuleType says which engine a rule configures.
type RuleType string

// Rule types.
const (
	RuleTypeMatching      RuleType = "matching"
	RuleTypeNormalization RuleType = "normalization"
	RuleTypeSurvivorship  RuleType = "survivorship"
)

// MdmRule is one configured override.
type MdmRule struct {
	ID        string             `json:"id" yaml:"id"`
	Name      string             `json:"name" yaml:"name"`
	RuleType  RuleType           `json:"rule_type" yaml:"rule_type"`
	AppliesTo records.RecordType `json:"applies_to" yaml:"applies_to"`
	Priority  int                `json:"priority" yaml:"priority"`
	Active    bool               `json:"active" yaml:"active"`
	Config    map[string]any     `json:"config" yaml:"config"`
}

// NormalizationConfig maps fields to normalizer names.
type NormalizationConfig struct {
	Fields map[string]string `mapstructure:"fields"`
}

// FieldRule is the survivorship configuration of one field pattern.
type FieldRule struct {
	SourcePriority []string `mapstructure:"source_priority"`
	PreferNonNull  *bool    `mapstructure:"prefer_non_null"`
	PreferFreshest *bool    `mapstructure:"prefer_freshest"`
	CustomRule     string   `mapstructure:"custom_rule"`
}

// SurvivorshipConfig maps field patterns to rules.
type SurvivorshipConfig struct {
	Fields map[string]FieldRule `mapstructure:"fields"`
}

// Set is the effective configuration for every record type.
type Set struct {
	Matching     *matching.Registry
	Survivorship map[records.RecordType]*survivorship.RuleSet
}

// DefaultSet returns the built-in configuration: the default matching
// registry and no per-field survivorship rules.
func DefaultSet() *Set {
	return &Set{
		Matching:     matching.DefaultRegistry(),
		Survivorship: make(map[records.RecordType]*survivorship.RuleSet),
	}
}

// RuleSet returns the survivorship rules for a record type; never nil.
func (s *Set) RuleSet(rt records.RecordType) *survivorship.RuleSet {
	if s == nil || s.Survivorship[rt] == nil {
		return survivorship.NewRuleSet()
	}
	return s.Survivorship[rt]
}

func (s *Set) clone() *Set {
	out := &Set{
		Matching:     s.Matching,
		Survivorship: make(map[records.RecordType]*survivorship.RuleSet, len(s.Survivorship)),
	}
	if out.Matching == nil {
		out.Matching = matching.DefaultRegistry()
	}
	for rt, rs := range s.Survivorship {
		out.Survivorship[rt] = rs.Clone()
	}
	return out
}

// Active returns the active rules in the order they are applied: by
// ascending priority, then id. Later rules override earlier ones.
func Active(rules []MdmRule) []MdmRule {
	out := make([]MdmRule, 0, len(rules))
	for _, r := range rules {
		if r.Active {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Apply layers the active rules over base and returns the resulting Set.
// A nil base means DefaultSet.
func Apply(base *Set, rules []MdmRule) (*Set, error) {
	if base == nil {
		base = DefaultSet()
	}
	out := base.clone()
	for _, r := range Active(rules) {
		if !r.AppliesTo.Valid() {
			return nil, errors.NewConfigError("rules", fmt.Sprintf("rule %s applies to unknown record type %q", r.ID, r.AppliesTo), nil)
		}
		if err := out.apply(r); err != nil {
			return nil, errors.NewConfigError("rules", fmt.Sprintf("rule %s (%s): %v", r.ID, r.Name, err), err)
		}
	}
	if err := out.Matching.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Set) apply(r MdmRule) error {
	switch r.RuleType {
	case RuleTypeMatching:
		var o matching.Override
		if err := decode(r.Config, &o); err != nil {
			return err
		}
		s.Matching = s.Matching.With(r.AppliesTo, o)
	case RuleTypeNormalization:
		var c NormalizationConfig
		if err := decode(r.Config, &c); err != nil {
			return err
		}
		s.Matching = s.Matching.With(r.AppliesTo, matching.Override{Normalizers: c.Fields})
	case RuleTypeSurvivorship:
		var c SurvivorshipConfig
		if err := decode(r.Config, &c); err != nil {
			return err
		}
		rs := s.RuleSet(r.AppliesTo).Clone()
		patterns := make([]string, 0, len(c.Fields))
		for p := range c.Fields {
			patterns = append(patterns, p)
		}
		sort.Strings(patterns)
		for _, p := range patterns {
			rule, err := c.Fields[p].resolve()
			if err != nil {
				return fmt.Errorf("field %s: %w", p, err)
			}
			rs.Set(p, rule)
		}
		s.Survivorship[r.AppliesTo] = rs
	default:
		return fmt.Errorf("unknown rule type %q", r.RuleType)
	}
	return nil
}

func (f FieldRule) resolve() (survivorship.Rule, error) {
	rule := survivorship.Rule{
		SourcePriority: append([]string(nil), f.SourcePriority...),
		PreferNonNull:  f.PreferNonNull,
		PreferFreshest: f.PreferFreshest,
		CustomRuleName: f.CustomRule,
	}
	if f.CustomRule != "" {
		fn, ok := survivorship.CustomRules()[f.CustomRule]
		if !ok {
			return rule, fmt.Errorf("unknown custom rule %q", f.CustomRule)
		}
		rule.CustomRule = fn
	}
	return rule, nil
}

func decode(input map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(input); err != nil {
		return errors.WrapValidation("config", err)
	}
	return nil
}
