package survivorship_test

import (
	"testing"
	"time"

	"github.com/ledgerline/mdm/pkg/records"
	"github.com/ledgerline/mdm/pkg/survivorship"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	jan = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	feb = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	mar = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
)

func boolPtr(b bool) *bool { return &b }

func TestSelectValueTieBreakScenario(t *testing.T) {
	values := []survivorship.SourceValue{
		{Source: "bank_feed", Value: "A", AsOf: jan},
		{Source: "bank_feed", Value: "B", AsOf: feb},
		{Source: "legacy_import", Value: "C", AsOf: mar},
	}
	d := survivorship.SelectValue("lastName", values, nil, nil)

	assert.Equal(t, "B", d.ChosenValue)
	assert.Equal(t, "bank_feed", d.ChosenSource)
	assert.Equal(t, feb, d.ChosenAsOf)
	assert.Equal(t, survivorship.RuleFreshestAmongPriority, d.Rule)
	assert.Equal(t, 80, d.Confidence)
	require.Len(t, d.Alternatives, 2)
	assert.Equal(t, "A", d.Alternatives[0].Value)
	assert.Equal(t, "C", d.Alternatives[1].Value)
}

func TestSelectValueOverrideDominates(t *testing.T) {
	at := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	override := &records.Override{Value: "X", OverriddenBy: "steward", OverriddenAt: at}
	values := []survivorship.SourceValue{
		{Source: "manual_entry", Value: "Y", AsOf: mar},
		{Source: "custodian_api", Value: "Z", AsOf: mar},
	}
	custom := &survivorship.Rule{CustomRule: func(string, []survivorship.SourceValue) (records.Value, bool) { return "W", true }}

	for _, rule := range []*survivorship.Rule{nil, custom} {
		d := survivorship.SelectValue("email", values, override, rule)
		assert.Equal(t, "X", d.ChosenValue)
		assert.Equal(t, survivorship.ManualOverrideSource, d.ChosenSource)
		assert.Equal(t, survivorship.RuleManualOverride, d.Rule)
		assert.Equal(t, 100, d.Confidence)
		assert.Equal(t, at, d.ChosenAsOf)
	}

	d := survivorship.SelectValue("email", nil, override, nil)
	assert.Equal(t, "X", d.ChosenValue)
	assert.Equal(t, 100, d.Confidence)
}

func TestSelectValueNoValues(t *testing.T) {
	d := survivorship.SelectValue("ssn", nil, nil, nil)
	assert.Nil(t, d.ChosenValue)
	assert.Equal(t, survivorship.RuleNoValues, d.Rule)
	assert.Equal(t, 0, d.Confidence)
	assert.Empty(t, d.Alternatives)
}

func TestSelectValuePreferNonNull(t *testing.T) {
	values := []survivorship.SourceValue{
		{Source: "manual_entry", Value: nil, AsOf: mar},
		{Source: "custodian_api", Value: "  ", AsOf: mar},
		{Source: "legacy_import", Value: "kept", AsOf: jan},
	}

	t.Run("default drops empty values", func(t *testing.T) {
		d := survivorship.SelectValue("phone", values, nil, nil)
		assert.Equal(t, "kept", d.ChosenValue)
		assert.Equal(t, survivorship.RuleSourcePriority, d.Rule)
		assert.Equal(t, 85, d.Confidence)
		assert.Empty(t, d.Alternatives)
	})

	t.Run("disabled keeps empty values", func(t *testing.T) {
		d := survivorship.SelectValue("phone", values, nil, &survivorship.Rule{PreferNonNull: boolPtr(false)})
		assert.Nil(t, d.ChosenValue)
		assert.Equal(t, "manual_entry", d.ChosenSource)
		assert.Equal(t, 80, d.Confidence)
	})

	t.Run("all empty falls back to every value", func(t *testing.T) {
		d := survivorship.SelectValue("phone", values[:2], nil, nil)
		assert.Nil(t, d.ChosenValue)
		assert.Equal(t, survivorship.RuleSourcePriority, d.Rule)
		assert.Equal(t, "manual_entry", d.ChosenSource)
	})
}

func TestSelectValueSourcePriority(t *testing.T) {
	values := []survivorship.SourceValue{
		{Source: "crm_export", Value: "u", AsOf: mar},
		{Source: "refinitiv", Value: "r", AsOf: jan},
		{Source: "bloomberg", Value: "b", AsOf: jan},
	}

	d := survivorship.SelectValue("name", values, nil, nil)
	assert.Equal(t, "b", d.ChosenValue)
	assert.Equal(t, survivorship.RuleSourcePriority, d.Rule)
	assert.Equal(t, 80, d.Confidence)

	d = survivorship.SelectValue("name", values, nil, &survivorship.Rule{SourcePriority: []string{"refinitiv", "bloomberg"}})
	assert.Equal(t, "r", d.ChosenValue)

	tagged := []survivorship.SourceValue{
		{Source: "secondary:legacy_import", Value: "old", AsOf: mar},
		{Source: "primary:custodian_api", Value: "new", AsOf: jan},
	}
	d = survivorship.SelectValue("name", tagged, nil, nil)
	assert.Equal(t, "new", d.ChosenValue)
	assert.Equal(t, "primary:custodian_api", d.ChosenSource)
}

func TestSelectValueFreshestDisabled(t *testing.T) {
	values := []survivorship.SourceValue{
		{Source: "bank_feed", Value: "A", AsOf: jan},
		{Source: "bank_feed", Value: "B", AsOf: feb},
	}
	d := survivorship.SelectValue("x", values, nil, &survivorship.Rule{PreferFreshest: boolPtr(false)})
	assert.Equal(t, "A", d.ChosenValue)
	assert.Equal(t, survivorship.RuleSourcePriority, d.Rule)
}

func TestSelectValueCustomRule(t *testing.T) {
	values := []survivorship.SourceValue{
		{Source: "bank_feed", Value: "Ann Lee", AsOf: jan},
		{Source: "legacy_import", Value: "Ann B. Lee", AsOf: jan},
	}
	rule := &survivorship.Rule{CustomRule: survivorship.CustomRules()[survivorship.CustomLongest]}
	d := survivorship.SelectValue("fullName", values, nil, rule)
	assert.Equal(t, "Ann B. Lee", d.ChosenValue)
	assert.Equal(t, "legacy_import", d.ChosenSource)
	assert.Equal(t, survivorship.RuleCustom, d.Rule)
	assert.Equal(t, 90, d.Confidence)
	require.Len(t, d.Alternatives, 1)

	synth := &survivorship.Rule{CustomRule: func(string, []survivorship.SourceValue) (records.Value, bool) { return "derived", true }}
	d = survivorship.SelectValue("fullName", values, nil, synth)
	assert.Equal(t, survivorship.CustomRuleSource, d.ChosenSource)
	assert.Len(t, d.Alternatives, 2)

	decline := &survivorship.Rule{CustomRule: func(string, []survivorship.SourceValue) (records.Value, bool) { return nil, false }}
	d = survivorship.SelectValue("fullName", values, nil, decline)
	assert.Equal(t, survivorship.RuleSourcePriority, d.Rule)
	assert.Equal(t, "Ann Lee", d.ChosenValue)
}

func TestMostCommon(t *testing.T) {
	mc := survivorship.CustomRules()[survivorship.CustomMostCommon]
	v, ok := mc("x", []survivorship.SourceValue{{Value: "a"}, {Value: "B"}, {Value: "b"}})
	require.True(t, ok)
	assert.Equal(t, "B", v)

	_, ok = mc("x", []survivorship.SourceValue{{Value: "a"}, {Value: "b"}})
	assert.False(t, ok)
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		name       string
		chosen     records.Value
		candidates []records.Value
		want       int
	}{
		{"none", "a", nil, 0},
		{"single", "a", []records.Value{"a"}, 85},
		{"full agreement ignores case", "Lee", []records.Value{"lee", "LEE", "Lee"}, 100},
		{"half", "a", []records.Value{"a", "b"}, 85},
		{"third", "a", []records.Value{"a", "b", "c"}, 80},
		{"structural", map[string]any{"zip": 1}, []records.Value{map[string]any{"zip": 1.0}, "x"}, 85},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cands []survivorship.SourceValue
			for _, v := range tt.candidates {
				cands = append(cands, survivorship.SourceValue{Value: v})
			}
			got := survivorship.Confidence(tt.chosen, cands)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		})
	}
}

func TestRuleSet(t *testing.T) {
	rs := survivorship.NewRuleSet().
		Set("*", survivorship.Rule{SourcePriority: []string{"bank_feed"}}).
		Set("address.*", survivorship.Rule{PreferFreshest: boolPtr(false)}).
		Set("isin", survivorship.Rule{SourcePriority: []string{"bloomberg", "refinitiv"}})

	require.NotNil(t, rs.For("isin"))
	assert.Equal(t, []string{"bloomberg", "refinitiv"}, rs.For("isin").SourcePriority)
	assert.False(t, *rs.For("address.city").PreferFreshest)
	assert.Equal(t, []string{"bank_feed"}, rs.For("email").SourcePriority)
	assert.Equal(t, []string{"*", "address.*", "isin"}, rs.Patterns())

	rs.Set("isin", survivorship.Rule{SourcePriority: []string{"refinitiv"}})
	assert.Equal(t, []string{"refinitiv"}, rs.For("isin").SourcePriority)
	assert.Len(t, rs.Patterns(), 3)

	cp := rs.Clone()
	cp.Set("email", survivorship.Rule{})
	assert.Len(t, rs.Patterns(), 3)
	assert.Len(t, cp.Patterns(), 4)

	var nilSet *survivorship.RuleSet
	assert.Nil(t, nilSet.For("email"))
}
