package matcher

import (
	"testing"

	"github.com/ledgerline/mdm/pkg/records"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		pattern     string
		patternType PatternType
		opts        *Options
		wantErr     bool
		wantType    PatternType
	}{
		{name: "valid glob pattern", pattern: "*_id", patternType: Glob, wantType: Glob},
		{name: "valid regex pattern", pattern: "^US.*", patternType: Regex, wantType: Regex},
		{name: "invalid regex pattern", pattern: "[unclosed", patternType: Regex, wantErr: true},
		{name: "auto detect glob", pattern: "address.*", patternType: Auto, wantType: Glob},
		{name: "auto detect regex", pattern: "^\\d{9}$", patternType: Auto, wantType: Regex},
		{name: "case insensitive option", pattern: "email", patternType: Glob, opts: &Options{CaseInsensitive: true}, wantType: Glob},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.patternType, tt.pattern, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if m.Type() != tt.wantType {
				t.Errorf("Type() = %v, want %v", m.Type(), tt.wantType)
			}
			if m.Pattern() != tt.pattern {
				t.Errorf("Pattern() = %q, want %q", m.Pattern(), tt.pattern)
			}
		})
	}
}

func TestMatcher_Match(t *testing.T) {
	tests := []struct {
		name    string
		pt      PatternType
		pattern string
		opts    *Options
		input   string
		want    bool
	}{
		{"glob suffix", Glob, "*Name", nil, "firstName", true},
		{"glob miss", Glob, "*Name", nil, "email", false},
		{"glob fold", Glob, "EMAIL", &Options{CaseInsensitive: true}, "email", true},
		{"regex", Regex, "^[A-Z]{2}", nil, "US0378331005", true},
		{"regex anchored", Regex, "[0-9]{3}", &Options{Anchored: true}, "1234", false},
		{"regex fold", Regex, "^ab$", &Options{CaseInsensitive: true}, "AB", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := MustNew(tt.pt, tt.pattern, tt.opts)
			if got := m.Match(tt.input); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMustNewPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustNew() should panic on an invalid pattern")
		}
	}()
	MustNew(Regex, "(")
}

func TestDefaultFormats(t *testing.T) {
	formats := DefaultFormats()

	find := func(rt records.RecordType, field string) Format {
		t.Helper()
		for _, f := range formats.For(rt) {
			if f.Field == field {
				return f
			}
		}
		t.Fatalf("no format for %s.%s", rt, field)
		return Format{}
	}

	tests := []struct {
		rt    records.RecordType
		field string
		value string
		want  bool
	}{
		{records.RecordTypeAsset, "isin", "US0378331005", true},
		{records.RecordTypeAsset, "isin", "abc", false},
		{records.RecordTypeAsset, "isin", "us0378331005", false},
		{records.RecordTypeAsset, "cusip", "037833100", true},
		{records.RecordTypeAsset, "cusip", "03783310", false},
		{records.RecordTypePerson, "email", "jane@example.com", true},
		{records.RecordTypePerson, "email", "jane@example", false},
		{records.RecordTypePerson, "phone", "+1 (555) 010-0100", true},
		{records.RecordTypePerson, "phone", "555-0100", false},
		{records.RecordTypePerson, "phone", "1234567890123456", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.rt)+"/"+tt.field+"/"+tt.value, func(t *testing.T) {
			if got := find(tt.rt, tt.field).Valid(tt.value); got != tt.want {
				t.Errorf("Valid(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}

	if got := formats.For(records.RecordTypeAccount); len(got) != 0 {
		t.Errorf("account formats = %d, want 0", len(got))
	}
}

func TestFormatsAddReplaces(t *testing.T) {
	formats := NewFormats()
	if err := formats.Add(records.RecordTypeEntity, "taxId", `^[0-9]{9}$`, records.SeverityLow, "tax id", DigitsOnly); err != nil {
		t.Fatal(err)
	}
	if err := formats.Add(records.RecordTypeEntity, "taxId", `^[0-9]{2}-[0-9]{7}$`, records.SeverityHigh, "EIN", nil); err != nil {
		t.Fatal(err)
	}
	got := formats.For(records.RecordTypeEntity)
	if len(got) != 1 {
		t.Fatalf("formats = %d, want 1", len(got))
	}
	if got[0].Severity != records.SeverityHigh || !got[0].Valid("12-3456789") {
		t.Errorf("format was not replaced: %+v", got[0])
	}
	if err := formats.Add(records.RecordTypeEntity, "bad", "(", records.SeverityLow, "", nil); err == nil {
		t.Error("Add() should reject an invalid pattern")
	}
}

func TestDigitsOnly(t *testing.T) {
	if got := DigitsOnly("+1 (555) 010-0100"); got != "15550100100" {
		t.Errorf("DigitsOnly() = %q", got)
	}
}
