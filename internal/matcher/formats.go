package matcher

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/ledgerline/mdm/pkg/records"
)

// Format is a value format expected of one field of a record type.
type Format struct {
	RecordType  records.RecordType
	Field       string
	Severity    records.Severity
	Description string
	// Prepare rewrites the value before matching; nil leaves it as is.
	Prepare func(string) string
	matcher Matcher
}

// Valid reports whether value satisfies the format.
func (f Format) Valid(value string) bool {
	if f.Prepare != nil {
		value = f.Prepare(value)
	}
	return f.matcher.Match(value)
}

// Pattern returns the underlying pattern.
func (f Format) Pattern() string {
	return f.matcher.Pattern()
}

// Formats holds the compiled formats per record type.
type Formats struct {
	byType map[records.RecordType][]Format
}

// NewFormats returns an empty format table.
func NewFormats() *Formats {
	return &Formats{byType: make(map[records.RecordType][]Format)}
}

// DefaultFormats returns the formats checked out of the box: person email
// and phone, asset ISIN and CUSIP.
func DefaultFormats() *Formats {
	f := NewFormats()
	f.mustAdd(records.RecordTypePerson, "email", `^[^\s@]+@[^\s@]+\.[^\s@]+$`, records.SeverityMedium,
		"email address is not well formed", nil)
	f.mustAdd(records.RecordTypePerson, "phone", `^[0-9]{10,15}$`, records.SeverityLow,
		"phone number must have 10 to 15 digits", DigitsOnly)
	f.mustAdd(records.RecordTypeAsset, "isin", `^[A-Z]{2}[A-Z0-9]{10}$`, records.SeverityMedium,
		"ISIN must be 2 letters followed by 10 alphanumerics", nil)
	f.mustAdd(records.RecordTypeAsset, "cusip", `^[A-Z0-9]{9}$`, records.SeverityMedium,
		"CUSIP must be 9 alphanumerics", nil)
	return f
}

// Add compiles pattern as a regex and registers it for the field,
// replacing any format already registered there.
func (f *Formats) Add(rt records.RecordType, field, pattern string, severity records.Severity, description string, prepare func(string) string) error {
	m, err := New(Regex, pattern)
	if err != nil {
		return fmt.Errorf("format for %s.%s: %w", rt, field, err)
	}
	format := Format{
		RecordType:  rt,
		Field:       field,
		Severity:    severity,
		Description: description,
		Prepare:     prepare,
		matcher:     m,
	}
	list := f.byType[rt]
	for i := range list {
		if list[i].Field == field {
			list[i] = format
			return nil
		}
	}
	list = append(list, format)
	sort.Slice(list, func(i, j int) bool { return list[i].Field < list[j].Field })
	f.byType[rt] = list
	return nil
}

func (f *Formats) mustAdd(rt records.RecordType, field, pattern string, severity records.Severity, description string, prepare func(string) string) {
	if err := f.Add(rt, field, pattern, severity, description, prepare); err != nil {
		panic(err)
	}
}

// For returns the formats of a record type sorted by field.
func (f *Formats) For(rt records.RecordType) []Format {
	if f == nil {
		return nil
	}
	return append([]Format(nil), f.byType[rt]...)
}

// DigitsOnly drops every non-digit rune.
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
