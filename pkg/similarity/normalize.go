package similarity

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ledgerline/mdm/pkg/records"
	"golang.org/x/text/unicode/norm"
)

// Normalizer rewrites a value into a canonical form before comparison.
type Normalizer func(records.Value) records.Value

// Normalizer names accepted in matching configs and normalization rules.
const (
	NormalizeName       = "name"
	NormalizeEmail      = "email"
	NormalizePhone      = "phone"
	NormalizeIdentifier = "identifier"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	nonDigitRe   = regexp.MustCompile(`\D`)
	idNoiseRe    = regexp.MustCompile(`[\s\-./]`)
)

var nameSuffixes = []string{"jr", "sr", "ii", "iii", "iv", "phd", "md", "esq", "cpa"}

var normalizers = map[string]Normalizer{
	NormalizeName:       stringNormalizer(normalizeName),
	NormalizeEmail:      stringNormalizer(func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }),
	NormalizePhone:      stringNormalizer(func(s string) string { return nonDigitRe.ReplaceAllString(s, "") }),
	NormalizeIdentifier: stringNormalizer(func(s string) string { return strings.ToUpper(idNoiseRe.ReplaceAllString(s, "")) }),
}

// Lookup returns the named normalizer.
func Lookup(name string) (Normalizer, bool) {
	n, ok := normalizers[name]
	return n, ok
}

// Normalize applies the named normalizer to v. Unknown names and nil
// values pass through unchanged.
func Normalize(name string, v records.Value) records.Value {
	if v == nil {
		return nil
	}
	n, ok := normalizers[name]
	if !ok {
		return v
	}
	return n(v)
}

// Names lists the registered normalizers.
func Names() []string {
	return []string{NormalizeEmail, NormalizeIdentifier, NormalizeName, NormalizePhone}
}

func stringNormalizer(fn func(string) string) Normalizer {
	return func(v records.Value) records.Value {
		s, ok := v.(string)
		if !ok {
			return v
		}
		return fn(s)
	}
}

// normalizeName lower-cases, strips diacritics and honorific suffixes, and
// collapses whitespace.
func normalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return s
	}
	s = stripDiacritics(s)
	s = strings.ReplaceAll(s, ".", "")
	for _, suffix := range nameSuffixes {
		s = strings.TrimSuffix(s, " "+suffix)
		s = strings.TrimSuffix(s, ","+suffix)
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), ",")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
