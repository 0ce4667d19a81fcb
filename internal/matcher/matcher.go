// Package matcher compiles the patterns mdm tests values and field names
// against: regexes for data quality formats, globs for field selections.
// A compiled Matcher is immutable and safe for concurrent use.
package matcher

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// PatternType selects how a pattern is interpreted.
type PatternType int

const (
	Glob  PatternType = iota // shell-style: *, ?, [...]
	Regex                    // Go regexp syntax
	Auto                     // Regex if the pattern uses regex-only syntax, else Glob
)

func (pt PatternType) String() string {
	switch pt {
	case Glob:
		return "glob"
	case Regex:
		return "regex"
	case Auto:
		return "auto"
	}
	return "unknown"
}

// Matcher tests a value against one compiled pattern.
type Matcher interface {
	Match(input string) bool
	Pattern() string
	Type() PatternType
}

// Options tune compilation.
type Options struct {
	CaseInsensitive bool
	Anchored        bool // regex only: wrap in ^...$ unless already anchored
}

// New compiles pattern. Auto resolves to Glob or Regex from the pattern itself.
func New(patternType PatternType, pattern string, opts ...*Options) (Matcher, error) {
	var o Options
	if len(opts) > 0 && opts[0] != nil {
		o = *opts[0]
	}
	if patternType == Auto {
		patternType = detectPatternType(pattern)
	}
	switch patternType {
	case Glob:
		return newGlob(pattern, o)
	case Regex:
		return newRegex(pattern, o)
	}
	return nil, fmt.Errorf("unsupported pattern type: %v", patternType)
}

// MustNew is New for patterns known to be valid. It panics otherwise.
func MustNew(patternType PatternType, pattern string, opts ...*Options) Matcher {
	m, err := New(patternType, pattern, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

type globMatcher struct {
	pattern string
	glob    string
	fold    bool
}

func newGlob(pattern string, o Options) (*globMatcher, error) {
	g := &globMatcher{pattern: pattern, glob: pattern, fold: o.CaseInsensitive}
	if g.fold {
		g.glob = strings.ToLower(pattern)
	}
	if _, err := path.Match(g.glob, ""); err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}
	return g, nil
}

func (g *globMatcher) Match(input string) bool {
	if g.fold {
		input = strings.ToLower(input)
	}
	ok, _ := path.Match(g.glob, input)
	return ok
}

func (g *globMatcher) Pattern() string   { return g.pattern }
func (g *globMatcher) Type() PatternType { return Glob }

type regexMatcher struct {
	pattern string
	re      *regexp.Regexp
}

func newRegex(pattern string, o Options) (*regexMatcher, error) {
	expr := pattern
	if o.Anchored {
		expr = "^(?:" + strings.TrimSuffix(strings.TrimPrefix(expr, "^"), "$") + ")$"
	}
	if o.CaseInsensitive && !strings.HasPrefix(expr, "(?i)") {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
	}
	return &regexMatcher{pattern: pattern, re: re}, nil
}

func (r *regexMatcher) Match(input string) bool { return r.re.MatchString(input) }
func (r *regexMatcher) Pattern() string         { return r.pattern }
func (r *regexMatcher) Type() PatternType       { return Regex }

// regexOnly lists syntax that never appears in a glob.
var regexOnly = []string{
	"^", "$", `\d`, `\w`, `\s`, `\D`, `\W`, `\S`,
	"(?", "{", "}", "+", "|", "(", ")",
}

func detectPatternType(pattern string) PatternType {
	for _, s := range regexOnly {
		if strings.Contains(pattern, s) {
			return Regex
		}
	}
	return Glob
}

// IsRegexPattern reports whether Auto would compile pattern as a regex.
func IsRegexPattern(pattern string) bool {
	return detectPatternType(pattern) == Regex
}
