package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidPattern is wrapped by Compile when URLPattern is not a valid regex
var ErrInvalidPattern = errors.New("invalid url pattern")

// QueryFilter selects entries by request URL.
// URLContains takes precedence over URLPattern; with neither set every entry matches.
type QueryFilter struct {
	// URLPattern is a regular expression searched anywhere in the URL,
	// or compared literally when ExactMatch is set.
	URLPattern string `json:"url_pattern,omitempty"`
	ExactMatch bool   `json:"exact_match,omitempty"`
	// URLContains is a case-sensitive substring.
	URLContains string `json:"url_contains,omitempty"`
}

// Contains returns a filter matching URLs that contain substr
func Contains(substr string) QueryFilter {
	return QueryFilter{URLContains: substr}
}

// Exact returns a filter matching URLs equal to url
func Exact(url string) QueryFilter {
	return QueryFilter{URLPattern: url, ExactMatch: true}
}

// Pattern returns a filter matching URLs in which the regex is found
func Pattern(pattern string) QueryFilter {
	return QueryFilter{URLPattern: pattern}
}

// Endpoint returns a filter matching URLs ending with the literal path
func Endpoint(path string) QueryFilter {
	return Pattern(EndpointPattern(path))
}

// PathExact returns a filter matching URLs ending with the literal path,
// optionally followed by a query string
func PathExact(path string) QueryFilter {
	return Pattern(PathExactPattern(path))
}

// EndpointPattern builds a regex anchoring the escaped path at the end of the URL
func EndpointPattern(path string) string {
	return regexp.QuoteMeta(path) + "$"
}

// PathExactPattern builds a regex anchoring the escaped path at the end of the URL
// while tolerating a trailing query string
func PathExactPattern(path string) string {
	return regexp.QuoteMeta(path) + `(?:\?.*)?$`
}

// IsZero reports whether the filter matches every URL
func (f QueryFilter) IsZero() bool {
	return f.URLContains == "" && f.URLPattern == ""
}

// String describes the active filter mode
func (f QueryFilter) String() string {
	switch {
	case f.URLContains != "":
		return fmt.Sprintf("contains %q", f.URLContains)
	case f.URLPattern != "" && f.ExactMatch:
		return fmt.Sprintf("exact %q", f.URLPattern)
	case f.URLPattern != "":
		return fmt.Sprintf("pattern %q", f.URLPattern)
	default:
		return "all"
	}
}

// Matcher is a compiled QueryFilter
type Matcher struct {
	filter QueryFilter
	re     *regexp.Regexp
}

// Compile validates the filter and compiles its regex when one is needed.
// A regex that fails to compile is returned as an error.
func (f QueryFilter) Compile() (*Matcher, error) {
	m := &Matcher{filter: f}
	if f.URLContains == "" && f.URLPattern != "" && !f.ExactMatch {
		re, err := regexp.Compile(f.URLPattern)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, f.URLPattern, err)
		}
		m.re = re
	}
	return m, nil
}

// MustCompile is like Compile but panics on an invalid pattern
func (f QueryFilter) MustCompile() *Matcher {
	m, err := f.Compile()
	if err != nil {
		panic(err)
	}
	return m
}

// Filter returns the filter the matcher was compiled from
func (m *Matcher) Filter() QueryFilter {
	return m.filter
}

// Match reports whether url satisfies the filter
func (m *Matcher) Match(url string) bool {
	switch {
	case m.filter.URLContains != "":
		return strings.Contains(url, m.filter.URLContains)
	case m.filter.URLPattern == "":
		return true
	case m.filter.ExactMatch:
		return url == m.filter.URLPattern
	default:
		return m.re.MatchString(url)
	}
}

// Matches reports whether url satisfies f. An invalid regex matches nothing.
func Matches(url string, f QueryFilter) bool {
	m, err := f.Compile()
	if err != nil {
		return false
	}
	return m.Match(url)
}
