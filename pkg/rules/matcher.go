package rules

import (
	"fmt"
	"regexp"
)

// Span is a half-open byte range [Start, End) within scanned text.
type Span struct {
	Start int
	End   int
}

// Matcher detects one specific coding construct within a category.
type Matcher interface {
	// FindAll returns every non-overlapping match in text, in order.
	FindAll(text string) ([]Span, error)

	// Description returns a human-readable description of the construct.
	Description() string
}

// RegexMatcher is a case-insensitive regular expression matcher.
//
// A match is discarded when the optional reject pattern matches the text
// immediately following it, which stands in for a negative lookahead.
type RegexMatcher struct {
	expr        string
	regex       *regexp.Regexp
	reject      *regexp.Regexp
	description string
	err         error
}

// NewRegexMatcher compiles expr case-insensitively. A compile error is not
// returned here; every call to FindAll reports it instead.
func NewRegexMatcher(expr, description string) *RegexMatcher {
	m := &RegexMatcher{expr: expr, description: description}
	m.regex, m.err = regexp.Compile("(?i)" + expr)
	if m.err != nil {
		m.err = fmt.Errorf("invalid pattern %q: %w", expr, m.err)
	}
	return m
}

// WithReject sets a pattern that, when it matches at the start of the text
// following a match, discards that match.
func (m *RegexMatcher) WithReject(expr string) *RegexMatcher {
	if m.err != nil {
		return m
	}
	m.reject, m.err = regexp.Compile(`(?i)\A(?:` + expr + `)`)
	if m.err != nil {
		m.err = fmt.Errorf("invalid reject pattern %q: %w", expr, m.err)
	}
	return m
}

// Description returns the matcher description.
func (m *RegexMatcher) Description() string {
	return m.description
}

// String returns the source expression.
func (m *RegexMatcher) String() string {
	return m.expr
}

// FindAll returns all matches in text that are not rejected.
func (m *RegexMatcher) FindAll(text string) ([]Span, error) {
	if m.err != nil {
		return nil, m.err
	}

	locs := m.regex.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil, nil
	}

	spans := make([]Span, 0, len(locs))
	for _, loc := range locs {
		if m.reject != nil && m.reject.MatchString(text[loc[1]:]) {
			continue
		}
		spans = append(spans, Span{Start: loc[0], End: loc[1]})
	}
	return spans, nil
}
