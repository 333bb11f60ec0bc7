// Package redact masks credential values in finding snippets so reports can
// be shared without leaking the secrets they point at.
package redact

import (
	"regexp"
	"sort"
)

// Mask is the default replacement for a secret value.
const Mask = "[REDACTED]"

// Redactor masks secrets in text. Patterns are applied in registration order.
type Redactor struct {
	patterns []*Pattern
}

// Pattern is a named secret pattern. When Group is non-zero only that capture
// group is replaced, which keeps the surrounding code readable.
type Pattern struct {
	Name        string
	Regex       *regexp.Regexp
	Group       int
	Replacement string
}

// Result is the outcome of a redaction.
type Result struct {
	Original     string
	Redacted     string
	Replacements []Replacement
	HasChanges   bool
}

// Replacement records one masked value. Offsets refer to the text the
// pattern ran against.
type Replacement struct {
	PatternName string
	Original    string
	Replacement string
	Start       int
	End         int
}

// New creates a Redactor with the built-in patterns.
func New() *Redactor {
	r := &Redactor{}
	r.registerDefaultPatterns()
	return r
}

func (r *Redactor) registerDefaultPatterns() {
	r.mustAdd("private_key", `-----BEGIN (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----[\s\S]*?-----END (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`, 0, "[PRIVATE_KEY_REDACTED]")
	r.mustAdd("anthropic_api_key", `sk-ant-[a-zA-Z0-9\-]{20,}`, 0, "[ANTHROPIC_KEY_REDACTED]")
	r.mustAdd("openai_api_key", `sk-[a-zA-Z0-9]{20,}`, 0, "[OPENAI_KEY_REDACTED]")
	r.mustAdd("github_token", `gh[pousr]_[A-Za-z0-9_]{36,}`, 0, "[GITHUB_TOKEN_REDACTED]")
	r.mustAdd("aws_access_key", `AKIA[0-9A-Z]{16}`, 0, "[AWS_KEY_REDACTED]")
	r.mustAdd("jwt_token", `eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`, 0, "[JWT_REDACTED]")
	r.mustAdd("auth_header", `(?i)\b(?:bearer|basic)\s+([A-Za-z0-9+/=._\-]{8,})`, 1, Mask)
	r.mustAdd("connection_string", `(?i)\b(?:mongodb(?:\+srv)?|postgres(?:ql)?|mysql|redis|amqp)://[^:/\s]+:([^@\s]+)@`, 1, Mask)
	r.mustAdd("quoted_secret", `(?i)(?:password|passwd|pwd|secret|api_?key|apikey|auth_?token|access_?token|private_?key)\w*\s*[:=]\s*["'`+"`"+`]([^"'`+"`"+`]{3,})["'`+"`"+`]`, 1, Mask)
}

func (r *Redactor) mustAdd(name, pattern string, group int, replacement string) {
	if err := r.AddPattern(name, pattern, group, replacement); err != nil {
		panic(err)
	}
}

// AddPattern appends a pattern. group selects the capture group to replace,
// or 0 for the whole match.
func (r *Redactor) AddPattern(name, pattern string, group int, replacement string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	r.patterns = append(r.patterns, &Pattern{
		Name:        name,
		Regex:       re,
		Group:       group,
		Replacement: replacement,
	})
	return nil
}

// RemovePattern removes a pattern by name.
func (r *Redactor) RemovePattern(name string) {
	kept := r.patterns[:0]
	for _, p := range r.patterns {
		if p.Name != name {
			kept = append(kept, p)
		}
	}
	r.patterns = kept
}

// PatternNames returns the registered pattern names in order.
func (r *Redactor) PatternNames() []string {
	names := make([]string, len(r.patterns))
	for i, p := range r.patterns {
		names[i] = p.Name
	}
	return names
}

// Redact masks every secret in content.
func (r *Redactor) Redact(content string) *Result {
	result := &Result{
		Original:     content,
		Redacted:     content,
		Replacements: []Replacement{},
	}

	for _, p := range r.patterns {
		matches := p.Regex.FindAllStringSubmatchIndex(result.Redacted, -1)

		// Replace back to front so earlier offsets stay valid.
		sort.SliceStable(matches, func(i, j int) bool { return matches[i][0] > matches[j][0] })
		for _, m := range matches {
			start, end := m[2*p.Group], m[2*p.Group+1]
			if start < 0 {
				continue
			}
			original := result.Redacted[start:end]
			if original == p.Replacement {
				continue
			}

			result.Replacements = append(result.Replacements, Replacement{
				PatternName: p.Name,
				Original:    original,
				Replacement: p.Replacement,
				Start:       start,
				End:         end,
			})
			result.Redacted = result.Redacted[:start] + p.Replacement + result.Redacted[end:]
			result.HasChanges = true
		}
	}

	return result
}

// String returns content with every secret masked.
func (r *Redactor) String(content string) string {
	return r.Redact(content).Redacted
}

// ContainsSecrets reports whether content holds anything a pattern would mask.
func (r *Redactor) ContainsSecrets(content string) bool {
	return r.Redact(content).HasChanges
}
