package scanner

import (
	"time"

	"github.com/pradeepp3/CODATS/pkg/rules"
)

// Finding is one reported vulnerability, unique per (line, type) within a scan.
type Finding struct {
	ID            string         `json:"id" yaml:"id"`
	Type          string         `json:"type" yaml:"type"`
	Severity      rules.Severity `json:"severity" yaml:"severity"`
	SeverityScore int            `json:"severityScore" yaml:"severityScore"`
	Line          int            `json:"line" yaml:"line"`
	Column        int            `json:"column" yaml:"column"`
	Snippet       string         `json:"snippet" yaml:"snippet"`
	Description   string         `json:"description" yaml:"description"`
	Fix           string         `json:"fix" yaml:"fix"`
	RuleKey       string         `json:"ruleKey" yaml:"ruleKey"`
}

// Summary holds finding counts by severity and by category name.
type Summary struct {
	BySeverity map[rules.Severity]int `json:"bySeverity" yaml:"bySeverity"`
	ByType     map[string]int         `json:"byType" yaml:"byType"`
	Total      int                    `json:"total" yaml:"total"`
}

// DiagnosticKind classifies a non-fatal problem encountered during a scan.
type DiagnosticKind string

const (
	// DiagnosticMatcherFailure means a single matcher could not be evaluated
	// and was skipped.
	DiagnosticMatcherFailure DiagnosticKind = "matcher_failure"
	// DiagnosticPatternTimeout means the scan budget ran out and the result
	// is partial.
	DiagnosticPatternTimeout DiagnosticKind = "pattern_timeout"
)

// Diagnostic describes a non-fatal problem encountered during a scan.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind" yaml:"kind"`
	RuleKey string         `json:"ruleKey,omitempty" yaml:"ruleKey,omitempty"`
	Matcher string         `json:"matcher,omitempty" yaml:"matcher,omitempty"`
	Message string         `json:"message" yaml:"message"`
}

// Result is the outcome of a single scan.
type Result struct {
	Vulnerabilities      []Finding    `json:"vulnerabilities" yaml:"vulnerabilities"`
	RiskScore            int          `json:"riskScore" yaml:"riskScore"`
	TotalVulnerabilities int          `json:"totalVulnerabilities" yaml:"totalVulnerabilities"`
	Summary              Summary      `json:"summary" yaml:"summary"`
	ScannedAt            time.Time    `json:"scannedAt" yaml:"scannedAt"`
	Language             string       `json:"language" yaml:"language"`
	Partial              bool         `json:"partial,omitempty" yaml:"partial,omitempty"`
	Diagnostics          []Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// MapSnippets replaces every finding snippet with fn(snippet).
func (r *Result) MapSnippets(fn func(string) string) {
	for i := range r.Vulnerabilities {
		r.Vulnerabilities[i].Snippet = fn(r.Vulnerabilities[i].Snippet)
	}
}
