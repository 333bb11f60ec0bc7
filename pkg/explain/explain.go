// Package explain produces human-readable explanations and suggested fixes
// for scanner findings, either from a built-in table or from a local LLM.
package explain

import (
	"context"

	"github.com/pradeepp3/CODATS/pkg/scanner"
)

// Analysis is the explanation attached to a single finding.
type Analysis struct {
	VulnerabilityID string  `json:"vulnerabilityId" yaml:"vulnerabilityId"`
	Type            string  `json:"type" yaml:"type"`
	Line            int     `json:"line" yaml:"line"`
	Explanation     string  `json:"explanation" yaml:"explanation"`
	Fix             string  `json:"fix" yaml:"fix"`
	Confidence      float64 `json:"confidence" yaml:"confidence"`
}

// Explainer explains a batch of findings from the same source text.
type Explainer interface {
	Explain(ctx context.Context, findings []scanner.Finding, code string) ([]Analysis, error)
}

// Backend explains findings one at a time and may be unavailable.
type Backend interface {
	Name() string
	IsAvailable(ctx context.Context) bool
	ExplainFinding(ctx context.Context, finding scanner.Finding, code string) (Analysis, error)
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
