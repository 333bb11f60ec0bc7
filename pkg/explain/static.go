package explain

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/pradeepp3/CODATS/pkg/scanner"
)

// StaticConfidence is the confidence reported for table-based explanations.
const StaticConfidence = 0.75

//go:embed fallback.yaml
var fallbackYAML []byte

type entry struct {
	Explanation string `yaml:"explanation"`
	Fix         string `yaml:"fix"`
}

// Static explains findings from a fixed table keyed by category name.
type Static struct {
	entries map[string]entry
}

// NewStatic loads the built-in explanation table.
func NewStatic() (*Static, error) {
	var entries map[string]entry
	if err := yaml.Unmarshal(fallbackYAML, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse fallback table: %w", err)
	}
	return &Static{entries: entries}, nil
}

// MustStatic is like NewStatic but panics if the embedded table is invalid.
func MustStatic() *Static {
	s, err := NewStatic()
	if err != nil {
		panic(err)
	}
	return s
}

// Explain returns one analysis per finding. It never fails.
func (s *Static) Explain(_ context.Context, findings []scanner.Finding, _ string) ([]Analysis, error) {
	out := make([]Analysis, 0, len(findings))
	for _, f := range findings {
		out = append(out, s.ExplainFinding(f))
	}
	return out, nil
}

// ExplainFinding returns the table entry for the finding's category. Unknown
// categories get a generic explanation and the finding's own fix.
func (s *Static) ExplainFinding(f scanner.Finding) Analysis {
	a := Analysis{
		VulnerabilityID: f.ID,
		Type:            f.Type,
		Line:            f.Line,
		Explanation:     fmt.Sprintf("This %s vulnerability can compromise your application security.", f.Type),
		Fix:             f.Fix,
		Confidence:      StaticConfidence,
	}
	if e, ok := s.entries[f.Type]; ok {
		if e.Explanation != "" {
			a.Explanation = e.Explanation
		}
		if e.Fix != "" {
			a.Fix = e.Fix
		}
	}
	return a
}

// Types returns the number of categories in the table.
func (s *Static) Types() int {
	return len(s.entries)
}
