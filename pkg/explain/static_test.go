package explain

import (
	"context"
	"strings"
	"testing"

	"github.com/pradeepp3/CODATS/pkg/rules"
	"github.com/pradeepp3/CODATS/pkg/scanner"
)

func TestStatic_CoversCatalog(t *testing.T) {
	s := MustStatic()

	for _, cat := range rules.All() {
		a := s.ExplainFinding(scanner.Finding{Type: cat.Name, Fix: cat.Fix})
		if strings.HasPrefix(a.Explanation, "This "+cat.Name+" vulnerability") {
			t.Errorf("category %q has no table entry", cat.Name)
		}
		if a.Fix == cat.Fix {
			t.Errorf("category %q should have a table fix", cat.Name)
		}
	}
	if s.Types() != len(rules.All()) {
		t.Errorf("table has %d entries, want %d", s.Types(), len(rules.All()))
	}
}

func TestStatic_ExplainFinding(t *testing.T) {
	s := MustStatic()

	a := s.ExplainFinding(scanner.Finding{ID: "v1", Type: "SQL Injection", Line: 7})
	if a.VulnerabilityID != "v1" || a.Type != "SQL Injection" || a.Line != 7 {
		t.Errorf("identity fields not copied: %+v", a)
	}
	if a.Confidence != StaticConfidence {
		t.Errorf("Confidence = %v, want %v", a.Confidence, StaticConfidence)
	}
	if !strings.Contains(a.Explanation, "SQL injection attacks") {
		t.Errorf("Explanation = %q", a.Explanation)
	}
	if !strings.Contains(a.Fix, "db.query(query, [userId], callback);") {
		t.Errorf("Fix = %q", a.Fix)
	}
}

func TestStatic_UnknownType(t *testing.T) {
	a := MustStatic().ExplainFinding(scanner.Finding{Type: "Race Condition", Fix: "Use a lock."})

	if a.Explanation != "This Race Condition vulnerability can compromise your application security." {
		t.Errorf("Explanation = %q", a.Explanation)
	}
	if a.Fix != "Use a lock." {
		t.Errorf("Fix = %q, want the finding's fix", a.Fix)
	}
}

func TestStatic_Explain(t *testing.T) {
	findings := []scanner.Finding{
		{ID: "a", Type: "Path Traversal"},
		{ID: "b", Type: "Information Disclosure"},
	}

	got, err := MustStatic().Explain(context.Background(), findings, "")
	if err != nil {
		t.Fatalf("Explain() error: %v", err)
	}
	if len(got) != 2 || got[0].VulnerabilityID != "a" || got[1].VulnerabilityID != "b" {
		t.Errorf("unexpected analyses: %+v", got)
	}
}
