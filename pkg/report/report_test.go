package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/pradeepp3/CODATS/pkg/rules"
	"github.com/pradeepp3/CODATS/pkg/scanner"
)

func sampleResults() []FileResult {
	findings := []scanner.Finding{
		{
			ID: "a", Type: "Unsafe Function Usage", Severity: rules.High, SeverityScore: 70,
			Line: 3, Column: 1, Snippet: "eval(userInput);", Description: "Use of eval()",
			Fix: "Avoid eval", RuleKey: rules.KeyUnsafeFunctions,
		},
		{
			ID: "b", Type: "SQL Injection", Severity: rules.Critical, SeverityScore: 95,
			Line: 7, Column: 11, Snippet: `"SELECT * FROM t WHERE id = " + id`, Description: "SQL concatenation",
			Fix: "Use parameterized queries", RuleKey: rules.KeySQLInjection,
		},
	}
	return []FileResult{
		{
			Path: "src/app.js",
			Result: &scanner.Result{
				Vulnerabilities:      findings,
				RiskScore:            scanner.RiskScore(findings),
				TotalVulnerabilities: len(findings),
				Summary:              scanner.Summarize(findings),
				Language:             "javascript",
			},
		},
		{
			Path:   "src/clean.js",
			Result: &scanner.Result{Vulnerabilities: []scanner.Finding{}, Language: "javascript"},
		},
		{Path: "src/broken.js", Error: "permission denied"},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"sarif", FormatSARIF, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatHuman(t *testing.T) {
	out := FormatHuman(sampleResults(), false, false)

	critical := strings.Index(out, "CRITICAL")
	high := strings.Index(out, "HIGH")
	if critical < 0 || high < 0 {
		t.Fatalf("missing severity labels:\n%s", out)
	}
	if critical > high {
		t.Errorf("critical findings should be listed first:\n%s", out)
	}
	for _, want := range []string{
		"src/app.js  (risk 40/100, javascript)",
		"SQL Injection: SQL concatenation",
		"error: permission denied",
		"2 finding(s) in 3 file(s) (1 critical, 1 high), max risk 40",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "fix: ") {
		t.Error("fixes should only be shown in verbose mode")
	}
	if strings.Contains(out, "src/clean.js") {
		t.Error("clean files should only be listed in verbose mode")
	}
}

func TestFormatHuman_Verbose(t *testing.T) {
	out := FormatHuman(sampleResults(), false, true)

	for _, want := range []string{"eval(userInput);", "fix: Avoid eval", "src/clean.js", "no vulnerabilities detected"} {
		if !strings.Contains(out, want) {
			t.Errorf("verbose output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatHuman_NoFindings(t *testing.T) {
	results := []FileResult{{Path: "a.js", Result: &scanner.Result{}}}
	out := FormatHuman(results, false, false)
	if out != "No vulnerabilities detected in 1 file(s).\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestFormatHuman_Partial(t *testing.T) {
	results := sampleResults()
	results[0].Result.Partial = true
	out := FormatHuman(results, false, false)
	if !strings.Contains(out, "results are partial") {
		t.Errorf("partial scan not reported:\n%s", out)
	}
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleResults(), Options{Format: FormatJSON}); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	var decoded []FileResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(decoded) != 3 {
		t.Fatalf("got %d results, want 3", len(decoded))
	}
	if decoded[0].Result.RiskScore != 40 {
		t.Errorf("RiskScore = %d, want 40", decoded[0].Result.RiskScore)
	}
	if decoded[2].Error != "permission denied" {
		t.Errorf("Error = %q", decoded[2].Error)
	}
}

func TestWrite_JSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil, Options{Format: FormatJSON}); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("got %q, want []", buf.String())
	}
}

func TestWrite_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleResults(), Options{Format: FormatYAML}); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	var decoded []map[string]interface{}
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid yaml: %v", err)
	}
	if len(decoded) != 3 {
		t.Fatalf("got %d results, want 3", len(decoded))
	}
	if decoded[0]["path"] != "src/app.js" {
		t.Errorf("path = %v", decoded[0]["path"])
	}
	if !strings.Contains(buf.String(), "ruleKey: sqlInjection") {
		t.Errorf("yaml missing finding fields:\n%s", buf.String())
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, nil, Options{Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestMaxRisk(t *testing.T) {
	if got := MaxRisk(sampleResults()); got != 40 {
		t.Errorf("MaxRisk() = %d, want 40", got)
	}
	if got := MaxRisk(nil); got != 0 {
		t.Errorf("MaxRisk(nil) = %d, want 0", got)
	}
}
