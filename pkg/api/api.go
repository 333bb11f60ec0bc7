// Package api defines the CODATS HTTP API request and response bodies.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/pradeepp3/CODATS/pkg/explain"
	"github.com/pradeepp3/CODATS/pkg/language"
	"github.com/pradeepp3/CODATS/pkg/rules"
	"github.com/pradeepp3/CODATS/pkg/scanner"
	"github.com/pradeepp3/CODATS/pkg/storage"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeInvalidJSON     = "invalid_json"
	CodeMissingCode     = "missing_code"
	CodeCodeTooLarge    = "code_too_large"
	CodeBinaryInput     = "binary_input"
	CodeMissingFile     = "missing_file"
	CodeUnsupportedFile = "unsupported_file"
	CodeFileTooLarge    = "file_too_large"
	CodeMissingFields   = "missing_fields"
	CodeInvalidQuery    = "invalid_query"
	CodeScanFailed      = "scan_failed"
	CodeNotFound        = "not_found"
	CodeInternal        = "internal_error"
)

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// ScanRequest is the body of POST /api/scan.
type ScanRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// ScanResponse is returned by both scan endpoints. The scan result fields
// are inlined at the top level.
type ScanResponse struct {
	Success bool `json:"success"`
	*scanner.Result
	Filename   string             `json:"filename,omitempty"`
	AIAnalysis []explain.Analysis `json:"aiAnalysis"`
	Message    string             `json:"message"`
}

// FixRequest is the body of POST /api/fix.
type FixRequest struct {
	Vulnerability *scanner.Finding `json:"vulnerability"`
	Code          string           `json:"code"`
}

// FixSuggestion describes the fix applied by POST /api/fix.
type FixSuggestion struct {
	VulnerabilityID string  `json:"vulnerabilityId"`
	Explanation     string  `json:"explanation"`
	Fix             string  `json:"fix"`
	Confidence      float64 `json:"confidence"`
}

// FixResponse is returned by POST /api/fix.
type FixResponse struct {
	Success   bool          `json:"success"`
	FixedCode string        `json:"fixedCode"`
	Fix       FixSuggestion `json:"fix"`
}

// LanguagesResponse is returned by GET /api/languages.
type LanguagesResponse struct {
	Success   bool            `json:"success"`
	Languages []language.Info `json:"languages"`
}

// RuleInfo describes one rule category.
type RuleInfo struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Severity      rules.Severity `json:"severity"`
	SeverityScore int            `json:"severityScore"`
	Description   string         `json:"description"`
	PatternCount  int            `json:"patternCount"`
}

// NewRuleInfo describes a category for clients.
func NewRuleInfo(c rules.Category) RuleInfo {
	return RuleInfo{
		ID:            c.Key,
		Name:          c.Name,
		Severity:      c.Severity,
		SeverityScore: c.SeverityScore,
		Description:   c.Fix,
		PatternCount:  len(c.Matchers),
	}
}

// RulesResponse is returned by GET /api/rules.
type RulesResponse struct {
	Success bool       `json:"success"`
	Rules   []RuleInfo `json:"rules"`
}

// StatsResponse is returned by GET /api/stats.
type StatsResponse struct {
	Success bool   `json:"success"`
	Uptime  string `json:"uptime"`
	storage.Stats
}

// HistoryResponse is returned by GET /api/history.
type HistoryResponse struct {
	Success bool                 `json:"success"`
	Scans   []storage.ScanRecord `json:"scans"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
