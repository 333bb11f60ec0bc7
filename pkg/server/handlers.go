package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pradeepp3/CODATS/pkg/api"
	"github.com/pradeepp3/CODATS/pkg/autofix"
	"github.com/pradeepp3/CODATS/pkg/explain"
	"github.com/pradeepp3/CODATS/pkg/language"
	"github.com/pradeepp3/CODATS/pkg/rules"
	"github.com/pradeepp3/CODATS/pkg/scanner"
	"github.com/pradeepp3/CODATS/pkg/storage"
)

const (
	// fixConfidence is reported for rule-based fixes.
	fixConfidence = 0.8

	// maxHistoryLimit caps GET /api/history?limit=.
	maxHistoryLimit = 500
	// defaultHistoryLimit is used when no limit is given.
	defaultHistoryLimit = 50

	// multipartOverhead is allowed on top of MaxUploadBytes for form framing.
	multipartOverhead = 64 << 10
)

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, api.HealthResponse{
		Status:    "ok",
		Message:   "CODATS API is running",
		Version:   Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// handleScan handles pasted-code scan requests.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if s.config.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	}

	var req api.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.WriteError(w, http.StatusBadRequest, api.CodeCodeTooLarge, "Request body too large")
			return
		}
		api.WriteError(w, http.StatusBadRequest, api.CodeInvalidJSON, "Failed to parse request body")
		return
	}

	if !s.validate(w, req.Code) {
		return
	}

	lang := req.Language
	if lang == "" {
		lang = s.config.DefaultLanguage
	}

	s.scanAndRespond(w, r, req.Code, lang, "", storage.SourceAPI)
}

// handleUpload handles single-file scan requests.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	limit := s.config.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultConfig().MaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.WriteError(w, http.StatusRequestEntityTooLarge, api.CodeFileTooLarge,
				fmt.Sprintf("File exceeds the %d byte limit", limit))
			return
		}
		api.WriteError(w, http.StatusBadRequest, api.CodeMissingFile, "No file uploaded")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeMissingFile, "No file uploaded")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if !language.IsSupportedFile(filename) {
		api.WriteError(w, http.StatusBadRequest, api.CodeUnsupportedFile, "Unsupported file type")
		return
	}
	if header.Size > limit {
		api.WriteError(w, http.StatusRequestEntityTooLarge, api.CodeFileTooLarge,
			fmt.Sprintf("File exceeds the %d byte limit", limit))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "Failed to read uploaded file")
		return
	}
	if int64(len(data)) > limit {
		api.WriteError(w, http.StatusRequestEntityTooLarge, api.CodeFileTooLarge,
			fmt.Sprintf("File exceeds the %d byte limit", limit))
		return
	}

	code := string(data)
	if !s.validate(w, code) {
		return
	}

	s.scanAndRespond(w, r, code, language.Detect(filename), filename, storage.SourceUpload)
}

// validate writes an error response and returns false if code is rejected.
func (s *Server) validate(w http.ResponseWriter, code string) bool {
	err := scanner.ValidateInput(code, s.config.MaxCodeLength)
	switch {
	case err == nil:
		return true
	case errors.Is(err, scanner.ErrEmptyInput):
		api.WriteError(w, http.StatusBadRequest, api.CodeMissingCode, "Code is required")
	case errors.Is(err, scanner.ErrBinaryInput):
		api.WriteError(w, http.StatusBadRequest, api.CodeBinaryInput, "Code must be text")
	case errors.Is(err, scanner.ErrInputTooLarge):
		api.WriteError(w, http.StatusBadRequest, api.CodeCodeTooLarge, err.Error())
	default:
		api.WriteError(w, http.StatusBadRequest, api.CodeInvalidJSON, err.Error())
	}
	return false
}

func (s *Server) scanAndRespond(w http.ResponseWriter, r *http.Request, code, lang, filename, source string) {
	result, err := s.engine.Scan(r.Context(), code, lang)
	if err != nil {
		s.logger.Errorw("Scan failed", "language", lang, "error", err)
		api.WriteError(w, http.StatusInternalServerError, api.CodeScanFailed, "Failed to analyze code")
		return
	}

	if s.config.RedactSnippets && s.redactor != nil {
		result.MapSnippets(s.redactor.String)
	}

	analysis := []explain.Analysis{}
	if e := s.getExplainer(); e != nil && len(result.Vulnerabilities) > 0 {
		a, err := e.Explain(r.Context(), result.Vulnerabilities, code)
		if err != nil {
			s.logger.Warnw("Explanation failed", "error", err)
		} else if a != nil {
			analysis = a
		}
	}

	if s.store != nil {
		if err := s.store.Record(storage.NewRecord(source, filename, code, result)); err != nil {
			s.logger.Warnw("Failed to record scan", "error", err)
		}
	}

	api.WriteJSON(w, http.StatusOK, api.ScanResponse{
		Success:    true,
		Result:     result,
		Filename:   filename,
		AIAnalysis: analysis,
		Message:    scanMessage(result.TotalVulnerabilities, filename),
	})
}

func scanMessage(total int, filename string) string {
	if total == 0 {
		if filename != "" {
			return "No vulnerabilities detected in " + filename
		}
		return "No vulnerabilities detected"
	}
	msg := fmt.Sprintf("Found %d potential security issues", total)
	if filename != "" {
		msg += " in " + filename
	}
	return msg
}

// handleFix handles auto-fix requests.
func (s *Server) handleFix(w http.ResponseWriter, r *http.Request) {
	if s.config.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	}

	var req api.FixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeInvalidJSON, "Failed to parse request body")
		return
	}
	if req.Vulnerability == nil || req.Code == "" {
		api.WriteError(w, http.StatusBadRequest, api.CodeMissingFields, "Vulnerability and code are required")
		return
	}

	vuln := *req.Vulnerability
	api.WriteJSON(w, http.StatusOK, api.FixResponse{
		Success:   true,
		FixedCode: autofix.Apply(req.Code, vuln),
		Fix: api.FixSuggestion{
			VulnerabilityID: vuln.ID,
			Explanation:     vuln.Description,
			Fix:             vuln.Fix,
			Confidence:      fixConfidence,
		},
	})
}

// handleLanguages lists the languages accepted by the scanner.
func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, api.LanguagesResponse{
		Success:   true,
		Languages: language.Supported(),
	})
}

// handleRules lists the rule catalog, optionally filtered by ?severity=.
func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	cats := rules.All()
	if sev := r.URL.Query().Get("severity"); sev != "" {
		cats = rules.BySeverity(sev)
	}

	infos := make([]api.RuleInfo, 0, len(cats))
	for _, c := range cats {
		infos = append(infos, api.NewRuleInfo(c))
	}
	api.WriteJSON(w, http.StatusOK, api.RulesResponse{Success: true, Rules: infos})
}

// handleStats handles stats requests.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := api.StatsResponse{
		Success: true,
		Uptime:  time.Since(s.startTime).Round(time.Second).String(),
		Stats:   storage.Stats{BySeverity: map[rules.Severity]int{}},
	}

	if s.store != nil {
		stats, err := s.store.Stats()
		if err != nil {
			s.logger.Errorw("Failed to read stats", "error", err)
			api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "Failed to read stats")
			return
		}
		resp.Stats = stats
	}

	api.WriteJSON(w, http.StatusOK, resp)
}

// handleHistory returns recent scans, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := storage.QueryOptions{
		Limit:    defaultHistoryLimit,
		Source:   q.Get("source"),
		Language: q.Get("language"),
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			api.WriteError(w, http.StatusBadRequest, api.CodeInvalidQuery, "limit must be a positive integer")
			return
		}
		if n > maxHistoryLimit {
			n = maxHistoryLimit
		}
		opts.Limit = n
	}
	if v := q.Get("min_risk"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			api.WriteError(w, http.StatusBadRequest, api.CodeInvalidQuery, "min_risk must be a non-negative integer")
			return
		}
		opts.MinRisk = n
	}

	scans := []storage.ScanRecord{}
	if s.store != nil {
		recs, err := s.store.Query(opts)
		if err != nil {
			s.logger.Errorw("Failed to query history", "error", err)
			api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "Failed to query history")
			return
		}
		scans = recs
	}

	api.WriteJSON(w, http.StatusOK, api.HistoryResponse{Success: true, Scans: scans})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "Endpoint not found")
}
