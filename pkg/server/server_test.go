package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/pradeepp3/CODATS/pkg/api"
	"github.com/pradeepp3/CODATS/pkg/autofix"
	"github.com/pradeepp3/CODATS/pkg/rules"
	"github.com/pradeepp3/CODATS/pkg/scanner"
	"github.com/pradeepp3/CODATS/pkg/server"
	"github.com/pradeepp3/CODATS/pkg/storage"
)

const sqlLine = `const q = "SELECT * FROM users WHERE id = " + req.query.id;`

func testConfig() server.Config {
	config := server.DefaultConfig()
	config.Host = "127.0.0.1"
	config.Port = 0 // Random available port
	return config
}

func newTestServer(t *testing.T, config server.Config) (*server.Server, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore(0)
	return server.New(config, scanner.NewDefault(), store, nil), store
}

func startTestServer(t *testing.T, config server.Config) (string, *storage.MemoryStore) {
	t.Helper()
	srv, store := newTestServer(t, config)

	if err := srv.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() { srv.Stop() })

	time.Sleep(50 * time.Millisecond)

	return fmt.Sprintf("http://%s", srv.Addr()), store
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	return resp
}

func postFile(t *testing.T, url, filename string, content []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	part.Write(content)
	mw.Close()

	resp, err := http.Post(url, mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

func TestServer_StartStop(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	if srv.IsRunning() {
		t.Error("Server should not be running before Start()")
	}

	if err := srv.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if !srv.IsRunning() {
		t.Error("Server should be running after Start()")
	}
	if err := srv.Start(); err == nil {
		t.Error("Second Start() should fail")
	}

	if err := srv.Stop(); err != nil {
		t.Errorf("Failed to stop server: %v", err)
	}
	if srv.IsRunning() {
		t.Error("Server should not be running after Stop()")
	}
	if err := srv.Stop(); err != nil {
		t.Errorf("Stop() on a stopped server should be a no-op: %v", err)
	}
}

func TestServer_Health(t *testing.T) {
	baseURL, _ := startTestServer(t, testConfig())

	resp, err := http.Get(baseURL + "/api/health")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}

	var health api.HealthResponse
	decode(t, resp, &health)

	if health.Status != "ok" {
		t.Errorf("Expected status 'ok', got %q", health.Status)
	}
	if health.Message != "CODATS API is running" {
		t.Errorf("Unexpected message %q", health.Message)
	}
	if _, err := time.Parse(time.RFC3339, health.Timestamp); err != nil {
		t.Errorf("Timestamp %q is not RFC3339: %v", health.Timestamp, err)
	}
}

func TestServer_Scan(t *testing.T) {
	baseURL, store := startTestServer(t, testConfig())

	tests := []struct {
		name        string
		code        string
		language    string
		wantTotal   int
		wantScore   int
		wantMessage string
	}{
		{
			name:        "sql injection",
			code:        sqlLine,
			language:    "javascript",
			wantTotal:   1,
			wantScore:   25,
			wantMessage: "Found 1 potential security issues",
		},
		{
			name:        "sql and xss",
			code:        sqlLine + "\nelement.innerHTML = userInput;",
			wantTotal:   2,
			wantScore:   40,
			wantMessage: "Found 2 potential security issues",
		},
		{
			name:        "clean code",
			code:        "const x = 1;",
			language:    "javascript",
			wantTotal:   0,
			wantScore:   0,
			wantMessage: "No vulnerabilities detected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, baseURL+"/api/scan", api.ScanRequest{Code: tt.code, Language: tt.language})
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", resp.StatusCode)
			}

			var result api.ScanResponse
			decode(t, resp, &result)

			if !result.Success {
				t.Error("Expected success")
			}
			if result.Result == nil {
				t.Fatal("Expected scan result fields")
			}
			if result.TotalVulnerabilities != tt.wantTotal {
				t.Errorf("TotalVulnerabilities = %d, want %d", result.TotalVulnerabilities, tt.wantTotal)
			}
			if result.RiskScore != tt.wantScore {
				t.Errorf("RiskScore = %d, want %d", result.RiskScore, tt.wantScore)
			}
			if result.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", result.Message, tt.wantMessage)
			}
			if result.Language != "javascript" {
				t.Errorf("Language = %q, want javascript", result.Language)
			}
			if len(result.AIAnalysis) != tt.wantTotal {
				t.Errorf("got %d analyses, want %d", len(result.AIAnalysis), tt.wantTotal)
			}
			for i, a := range result.AIAnalysis {
				if a.VulnerabilityID != result.Vulnerabilities[i].ID {
					t.Errorf("analysis %d refers to %q, want %q", i, a.VulnerabilityID, result.Vulnerabilities[i].ID)
				}
			}
		})
	}

	if store.Len() != len(tests) {
		t.Errorf("Expected %d recorded scans, got %d", len(tests), store.Len())
	}
}

func TestServer_ScanErrors(t *testing.T) {
	config := testConfig()
	config.MaxCodeLength = 10
	baseURL, store := startTestServer(t, config)

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"invalid json", "{not json", api.CodeInvalidJSON},
		{"missing code", `{"language":"javascript"}`, api.CodeMissingCode},
		{"empty code", `{"code":""}`, api.CodeMissingCode},
		{"too long", `{"code":"` + strings.Repeat("x", 11) + `"}`, api.CodeCodeTooLarge},
		{"nul byte", `{"code":"a\u0000b"}`, api.CodeBinaryInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(baseURL+"/api/scan", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", resp.StatusCode)
			}

			var errResp api.ErrorResponse
			decode(t, resp, &errResp)
			if errResp.Success {
				t.Error("Expected success=false")
			}
			if errResp.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", errResp.Code, tt.wantCode)
			}
		})
	}

	if store.Len() != 0 {
		t.Errorf("Rejected requests should not be recorded, got %d records", store.Len())
	}
}

func TestServer_Upload(t *testing.T) {
	config := testConfig()
	config.MaxUploadBytes = 1024
	baseURL, store := startTestServer(t, config)

	t.Run("javascript file", func(t *testing.T) {
		resp := postFile(t, baseURL+"/api/scan/upload", "app.js", []byte(sqlLine))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}

		var result api.ScanResponse
		decode(t, resp, &result)

		if result.Filename != "app.js" {
			t.Errorf("Filename = %q, want app.js", result.Filename)
		}
		if result.Language != "javascript" {
			t.Errorf("Language = %q, want javascript", result.Language)
		}
		if result.Message != "Found 1 potential security issues in app.js" {
			t.Errorf("Unexpected message %q", result.Message)
		}
	})

	t.Run("language from extension", func(t *testing.T) {
		resp := postFile(t, baseURL+"/api/scan/upload", "tool.py", []byte("x = 1\n"))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}

		var result api.ScanResponse
		decode(t, resp, &result)
		if result.Language != "python" {
			t.Errorf("Language = %q, want python", result.Language)
		}
		if result.TotalVulnerabilities != 0 {
			t.Errorf("TotalVulnerabilities = %d, want 0", result.TotalVulnerabilities)
		}
	})

	errTests := []struct {
		name       string
		filename   string
		content    []byte
		wantStatus int
		wantCode   string
	}{
		{"unsupported extension", "notes.txt", []byte("hello"), http.StatusBadRequest, api.CodeUnsupportedFile},
		{"too large", "big.js", bytes.Repeat([]byte("a"), 2048), http.StatusRequestEntityTooLarge, api.CodeFileTooLarge},
		{"binary", "bin.js", []byte{0x00, 0x01, 0x02}, http.StatusBadRequest, api.CodeBinaryInput},
	}

	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postFile(t, baseURL+"/api/scan/upload", tt.filename, tt.content)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}

			var errResp api.ErrorResponse
			decode(t, resp, &errResp)
			if errResp.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", errResp.Code, tt.wantCode)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		resp, err := http.Post(baseURL+"/api/scan/upload", "application/json", strings.NewReader("{}"))
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		var errResp api.ErrorResponse
		decode(t, resp, &errResp)
		if resp.StatusCode != http.StatusBadRequest || errResp.Code != api.CodeMissingFile {
			t.Errorf("got %d %q, want 400 %q", resp.StatusCode, errResp.Code, api.CodeMissingFile)
		}
	})

	recs, _ := store.Query(storage.QueryOptions{Source: storage.SourceUpload})
	if len(recs) != 2 {
		t.Errorf("Expected 2 upload records, got %d", len(recs))
	}
}

func TestServer_Fix(t *testing.T) {
	baseURL, _ := startTestServer(t, testConfig())

	code := "element.innerHTML = userInput;"
	vuln := scanner.Finding{
		ID:          "v1",
		Type:        "Cross-Site Scripting (XSS)",
		Line:        1,
		Description: "Direct innerHTML assignment",
		Fix:         "Use textContent",
		RuleKey:     rules.KeyXSS,
	}

	resp := postJSON(t, baseURL+"/api/fix", api.FixRequest{Vulnerability: &vuln, Code: code})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var fix api.FixResponse
	decode(t, resp, &fix)

	if !strings.HasPrefix(fix.FixedCode, autofix.HeaderPrefix) {
		t.Errorf("FixedCode missing header: %q", fix.FixedCode)
	}
	if !strings.Contains(fix.FixedCode, ".textContent = userInput") {
		t.Errorf("FixedCode not rewritten: %q", fix.FixedCode)
	}
	if fix.Fix.VulnerabilityID != "v1" || fix.Fix.Fix != "Use textContent" {
		t.Errorf("Unexpected fix suggestion: %+v", fix.Fix)
	}
	if fix.Fix.Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8", fix.Fix.Confidence)
	}

	t.Run("missing fields", func(t *testing.T) {
		resp := postJSON(t, baseURL+"/api/fix", map[string]string{"code": code})
		var errResp api.ErrorResponse
		decode(t, resp, &errResp)
		if resp.StatusCode != http.StatusBadRequest || errResp.Code != api.CodeMissingFields {
			t.Errorf("got %d %q, want 400 %q", resp.StatusCode, errResp.Code, api.CodeMissingFields)
		}
	})
}

func TestServer_Catalog(t *testing.T) {
	baseURL, _ := startTestServer(t, testConfig())

	resp, err := http.Get(baseURL + "/api/languages")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	var langs api.LanguagesResponse
	decode(t, resp, &langs)
	if len(langs.Languages) == 0 {
		t.Error("Expected languages")
	}

	resp, err = http.Get(baseURL + "/api/rules")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	var all api.RulesResponse
	decode(t, resp, &all)
	if len(all.Rules) != len(rules.All()) {
		t.Errorf("got %d rules, want %d", len(all.Rules), len(rules.All()))
	}

	resp, err = http.Get(baseURL + "/api/rules?severity=critical")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	var critical api.RulesResponse
	decode(t, resp, &critical)
	if len(critical.Rules) == 0 {
		t.Fatal("Expected critical rules")
	}
	for _, r := range critical.Rules {
		if r.Severity != rules.Critical {
			t.Errorf("rule %s has severity %s", r.ID, r.Severity)
		}
	}
}

func TestServer_StatsAndHistory(t *testing.T) {
	baseURL, _ := startTestServer(t, testConfig())

	for _, code := range []string{sqlLine, "const x = 1;", "eval(userInput);"} {
		resp := postJSON(t, baseURL+"/api/scan", api.ScanRequest{Code: code})
		resp.Body.Close()
	}

	resp, err := http.Get(baseURL + "/api/stats")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	var stats api.StatsResponse
	decode(t, resp, &stats)

	if stats.TotalScans != 3 {
		t.Errorf("TotalScans = %d, want 3", stats.TotalScans)
	}
	if stats.ScansToday != 3 {
		t.Errorf("ScansToday = %d, want 3", stats.ScansToday)
	}
	if stats.TotalFindings != 2 {
		t.Errorf("TotalFindings = %d, want 2", stats.TotalFindings)
	}
	if stats.Uptime == "" {
		t.Error("Expected uptime")
	}

	resp, err = http.Get(baseURL + "/api/history?limit=2")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	var history api.HistoryResponse
	decode(t, resp, &history)

	if len(history.Scans) != 2 {
		t.Fatalf("got %d scans, want 2", len(history.Scans))
	}
	if history.Scans[0].RiskScore != 15 {
		t.Errorf("newest scan risk = %d, want 15", history.Scans[0].RiskScore)
	}

	resp, err = http.Get(baseURL + "/api/history?limit=abc")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	var errResp api.ErrorResponse
	decode(t, resp, &errResp)
	if resp.StatusCode != http.StatusBadRequest || errResp.Code != api.CodeInvalidQuery {
		t.Errorf("got %d %q, want 400 %q", resp.StatusCode, errResp.Code, api.CodeInvalidQuery)
	}
}

func TestServer_NotFound(t *testing.T) {
	baseURL, _ := startTestServer(t, testConfig())

	for _, path := range []string{"/", "/api/unknown", "/v1/policy"} {
		resp, err := http.Get(baseURL + path)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		var errResp api.ErrorResponse
		decode(t, resp, &errResp)

		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: expected status 404, got %d", path, resp.StatusCode)
		}
		if errResp.Error != "Endpoint not found" {
			t.Errorf("%s: error = %q", path, errResp.Error)
		}
	}
}

func TestServer_CORSPreflight(t *testing.T) {
	baseURL, _ := startTestServer(t, testConfig())

	req, _ := http.NewRequest(http.MethodOptions, baseURL+"/api/scan", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Methods") == "" {
		t.Error("Expected Access-Control-Allow-Methods")
	}
}
