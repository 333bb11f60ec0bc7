package explain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pradeepp3/CODATS/pkg/scanner"
)

// DefaultConfidence is used when a model response carries no usable
// confidence value.
const DefaultConfidence = 0.85

// OllamaConfig holds Ollama client configuration.
type OllamaConfig struct {
	Endpoint string        // Ollama API endpoint (default: http://localhost:11434)
	Model    string        // Model to use (default: llama3.2)
	Timeout  time.Duration // Request timeout
}

// DefaultOllamaConfig returns the default Ollama configuration.
func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		Endpoint: "http://localhost:11434",
		Model:    "llama3.2",
		Timeout:  30 * time.Second,
	}
}

// Ollama explains findings with a model served by a local Ollama instance.
type Ollama struct {
	config     OllamaConfig
	httpClient *http.Client
}

// NewOllama creates a new Ollama backend. Empty fields take their defaults.
func NewOllama(config OllamaConfig) *Ollama {
	defaults := DefaultOllamaConfig()
	if config.Endpoint == "" {
		config.Endpoint = defaults.Endpoint
	}
	config.Endpoint = strings.TrimRight(config.Endpoint, "/")
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}

	return &Ollama{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Name returns the backend name.
func (o *Ollama) Name() string {
	return "ollama"
}

// Config returns the effective configuration.
func (o *Ollama) Config() OllamaConfig {
	return o.config
}

// IsAvailable checks if Ollama is reachable.
func (o *Ollama) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.config.Endpoint+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// ExplainFinding asks the model about a single finding.
func (o *Ollama) ExplainFinding(ctx context.Context, finding scanner.Finding, _ string) (Analysis, error) {
	response, err := o.generate(ctx, buildPrompt(finding))
	if err != nil {
		return Analysis{}, fmt.Errorf("ollama generate failed: %w", err)
	}
	if strings.TrimSpace(response) == "" {
		return Analysis{}, fmt.Errorf("ollama returned an empty response")
	}
	return parseResponse(response, finding), nil
}

func buildPrompt(f scanner.Finding) string {
	return fmt.Sprintf(`Analyze this security vulnerability found in code:

Vulnerability Type: %s
Severity: %s
Line Number: %d
Vulnerable Code Snippet: %s
Description: %s

Provide a response in the following format:
1. EXPLANATION: A clear explanation of why this is a security vulnerability and the potential risks (2-3 sentences)
2. SECURE_FIX: The corrected code snippet that fixes this vulnerability
3. CONFIDENCE: A number between 0 and 1 indicating your confidence in this analysis

Be specific and provide actual working code for the fix.`,
		f.Type, f.Severity, f.Line, f.Snippet, f.Description)
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// generate sends a prompt to Ollama and returns the response text.
func (o *Ollama) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(ollamaRequest{
		Model:  o.config.Model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: 0.3,
			NumPredict:  1024,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.config.Endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return out.Response, nil
}

var (
	explanationStart = regexp.MustCompile(`(?i)EXPLANATION:?\s*`)
	explanationEnd   = regexp.MustCompile(`(?i)SECURE_FIX|FIX:|2\.`)
	fixStart         = regexp.MustCompile(`(?i)SECURE_FIX:?\s*`)
	fixEnd           = regexp.MustCompile(`(?i)CONFIDENCE|3\.`)
	confidenceValue  = regexp.MustCompile(`(?i)CONFIDENCE:?\s*([\d.]+)`)
	fenceOpen        = regexp.MustCompile("```\\w*\\n?")
)

// section returns the text after the first match of start, up to the first
// match of end or the end of the response.
func section(response string, start, end *regexp.Regexp) (string, bool) {
	loc := start.FindStringIndex(response)
	if loc == nil {
		return "", false
	}
	rest := response[loc[1]:]
	if stop := end.FindStringIndex(rest); stop != nil {
		rest = rest[:stop[0]]
	}
	return strings.TrimSpace(rest), true
}

// parseResponse extracts the EXPLANATION, SECURE_FIX and CONFIDENCE parts of
// a model response. Missing parts fall back to the finding itself.
func parseResponse(response string, f scanner.Finding) Analysis {
	explanation, _ := section(response, explanationStart, explanationEnd)

	fix, _ := section(response, fixStart, fixEnd)
	fix = fenceOpen.ReplaceAllString(fix, "")
	fix = strings.TrimSpace(strings.ReplaceAll(fix, "```", ""))

	confidence := DefaultConfidence
	if m := confidenceValue.FindStringSubmatch(response); m != nil {
		if v, err := strconv.ParseFloat(strings.TrimRight(m[1], "."), 64); err == nil {
			confidence = v
			if confidence > 1 {
				confidence /= 100
			}
		}
	}

	if explanation == "" {
		explanation = truncate(strings.TrimSpace(response), 300)
	}
	if explanation == "" {
		explanation = fmt.Sprintf("This %s vulnerability can allow attackers to compromise your application.", f.Type)
	}
	if fix == "" {
		fix = f.Fix
	}

	return Analysis{
		VulnerabilityID: f.ID,
		Type:            f.Type,
		Line:            f.Line,
		Explanation:     explanation,
		Fix:             fix,
		Confidence:      clampConfidence(confidence),
	}
}

// truncate limits s to maxLen characters.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return strings.TrimSpace(string(runes[:maxLen]))
}
