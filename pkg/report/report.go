// Package report renders scan results for terminals and CI systems.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/pradeepp3/CODATS/pkg/rules"
	"github.com/pradeepp3/CODATS/pkg/scanner"
)

// Format selects the output encoding.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatSARIF Format = "sarif"
)

// Formats returns the supported output formats.
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatYAML, FormatSARIF}
}

// ParseFormat parses a format name. An empty name selects FormatText.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	case FormatSARIF:
		return FormatSARIF, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, json, yaml or sarif)", name)
	}
}

// FileResult is the scan outcome for one input.
type FileResult struct {
	Path   string          `json:"path" yaml:"path"`
	Result *scanner.Result `json:"result,omitempty" yaml:"result,omitempty"`
	Error  string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// Options controls rendering.
type Options struct {
	Format  Format
	Color   bool
	Verbose bool
	// Version is reported as the SARIF tool version.
	Version string
}

// ColorEnabled reports whether f is a terminal that should get color.
func ColorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Write renders results to w.
func Write(w io.Writer, results []FileResult, opts Options) error {
	if results == nil {
		results = []FileResult{}
	}

	switch opts.Format {
	case "", FormatText:
		_, err := io.WriteString(w, FormatHuman(results, opts.Color, opts.Verbose))
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("marshal json report: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("marshal yaml report: %w", err)
		}
		return enc.Close()
	case FormatSARIF:
		return writeSARIF(w, results, opts.Version)
	default:
		return fmt.Errorf("unknown format %q", opts.Format)
	}
}

// MaxRisk returns the highest risk score across results.
func MaxRisk(results []FileResult) int {
	highest := 0
	for _, r := range results {
		if r.Result != nil && r.Result.RiskScore > highest {
			highest = r.Result.RiskScore
		}
	}
	return highest
}

var severityOrder = map[rules.Severity]int{
	rules.Critical: 0,
	rules.High:     1,
	rules.Medium:   2,
	rules.Low:      3,
}

var (
	styleCritical = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("9"))
	styleHigh     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	styleMedium   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	styleLow      = lipgloss.NewStyle().Faint(true)
	stylePath     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	styleFix      = lipgloss.NewStyle().Faint(true)
	styleError    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func styleSeverity(sev rules.Severity, color bool) string {
	label := fmt.Sprintf("%-8s", strings.ToUpper(string(sev)))
	if !color {
		return label
	}
	switch sev {
	case rules.Critical:
		return styleCritical.Render(label)
	case rules.High:
		return styleHigh.Render(label)
	case rules.Medium:
		return styleMedium.Render(label)
	case rules.Low:
		return styleLow.Render(label)
	default:
		return label
	}
}

func render(style lipgloss.Style, s string, color bool) string {
	if !color {
		return s
	}
	return style.Render(s)
}

// FormatHuman formats results as severity-sorted terminal output. When
// verbose is true, snippets and fixes are included for each finding.
func FormatHuman(results []FileResult, color, verbose bool) string {
	var b strings.Builder

	files, total := 0, 0
	counts := make(map[rules.Severity]int)

	for _, fr := range results {
		files++
		header := render(stylePath, fr.Path, color)

		if fr.Error != "" {
			fmt.Fprintf(&b, "%s\n  %s\n\n", header, render(styleError, "error: "+fr.Error, color))
			continue
		}
		if fr.Result == nil || len(fr.Result.Vulnerabilities) == 0 {
			if verbose {
				fmt.Fprintf(&b, "%s\n  no vulnerabilities detected\n\n", header)
			}
			continue
		}

		res := fr.Result
		fmt.Fprintf(&b, "%s  (risk %d/%d, %s)\n", header, res.RiskScore, scanner.MaxRiskScore, res.Language)

		sorted := make([]scanner.Finding, len(res.Vulnerabilities))
		copy(sorted, res.Vulnerabilities)
		sort.SliceStable(sorted, func(i, j int) bool {
			oi, ok := severityOrder[sorted[i].Severity]
			if !ok {
				oi = len(severityOrder)
			}
			oj, ok := severityOrder[sorted[j].Severity]
			if !ok {
				oj = len(severityOrder)
			}
			return oi < oj
		})

		for _, f := range sorted {
			total++
			counts[f.Severity]++
			fmt.Fprintf(&b, "  %s %4d:%-3d %s: %s\n", styleSeverity(f.Severity, color), f.Line, f.Column, f.Type, f.Description)
			if verbose {
				if snippet := strings.TrimSpace(f.Snippet); snippet != "" {
					fmt.Fprintf(&b, "           %s\n", strings.ReplaceAll(snippet, "\n", " "))
				}
				if f.Fix != "" {
					fmt.Fprintf(&b, "           %s\n", render(styleFix, "fix: "+f.Fix, color))
				}
			}
		}
		if res.Partial {
			fmt.Fprintf(&b, "  %s\n", render(styleError, "scan incomplete: results are partial", color))
		}
		b.WriteString("\n")
	}

	if total == 0 {
		fmt.Fprintf(&b, "No vulnerabilities detected in %d file(s).\n", files)
		return b.String()
	}

	var parts []string
	for _, sev := range rules.Severities() {
		if c := counts[sev]; c > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c, strings.ToLower(string(sev))))
		}
	}
	fmt.Fprintf(&b, "%d finding(s) in %d file(s) (%s), max risk %d\n", total, files, strings.Join(parts, ", "), MaxRisk(results))
	return b.String()
}
