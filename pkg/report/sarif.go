package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/pradeepp3/CODATS/pkg/rules"
)

const (
	sarifVersion = "2.1.0"
	sarifSchema  = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json"
	toolName     = "codats"
	toolURI      = "https://github.com/pradeepp3/CODATS"
)

// SARIF v2.1.0 types, the subset read by GitHub Code Scanning.

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Results     []sarifResult     `json:"results"`
	Invocations []sarifInvocation `json:"invocations,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	InformationURI string      `json:"informationUri"`
	Version        string      `json:"version,omitempty"`
	Rules          []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string              `json:"id"`
	Name             string              `json:"name,omitempty"`
	ShortDescription sarifMessage        `json:"shortDescription"`
	Help             *sarifMessage       `json:"help,omitempty"`
	DefaultConfig    *sarifDefaultConfig `json:"defaultConfiguration,omitempty"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID     string           `json:"ruleId"`
	RuleIndex  int              `json:"ruleIndex"`
	Level      string           `json:"level"`
	Message    sarifMessage     `json:"message"`
	Locations  []sarifLocation  `json:"locations,omitempty"`
	Properties *sarifProperties `json:"properties,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int           `json:"startLine"`
	StartColumn int           `json:"startColumn,omitempty"`
	Snippet     *sarifMessage `json:"snippet,omitempty"`
}

type sarifProperties struct {
	Severity      string `json:"severity,omitempty"`
	SeverityScore int    `json:"severityScore,omitempty"`
	Category      string `json:"category,omitempty"`
}

type sarifInvocation struct {
	ExecutionSuccessful bool                `json:"executionSuccessful"`
	Notifications       []sarifNotification `json:"toolExecutionNotifications,omitempty"`
}

type sarifNotification struct {
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

func writeSARIF(w io.Writer, results []FileResult, version string) error {
	b, err := json.MarshalIndent(buildSARIF(results, version), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sarif report: %w", err)
	}
	b = append(b, '\n')
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("write sarif report: %w", err)
	}
	return nil
}

func buildSARIF(results []FileResult, version string) sarifLog {
	ruleIndex := map[string]int{}
	rulesOut := []sarifRule{}
	resultsOut := []sarifResult{}
	var notes []sarifNotification

	for _, fr := range results {
		uri := filepath.ToSlash(fr.Path)
		loc := sarifLocation{PhysicalLocation: sarifPhysicalLocation{
			ArtifactLocation: sarifArtifactLocation{URI: uri},
		}}

		if fr.Error != "" {
			notes = append(notes, sarifNotification{
				Level:     "error",
				Message:   sarifMessage{Text: fr.Error},
				Locations: []sarifLocation{loc},
			})
			continue
		}
		if fr.Result == nil {
			continue
		}
		for _, d := range fr.Result.Diagnostics {
			notes = append(notes, sarifNotification{
				Level:     "warning",
				Message:   sarifMessage{Text: fmt.Sprintf("%s: %s", d.Kind, d.Message)},
				Locations: []sarifLocation{loc},
			})
		}

		for _, f := range fr.Result.Vulnerabilities {
			ruleID := f.RuleKey
			if ruleID == "" {
				ruleID = "codats-finding"
			}

			idx, seen := ruleIndex[ruleID]
			if !seen {
				idx = len(rulesOut)
				ruleIndex[ruleID] = idx
				rule := sarifRule{
					ID:               ruleID,
					Name:             f.Type,
					ShortDescription: sarifMessage{Text: f.Type},
					DefaultConfig:    &sarifDefaultConfig{Level: mapSeverityToSARIF(f.Severity)},
				}
				if f.Fix != "" {
					rule.Help = &sarifMessage{Text: f.Fix}
				}
				rulesOut = append(rulesOut, rule)
			}

			region := &sarifRegion{StartLine: f.Line, StartColumn: f.Column}
			if f.Snippet != "" {
				region.Snippet = &sarifMessage{Text: f.Snippet}
			}

			resultsOut = append(resultsOut, sarifResult{
				RuleID:    ruleID,
				RuleIndex: idx,
				Level:     mapSeverityToSARIF(f.Severity),
				Message:   sarifMessage{Text: f.Description},
				Locations: []sarifLocation{{PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: uri},
					Region:           region,
				}}},
				Properties: &sarifProperties{
					Severity:      string(f.Severity),
					SeverityScore: f.SeverityScore,
					Category:      f.Type,
				},
			})
		}
	}

	run := sarifRun{
		Tool: sarifTool{
			Driver: sarifDriver{
				Name:           toolName,
				InformationURI: toolURI,
				Version:        version,
				Rules:          rulesOut,
			},
		},
		Results: resultsOut,
	}
	if len(notes) > 0 {
		run.Invocations = []sarifInvocation{{
			ExecutionSuccessful: true,
			Notifications:       notes,
		}}
	}

	return sarifLog{
		Version: sarifVersion,
		Schema:  sarifSchema,
		Runs:    []sarifRun{run},
	}
}

func mapSeverityToSARIF(sev rules.Severity) string {
	switch sev {
	case rules.Critical, rules.High:
		return "error"
	case rules.Medium:
		return "warning"
	default:
		return "note"
	}
}
