package scanner

import "github.com/pradeepp3/CODATS/pkg/rules"

// MaxRiskScore caps the aggregate risk score.
const MaxRiskScore = 100

// defaultSeverityWeight applies to severities outside the known four.
const defaultSeverityWeight = 5

var severityWeights = map[rules.Severity]int{
	rules.Critical: 25,
	rules.High:     15,
	rules.Medium:   8,
	rules.Low:      3,
}

// SeverityWeight returns the contribution of one finding of the given
// severity to the risk score.
func SeverityWeight(severity rules.Severity) int {
	if w, ok := severityWeights[severity]; ok {
		return w
	}
	return defaultSeverityWeight
}

// RiskScore sums the severity weights of all findings, capped at MaxRiskScore.
func RiskScore(findings []Finding) int {
	total := 0
	for _, f := range findings {
		total += SeverityWeight(f.Severity)
		if total >= MaxRiskScore {
			return MaxRiskScore
		}
	}
	return total
}

// Summarize counts findings by severity and by category name. BySeverity
// always carries all four known severities.
func Summarize(findings []Finding) Summary {
	summary := Summary{
		BySeverity: make(map[rules.Severity]int, 4),
		ByType:     make(map[string]int),
		Total:      len(findings),
	}
	for _, sev := range rules.Severities() {
		summary.BySeverity[sev] = 0
	}

	for _, f := range findings {
		if _, ok := summary.BySeverity[f.Severity]; ok {
			summary.BySeverity[f.Severity]++
		}
		summary.ByType[f.Type]++
	}

	return summary
}
