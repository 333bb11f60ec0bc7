// Package storage keeps the history of completed scans.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/pradeepp3/CODATS/pkg/rules"
	"github.com/pradeepp3/CODATS/pkg/scanner"
)

// Sources of a scan.
const (
	SourceAPI    = "api"
	SourceUpload = "upload"
	SourceCLI    = "cli"
	SourceWatch  = "watch"
)

// ScanRecord summarizes one completed scan. The scanned code itself is not
// kept, only its hash.
type ScanRecord struct {
	ID          string                 `json:"id"`
	Timestamp   time.Time              `json:"timestamp"`
	Source      string                 `json:"source"`
	Filename    string                 `json:"filename,omitempty"`
	Language    string                 `json:"language"`
	RiskScore   int                    `json:"riskScore"`
	Total       int                    `json:"totalVulnerabilities"`
	BySeverity  map[rules.Severity]int `json:"bySeverity"`
	Partial     bool                   `json:"partial,omitempty"`
	ContentHash string                 `json:"contentHash"`
}

// NewRecord builds a record for a finished scan.
func NewRecord(source, filename, code string, result *scanner.Result) ScanRecord {
	bySeverity := make(map[rules.Severity]int, len(result.Summary.BySeverity))
	for sev, n := range result.Summary.BySeverity {
		bySeverity[sev] = n
	}

	return ScanRecord{
		ID:          uuid.NewString(),
		Timestamp:   result.ScannedAt,
		Source:      source,
		Filename:    filename,
		Language:    result.Language,
		RiskScore:   result.RiskScore,
		Total:       result.TotalVulnerabilities,
		BySeverity:  bySeverity,
		Partial:     result.Partial,
		ContentHash: HashContent(code),
	}
}

// HashContent returns the hex SHA-256 of code.
func HashContent(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// Stats aggregates the stored history.
type Stats struct {
	TotalScans       int64                  `json:"totalScans"`
	ScansToday       int64                  `json:"scansToday"`
	TotalFindings    int64                  `json:"totalFindings"`
	BySeverity       map[rules.Severity]int `json:"bySeverity"`
	AverageRiskScore float64                `json:"averageRiskScore"`
}

// Store defines the interface for scan history storage.
type Store interface {
	// Record stores a scan record.
	Record(rec ScanRecord) error

	// Query returns records matching opts, newest first.
	Query(opts QueryOptions) ([]ScanRecord, error)

	// CountScansToday returns the number of scans recorded since midnight UTC.
	CountScansToday() (int64, error)

	// Stats aggregates all stored records.
	Stats() (Stats, error)

	// Close closes the store.
	Close() error
}

// QueryOptions specifies criteria for querying records.
type QueryOptions struct {
	Limit    int
	Offset   int
	Since    *time.Time
	Until    *time.Time
	Source   string
	Language string
	MinRisk  int
}
