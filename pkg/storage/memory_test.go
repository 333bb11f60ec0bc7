package storage

import (
	"context"
	"testing"
	"time"

	"github.com/pradeepp3/CODATS/pkg/rules"
	"github.com/pradeepp3/CODATS/pkg/scanner"
)

func record(id string, ts time.Time, source string, risk int) ScanRecord {
	return ScanRecord{
		ID:         id,
		Timestamp:  ts,
		Source:     source,
		Language:   "javascript",
		RiskScore:  risk,
		Total:      1,
		BySeverity: map[rules.Severity]int{rules.High: 1},
	}
}

func TestMemoryStore_QueryNewestFirst(t *testing.T) {
	s := NewMemoryStore(0)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		s.Record(record(id, base.Add(time.Duration(i)*time.Minute), SourceAPI, 10*i))
	}

	got, err := s.Query(QueryOptions{})
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(got) != 3 || got[0].ID != "c" || got[2].ID != "a" {
		t.Errorf("unexpected order: %+v", got)
	}
}

func TestMemoryStore_QueryFilters(t *testing.T) {
	s := NewMemoryStore(0)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.Record(record("a", base, SourceAPI, 10))
	s.Record(record("b", base.Add(time.Hour), SourceUpload, 50))
	s.Record(record("c", base.Add(2*time.Hour), SourceAPI, 90))

	since := base.Add(30 * time.Minute)
	until := base.Add(90 * time.Minute)

	tests := []struct {
		name string
		opts QueryOptions
		want []string
	}{
		{"limit", QueryOptions{Limit: 2}, []string{"c", "b"}},
		{"offset", QueryOptions{Offset: 1}, []string{"b", "a"}},
		{"offset past end", QueryOptions{Offset: 5}, []string{}},
		{"source", QueryOptions{Source: SourceAPI}, []string{"c", "a"}},
		{"min risk", QueryOptions{MinRisk: 50}, []string{"c", "b"}},
		{"since", QueryOptions{Since: &since}, []string{"c", "b"}},
		{"until", QueryOptions{Until: &until}, []string{"b", "a"}},
		{"language", QueryOptions{Language: "python"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Query(tt.opts)
			if err != nil {
				t.Fatalf("Query() error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d records, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Errorf("record %d = %s, want %s", i, got[i].ID, tt.want[i])
				}
			}
		})
	}
}

func TestMemoryStore_Capacity(t *testing.T) {
	s := NewMemoryStore(2)
	now := time.Now()

	s.Record(record("a", now, SourceCLI, 1))
	s.Record(record("b", now, SourceCLI, 1))
	s.Record(record("c", now, SourceCLI, 1))

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	got, _ := s.Query(QueryOptions{})
	if got[0].ID != "c" || got[1].ID != "b" {
		t.Errorf("oldest record should be dropped: %+v", got)
	}
}

func TestMemoryStore_CountAndStats(t *testing.T) {
	s := NewMemoryStore(0)
	now := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Record(record("old", now.Add(-24*time.Hour), SourceAPI, 20))
	s.Record(record("today1", now.Add(-time.Hour), SourceAPI, 40))
	s.Record(ScanRecord{ID: "today2", Source: SourceAPI, RiskScore: 60, Total: 2,
		BySeverity: map[rules.Severity]int{rules.Critical: 2}})

	count, err := s.CountScansToday()
	if err != nil {
		t.Fatalf("CountScansToday() error: %v", err)
	}
	if count != 2 {
		t.Errorf("CountScansToday() = %d, want 2", count)
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.TotalScans != 3 || stats.ScansToday != 2 || stats.TotalFindings != 4 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.AverageRiskScore != 40 {
		t.Errorf("AverageRiskScore = %v, want 40", stats.AverageRiskScore)
	}
	if stats.BySeverity[rules.High] != 2 || stats.BySeverity[rules.Critical] != 2 || len(stats.BySeverity) != 4 {
		t.Errorf("BySeverity = %v", stats.BySeverity)
	}
}

func TestMemoryStore_Clear(t *testing.T) {
	s := NewMemoryStore(0)
	s.Record(record("a", time.Now(), SourceAPI, 1))
	s.Clear()

	if s.Len() != 0 {
		t.Errorf("Len() = %d after Clear", s.Len())
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestNewRecord(t *testing.T) {
	result, err := scanner.NewDefault().Scan(context.Background(), "eval(x)", "python")
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}

	rec := NewRecord(SourceUpload, "a.py", "eval(x)", result)

	if rec.ID == "" {
		t.Error("ID should be set")
	}
	if rec.Source != SourceUpload || rec.Filename != "a.py" || rec.Language != "python" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.RiskScore != 15 || rec.Total != 1 || rec.BySeverity[rules.High] != 1 {
		t.Errorf("result not summarized: %+v", rec)
	}
	if rec.ContentHash != HashContent("eval(x)") || len(rec.ContentHash) != 64 {
		t.Errorf("ContentHash = %q", rec.ContentHash)
	}
	if !rec.Timestamp.Equal(result.ScannedAt) {
		t.Error("Timestamp should be the scan time")
	}
}
