package storage

import (
	"sync"
	"time"

	"github.com/pradeepp3/CODATS/pkg/rules"
)

// DefaultCapacity is the number of records a MemoryStore keeps by default.
const DefaultCapacity = 1000

// MemoryStore implements Store with a bounded in-memory slice. The oldest
// records are dropped once capacity is reached.
type MemoryStore struct {
	mu       sync.RWMutex
	records  []ScanRecord
	capacity int
	now      func() time.Time
}

// NewMemoryStore creates a new in-memory store. A capacity of zero or less
// uses DefaultCapacity.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{
		records:  make([]ScanRecord, 0),
		capacity: capacity,
		now:      time.Now,
	}
}

// Record stores a scan record.
func (s *MemoryStore) Record(rec ScanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now().UTC()
	}
	if len(s.records) >= s.capacity {
		s.records = append(s.records[:0], s.records[len(s.records)-s.capacity+1:]...)
	}
	s.records = append(s.records, rec)
	return nil
}

// Query returns records matching opts, newest first.
func (s *MemoryStore) Query(opts QueryOptions) ([]ScanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []ScanRecord{}

	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]

		if opts.Since != nil && rec.Timestamp.Before(*opts.Since) {
			continue
		}
		if opts.Until != nil && rec.Timestamp.After(*opts.Until) {
			continue
		}
		if opts.Source != "" && rec.Source != opts.Source {
			continue
		}
		if opts.Language != "" && rec.Language != opts.Language {
			continue
		}
		if opts.MinRisk > 0 && rec.RiskScore < opts.MinRisk {
			continue
		}

		results = append(results, rec)
	}

	if opts.Offset > 0 {
		if opts.Offset >= len(results) {
			return []ScanRecord{}, nil
		}
		results = results[opts.Offset:]
	}

	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}

	return results, nil
}

// CountScansToday returns the number of scans recorded since midnight UTC.
func (s *MemoryStore) CountScansToday() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countSince(startOfDay(s.now())), nil
}

func (s *MemoryStore) countSince(t time.Time) int64 {
	var count int64
	for _, rec := range s.records {
		if !rec.Timestamp.Before(t) {
			count++
		}
	}
	return count
}

// Stats aggregates all stored records.
func (s *MemoryStore) Stats() (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		TotalScans: int64(len(s.records)),
		ScansToday: s.countSince(startOfDay(s.now())),
		BySeverity: make(map[rules.Severity]int, 4),
	}
	for _, sev := range rules.Severities() {
		stats.BySeverity[sev] = 0
	}

	riskTotal := 0
	for _, rec := range s.records {
		stats.TotalFindings += int64(rec.Total)
		riskTotal += rec.RiskScore
		for sev, n := range rec.BySeverity {
			stats.BySeverity[sev] += n
		}
	}
	if len(s.records) > 0 {
		stats.AverageRiskScore = float64(riskTotal) / float64(len(s.records))
	}

	return stats, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Clear removes all stored records.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make([]ScanRecord, 0)
}

// Close closes the store (no-op for memory store).
func (s *MemoryStore) Close() error {
	return nil
}

func startOfDay(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
