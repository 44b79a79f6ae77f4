package pool

import (
	"math/rand"
	"sync/atomic"
)

// Service holds the current pool in memory. Replace swaps an immutable
// snapshot behind an atomic pointer, so readers never take a lock and
// never observe a partially updated pool.
type Service struct {
	records  atomic.Pointer[[]Record]
	building atomic.Bool
}

// NewService creates an empty pool service.
func NewService() *Service {
	return &Service{}
}

// Replace atomically swaps the held pool with a copy of records.
func (s *Service) Replace(records []Record) {
	snapshot := make([]Record, len(records))
	copy(snapshot, records)
	s.records.Store(&snapshot)
}

// Records returns the current pool snapshot. Callers must not mutate it.
func (s *Service) Records() []Record {
	ptr := s.records.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// Size returns the current record count, 0 when never populated.
func (s *Service) Size() int {
	return len(s.Records())
}

// Random returns up to n records sampled without repetition from the
// current pool.
func (s *Service) Random(n int) []Record {
	records := s.Records()
	if n <= 0 || len(records) == 0 {
		return nil
	}
	if n >= len(records) {
		n = len(records)
	}

	picked := make([]Record, 0, n)
	for _, idx := range rand.Perm(len(records))[:n] {
		picked = append(picked, records[idx])
	}
	return picked
}

// SetBuilding records whether a rebuild is in progress. Never blocks.
func (s *Service) SetBuilding(building bool) {
	s.building.Store(building)
}

// Building reports whether a rebuild is in progress.
func (s *Service) Building() bool {
	return s.building.Load()
}
