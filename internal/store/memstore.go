package store

import (
	"sync"

	"apedash/internal/results"
)

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu      sync.Mutex
	runs    map[int64]*Run
	records map[int64][]results.Record
	nextID  int64
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		runs:    make(map[int64]*Run),
		records: make(map[int64][]results.Record),
		nextID:  1,
	}
}

func (s *MemStore) SaveRun(name, sourcePath string, recs []results.Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.runs[id] = &Run{
		ID:          id,
		Name:        name,
		SourcePath:  sourcePath,
		CreatedAt:   nowUTC(),
		RecordCount: len(recs),
	}
	s.records[id] = append([]results.Record(nil), recs...)
	return id, nil
}

func (s *MemStore) GetRun(runID int64) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[runID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *MemStore) ListRuns() ([]*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Run, 0, len(s.runs))
	for id := s.nextID - 1; id >= 1; id-- {
		if r, ok := s.runs[id]; ok {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemStore) LatestRun() (*Run, error) {
	runs, _ := s.ListRuns()
	if len(runs) == 0 {
		return nil, ErrNotFound
	}
	return runs[0], nil
}

func (s *MemStore) LoadRecords(runID int64) ([]results.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, ok := s.records[runID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]results.Record(nil), recs...), nil
}

func (s *MemStore) Close() error { return nil }
