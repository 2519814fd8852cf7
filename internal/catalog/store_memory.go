package catalog

import (
	"context"
	"sync"
)

// MemStore serves a fixed catalog from memory; Load hands out copies.
type MemStore struct {
	mu      sync.RWMutex
	records []Record
}

func NewMemStore(records ...Record) *MemStore {
	s := &MemStore{}
	s.Replace(records)
	return s
}

func (s *MemStore) Replace(records []Record) {
	cp := make([]Record, len(records))
	for i, r := range records {
		cp[i] = r.clone()
	}
	assignIDs(cp)

	s.mu.Lock()
	s.records = cp
	s.mu.Unlock()
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) Load(ctx context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.clone()
	}
	return out, nil
}
