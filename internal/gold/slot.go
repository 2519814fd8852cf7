package gold

import (
	"context"
	"sync/atomic"
)

// Slot holds the single cached observation. Load reports ok=false while empty.
type Slot interface {
	Load(ctx context.Context) (Price, bool, error)
	Store(ctx context.Context, p Price) error
}

// MemorySlot is a process-local slot; Store swaps the whole entry atomically.
type MemorySlot struct {
	p atomic.Pointer[Price]
}

func NewMemorySlot() *MemorySlot { return &MemorySlot{} }

func (s *MemorySlot) Load(context.Context) (Price, bool, error) {
	p := s.p.Load()
	if p == nil {
		return Price{}, false, nil
	}
	return *p, true, nil
}

func (s *MemorySlot) Store(_ context.Context, p Price) error {
	s.p.Store(&p)
	return nil
}
