package audit

import (
	"context"
	"sync"

	"github.com/Black-And-White-Club/tourney-desk/app/shared/clock"
	"github.com/google/uuid"
)

// MemoryLog keeps entries in process memory. One instance per running service.
type MemoryLog struct {
	mu      sync.RWMutex
	entries map[string][]Entry
	clock   clock.Clock
}

func NewMemoryLog(c clock.Clock) *MemoryLog {
	if c == nil {
		c = clock.Real{}
	}
	return &MemoryLog{entries: make(map[string][]Entry), clock: c}
}

func (l *MemoryLog) Append(_ context.Context, e Entry) (Entry, error) {
	if e.EntityID == "" {
		return Entry{}, ErrMissingEntity
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = l.clock.Now()
	}
	e.Details = cloneDetails(e.Details)

	l.mu.Lock()
	l.entries[e.EntityID] = append(l.entries[e.EntityID], e)
	l.mu.Unlock()

	return e, nil
}

func (l *MemoryLog) Entries(_ context.Context, entityID string) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	src := l.entries[entityID]
	out := make([]Entry, len(src))
	for i, e := range src {
		e.Details = cloneDetails(e.Details)
		out[i] = e
	}
	return out, nil
}

var _ Log = (*MemoryLog)(nil)
