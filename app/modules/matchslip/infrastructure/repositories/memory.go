package matchslipdb

import (
	"context"
	"sort"
	"sync"

	matchslipdomain "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/domain"
)

type slipEntry struct {
	mu   sync.Mutex
	slip *matchslipdomain.Slip
}

// MemoryRegistry keeps slips in process memory with one lock per slip.
// Slips are never removed, so an entry found in the map stays valid.
type MemoryRegistry struct {
	mu    sync.RWMutex
	slips map[string]*slipEntry
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{slips: make(map[string]*slipEntry)}
}

func (r *MemoryRegistry) Create(_ context.Context, slip *matchslipdomain.Slip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.slips[slip.ID]; exists {
		return ErrDuplicateID
	}
	r.slips[slip.ID] = &slipEntry{slip: slip.Clone()}
	return nil
}

func (r *MemoryRegistry) lookup(id string) *slipEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.slips[id]
}

func (r *MemoryRegistry) Get(_ context.Context, id string) (*matchslipdomain.Slip, error) {
	e := r.lookup(id)
	if e == nil {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.slip.Clone(), nil
}

func (r *MemoryRegistry) Update(_ context.Context, id string, fn func(*matchslipdomain.Slip) error) (*matchslipdomain.Slip, error) {
	e := r.lookup(id)
	if e == nil {
		return nil, ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	working := e.slip.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	e.slip = working
	return working.Clone(), nil
}

func (r *MemoryRegistry) ListByTournament(_ context.Context, tournamentID string) ([]*matchslipdomain.Slip, error) {
	r.mu.RLock()
	entries := make([]*slipEntry, 0, len(r.slips))
	for _, e := range r.slips {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := []*matchslipdomain.Slip{}
	for _, e := range entries {
		e.mu.Lock()
		if e.slip.TournamentID == tournamentID {
			out = append(out, e.slip.Clone())
		}
		e.mu.Unlock()
	}
	sortSlips(out)
	return out, nil
}

func sortSlips(slips []*matchslipdomain.Slip) {
	sort.Slice(slips, func(i, j int) bool {
		if slips[i].Round != slips[j].Round {
			return slips[i].Round < slips[j].Round
		}
		if slips[i].Table != slips[j].Table {
			return slips[i].Table < slips[j].Table
		}
		return slips[i].ID < slips[j].ID
	})
}

var _ Registry = (*MemoryRegistry)(nil)
