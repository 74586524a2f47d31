package checkindb

import (
	"context"
	"sync"
	"time"

	checkindomain "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/domain"
)

type pairKey struct {
	playerID     string
	tournamentID string
}

// tokenEntry guards one token. removed is set once the entry leaves the map so
// that callers who looked it up before removal see ErrNotFound.
type tokenEntry struct {
	mu      sync.Mutex
	token   *checkindomain.Token
	removed bool
}

// MemoryStore keeps tokens in process memory. Lock order is store then entry
// then records; the store lock is only held for map access, so operations on
// different tokens never wait on each other's callbacks.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]*tokenEntry
	pairs  map[pairKey]string

	recMu   sync.RWMutex
	records map[string][]checkindomain.CheckInRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tokens:  make(map[string]*tokenEntry),
		pairs:   make(map[pairKey]string),
		records: make(map[string][]checkindomain.CheckInRecord),
	}
}

func (s *MemoryStore) Replace(_ context.Context, token *checkindomain.Token) (*checkindomain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tokens[token.Value]; exists {
		return nil, ErrDuplicateValue
	}

	var superseded *checkindomain.Token
	key := pairKey{token.PlayerID, token.TournamentID}
	if oldValue, ok := s.pairs[key]; ok {
		superseded = s.removeLocked(oldValue)
	}

	s.tokens[token.Value] = &tokenEntry{token: token.Clone()}
	s.pairs[key] = token.Value
	return superseded, nil
}

// removeLocked drops value from both maps. Caller holds s.mu.
func (s *MemoryStore) removeLocked(value string) *checkindomain.Token {
	e, ok := s.tokens[value]
	if !ok {
		return nil
	}
	e.mu.Lock()
	e.removed = true
	old := e.token.Clone()
	e.mu.Unlock()

	delete(s.tokens, value)
	key := pairKey{old.PlayerID, old.TournamentID}
	if s.pairs[key] == value {
		delete(s.pairs, key)
	}
	return old
}

func (s *MemoryStore) lookup(value string) *tokenEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens[value]
}

func (s *MemoryStore) Get(_ context.Context, value string) (*checkindomain.Token, error) {
	e := s.lookup(value)
	if e == nil {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return nil, ErrNotFound
	}
	return e.token.Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, value string, fn func(*checkindomain.Token) error) (*checkindomain.Token, error) {
	e := s.lookup(value)
	if e == nil {
		return nil, ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return nil, ErrNotFound
	}

	working := e.token.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	e.token = working
	return working.Clone(), nil
}

func (s *MemoryStore) Redeem(ctx context.Context, value string, fn RedeemFunc, journal Journal) (*checkindomain.Token, error) {
	e := s.lookup(value)
	if e == nil {
		return nil, ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return nil, ErrNotFound
	}

	working := e.token.Clone()
	record, err := fn(working)
	if err != nil {
		return nil, err
	}
	if journal != nil {
		if err := journal(ctx, working.Clone()); err != nil {
			return nil, err
		}
	}

	e.token = working
	s.recMu.Lock()
	s.records[record.TournamentID] = append(s.records[record.TournamentID], *record)
	s.recMu.Unlock()
	return working.Clone(), nil
}

func (s *MemoryStore) Rotate(_ context.Context, oldValue string, build func(old checkindomain.Token) (*checkindomain.Token, error)) (*checkindomain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.tokens[oldValue]
	if !ok {
		return nil, ErrNotFound
	}

	e.mu.Lock()
	if e.removed {
		e.mu.Unlock()
		return nil, ErrNotFound
	}
	next, err := build(*e.token.Clone())
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	e.mu.Unlock()

	if _, exists := s.tokens[next.Value]; exists {
		return nil, ErrDuplicateValue
	}

	s.removeLocked(oldValue)
	s.tokens[next.Value] = &tokenEntry{token: next.Clone()}
	s.pairs[pairKey{next.PlayerID, next.TournamentID}] = next.Value
	return next.Clone(), nil
}

func (s *MemoryStore) snapshot() []*tokenEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*tokenEntry, 0, len(s.tokens))
	for _, e := range s.tokens {
		out = append(out, e)
	}
	return out
}

func (s *MemoryStore) ListPendingExpiredBefore(_ context.Context, now time.Time) ([]string, error) {
	var values []string
	for _, e := range s.snapshot() {
		e.mu.Lock()
		if !e.removed && e.token.Status == checkindomain.StatusPending && e.token.ExpiresAt.Before(now) {
			values = append(values, e.token.Value)
		}
		e.mu.Unlock()
	}
	return values, nil
}

func (s *MemoryStore) Purge(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stale []string
	for value, e := range s.tokens {
		e.mu.Lock()
		if e.token.Status != checkindomain.StatusPending && e.token.ExpiresAt.Before(cutoff) {
			stale = append(stale, value)
		}
		e.mu.Unlock()
	}
	for _, value := range stale {
		s.removeLocked(value)
	}
	return len(stale), nil
}

func (s *MemoryStore) ListRecords(_ context.Context, tournamentID string) ([]checkindomain.CheckInRecord, error) {
	s.recMu.RLock()
	defer s.recMu.RUnlock()
	out := make([]checkindomain.CheckInRecord, len(s.records[tournamentID]))
	copy(out, s.records[tournamentID])
	return out, nil
}

var _ Store = (*MemoryStore)(nil)
