package checkinservice

import (
	"context"
	"sync"
	"time"

	checkindomain "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/domain"
	checkindb "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/infrastructure/repositories"
)

// ------------------------
// Fake Store
// ------------------------

// FakeStore delegates to an in-memory store unless a Func override is set.
type FakeStore struct {
	mu    sync.Mutex
	trace []string
	inner *checkindb.MemoryStore

	ReplaceFunc     func(ctx context.Context, token *checkindomain.Token) (*checkindomain.Token, error)
	RedeemFunc      func(ctx context.Context, value string, fn checkindb.RedeemFunc, journal checkindb.Journal) (*checkindomain.Token, error)
	ListRecordsFunc func(ctx context.Context, tournamentID string) ([]checkindomain.CheckInRecord, error)
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		trace: []string{},
		inner: checkindb.NewMemoryStore(),
	}
}

func (f *FakeStore) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeStore) Replace(ctx context.Context, token *checkindomain.Token) (*checkindomain.Token, error) {
	f.record("Replace")
	if f.ReplaceFunc != nil {
		return f.ReplaceFunc(ctx, token)
	}
	return f.inner.Replace(ctx, token)
}

func (f *FakeStore) Get(ctx context.Context, value string) (*checkindomain.Token, error) {
	f.record("Get")
	return f.inner.Get(ctx, value)
}

func (f *FakeStore) Update(ctx context.Context, value string, fn func(*checkindomain.Token) error) (*checkindomain.Token, error) {
	f.record("Update")
	return f.inner.Update(ctx, value, fn)
}

func (f *FakeStore) Redeem(ctx context.Context, value string, fn checkindb.RedeemFunc, journal checkindb.Journal) (*checkindomain.Token, error) {
	f.record("Redeem")
	if f.RedeemFunc != nil {
		return f.RedeemFunc(ctx, value, fn, journal)
	}
	return f.inner.Redeem(ctx, value, fn, journal)
}

func (f *FakeStore) Rotate(ctx context.Context, oldValue string, build func(old checkindomain.Token) (*checkindomain.Token, error)) (*checkindomain.Token, error) {
	f.record("Rotate")
	return f.inner.Rotate(ctx, oldValue, build)
}

func (f *FakeStore) ListPendingExpiredBefore(ctx context.Context, now time.Time) ([]string, error) {
	f.record("ListPendingExpiredBefore")
	return f.inner.ListPendingExpiredBefore(ctx, now)
}

func (f *FakeStore) Purge(ctx context.Context, cutoff time.Time) (int, error) {
	f.record("Purge")
	return f.inner.Purge(ctx, cutoff)
}

func (f *FakeStore) ListRecords(ctx context.Context, tournamentID string) ([]checkindomain.CheckInRecord, error) {
	f.record("ListRecords")
	if f.ListRecordsFunc != nil {
		return f.ListRecordsFunc(ctx, tournamentID)
	}
	return f.inner.ListRecords(ctx, tournamentID)
}

// --- Accessors for assertions ---

func (f *FakeStore) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// Ensure the fake actually satisfies the interface
var _ checkindb.Store = (*FakeStore)(nil)
