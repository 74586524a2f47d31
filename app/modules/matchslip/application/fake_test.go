package matchslipservice

import (
	"context"
	"sync"

	matchslipdomain "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/domain"
	matchslippolicy "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/infrastructure/policy"
	matchslipdb "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/infrastructure/repositories"
)

// ------------------------
// Fake Registry
// ------------------------

// FakeRegistry delegates to an in-memory registry unless a Func override is set.
type FakeRegistry struct {
	mu    sync.Mutex
	trace []string
	inner *matchslipdb.MemoryRegistry

	CreateFunc func(ctx context.Context, slip *matchslipdomain.Slip) error
	UpdateFunc func(ctx context.Context, id string, fn func(*matchslipdomain.Slip) error) (*matchslipdomain.Slip, error)
}

func NewFakeRegistry() *FakeRegistry {
	return &FakeRegistry{
		trace: []string{},
		inner: matchslipdb.NewMemoryRegistry(),
	}
}

func (f *FakeRegistry) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeRegistry) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeRegistry) Create(ctx context.Context, slip *matchslipdomain.Slip) error {
	f.record("Create")
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, slip)
	}
	return f.inner.Create(ctx, slip)
}

func (f *FakeRegistry) Get(ctx context.Context, id string) (*matchslipdomain.Slip, error) {
	f.record("Get")
	return f.inner.Get(ctx, id)
}

func (f *FakeRegistry) Update(ctx context.Context, id string, fn func(*matchslipdomain.Slip) error) (*matchslipdomain.Slip, error) {
	f.record("Update")
	if f.UpdateFunc != nil {
		return f.UpdateFunc(ctx, id, fn)
	}
	return f.inner.Update(ctx, id, fn)
}

func (f *FakeRegistry) ListByTournament(ctx context.Context, tournamentID string) ([]*matchslipdomain.Slip, error) {
	f.record("ListByTournament")
	return f.inner.ListByTournament(ctx, tournamentID)
}

var _ matchslipdb.Registry = (*FakeRegistry)(nil)

// ------------------------
// Fake Policy
// ------------------------

type FakePolicy struct {
	IsPhoneBannedFunc func(ctx context.Context, tournamentID string) (bool, error)
}

func (f *FakePolicy) IsPhoneBanned(ctx context.Context, tournamentID string) (bool, error) {
	if f.IsPhoneBannedFunc != nil {
		return f.IsPhoneBannedFunc(ctx, tournamentID)
	}
	return false, nil
}

var _ matchslippolicy.DevicePolicy = (*FakePolicy)(nil)
