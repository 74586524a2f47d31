package checkinhandlers

import (
	"context"

	checkinservice "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/application"
	checkindomain "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/domain"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/notify"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/results"
)

type tokenResult = results.OperationResult[*checkindomain.Token, error]

// FakeService is a programmable checkinservice.Service.
type FakeService struct {
	trace []string

	IssueFunc    func(ctx context.Context, playerID, tournamentID, division string) (tokenResult, error)
	ValidateFunc func(ctx context.Context, value string) (results.OperationResult[*checkindomain.Validation, error], error)
	RedeemFunc   func(ctx context.Context, value, scannedBy string) (results.OperationResult[*checkindomain.CheckInRecord, error], error)
	RefreshFunc  func(ctx context.Context, value string) (tokenResult, error)
	ExpireFunc   func(ctx context.Context, value string) (tokenResult, error)
	HistoryFunc  func(ctx context.Context, tournamentID string) (results.OperationResult[[]checkindomain.CheckInRecord, error], error)
	ChartFunc    func(ctx context.Context, tournamentID string) ([]byte, error)
}

func NewFakeService() *FakeService {
	return &FakeService{trace: []string{}}
}

func (f *FakeService) record(step string) { f.trace = append(f.trace, step) }

// Trace returns the sequence of calls made.
func (f *FakeService) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeService) Issue(ctx context.Context, playerID, tournamentID, division string) (tokenResult, error) {
	f.record("Issue")
	if f.IssueFunc != nil {
		return f.IssueFunc(ctx, playerID, tournamentID, division)
	}
	return tokenResult{}, nil
}

func (f *FakeService) Validate(ctx context.Context, value string) (results.OperationResult[*checkindomain.Validation, error], error) {
	f.record("Validate")
	if f.ValidateFunc != nil {
		return f.ValidateFunc(ctx, value)
	}
	return results.OperationResult[*checkindomain.Validation, error]{}, nil
}

func (f *FakeService) Redeem(ctx context.Context, value, scannedBy string) (results.OperationResult[*checkindomain.CheckInRecord, error], error) {
	f.record("Redeem")
	if f.RedeemFunc != nil {
		return f.RedeemFunc(ctx, value, scannedBy)
	}
	return results.OperationResult[*checkindomain.CheckInRecord, error]{}, nil
}

func (f *FakeService) Refresh(ctx context.Context, value string) (tokenResult, error) {
	f.record("Refresh")
	if f.RefreshFunc != nil {
		return f.RefreshFunc(ctx, value)
	}
	return tokenResult{}, nil
}

func (f *FakeService) Expire(ctx context.Context, value string) (tokenResult, error) {
	f.record("Expire")
	if f.ExpireFunc != nil {
		return f.ExpireFunc(ctx, value)
	}
	return tokenResult{}, nil
}

func (f *FakeService) Sweep(context.Context) (int, error) {
	f.record("Sweep")
	return 0, nil
}

func (f *FakeService) History(ctx context.Context, tournamentID string) (results.OperationResult[[]checkindomain.CheckInRecord, error], error) {
	f.record("History")
	if f.HistoryFunc != nil {
		return f.HistoryFunc(ctx, tournamentID)
	}
	return results.SuccessResult[[]checkindomain.CheckInRecord, error](nil), nil
}

func (f *FakeService) ArrivalsChart(ctx context.Context, tournamentID string) ([]byte, error) {
	f.record("ArrivalsChart")
	if f.ChartFunc != nil {
		return f.ChartFunc(ctx, tournamentID)
	}
	return nil, nil
}

func (f *FakeService) Subscribe(string, notify.Handler) string { return "" }
func (f *FakeService) Unsubscribe(string) bool                 { return false }

var _ checkinservice.Service = (*FakeService)(nil)
