package checkinservice

import (
	"context"

	checkindomain "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/domain"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/notify"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/results"
)

// Service is the check-in token lifecycle.
type Service interface {
	Issue(ctx context.Context, playerID, tournamentID, division string) (results.OperationResult[*checkindomain.Token, error], error)
	Validate(ctx context.Context, value string) (results.OperationResult[*checkindomain.Validation, error], error)
	Redeem(ctx context.Context, value, scannedBy string) (results.OperationResult[*checkindomain.CheckInRecord, error], error)
	Refresh(ctx context.Context, value string) (results.OperationResult[*checkindomain.Token, error], error)
	Expire(ctx context.Context, value string) (results.OperationResult[*checkindomain.Token, error], error)
	Sweep(ctx context.Context) (int, error)
	History(ctx context.Context, tournamentID string) (results.OperationResult[[]checkindomain.CheckInRecord, error], error)
	ArrivalsChart(ctx context.Context, tournamentID string) ([]byte, error)

	Subscribe(eventName string, handler notify.Handler) string
	Unsubscribe(id string) bool
}

// NameResolver turns ids into display names. Errors and empty names fall
// back to the raw id.
type NameResolver interface {
	ResolvePlayerName(ctx context.Context, playerID string) (string, error)
	ResolveTournamentName(ctx context.Context, tournamentID string) (string, error)
}
