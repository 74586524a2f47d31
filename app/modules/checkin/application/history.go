package checkinservice

import (
	"context"
	"fmt"

	checkindomain "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/domain"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/results"
)

// History returns a tournament's check-in records in redemption order.
func (s *CheckInService) History(ctx context.Context, tournamentID string) (results.OperationResult[[]checkindomain.CheckInRecord, error], error) {
	return withTelemetry(s, ctx, "History", tournamentID, func(ctx context.Context) (results.OperationResult[[]checkindomain.CheckInRecord, error], error) {
		records, err := s.store.ListRecords(ctx, tournamentID)
		if err != nil {
			return results.OperationResult[[]checkindomain.CheckInRecord, error]{}, fmt.Errorf("failed to list records: %w", err)
		}
		return results.SuccessResult[[]checkindomain.CheckInRecord, error](records), nil
	})
}
