package checkinservice

import (
	"context"
	"errors"
	"fmt"

	checkindomain "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/domain"
	checkindb "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/infrastructure/repositories"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/results"
)

// Validate reports whether value could be redeemed right now. It never
// changes the token; lapsed tokens are only marked Expired by Expire.
func (s *CheckInService) Validate(ctx context.Context, value string) (results.OperationResult[*checkindomain.Validation, error], error) {
	return withTelemetry(s, ctx, "Validate", value, func(ctx context.Context) (results.OperationResult[*checkindomain.Validation, error], error) {
		token, err := s.store.Get(ctx, value)
		if err != nil && !errors.Is(err, checkindb.ErrNotFound) {
			return results.OperationResult[*checkindomain.Validation, error]{}, fmt.Errorf("failed to get token: %w", err)
		}

		v := checkindomain.Validate(token, s.clock.Now())
		return results.SuccessResult[*checkindomain.Validation, error](&v), nil
	})
}
