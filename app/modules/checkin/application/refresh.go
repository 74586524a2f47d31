package checkinservice

import (
	"context"
	"errors"
	"strconv"

	checkindomain "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/domain"
	checkindb "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/infrastructure/repositories"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/results"
)

// Refresh rotates value into a new token for the same pair. The old value is
// removed in the same step, so it can only ever fail as not found afterwards.
func (s *CheckInService) Refresh(ctx context.Context, value string) (results.OperationResult[*checkindomain.Token, error], error) {
	return withTelemetry(s, ctx, "Refresh", value, func(ctx context.Context) (results.OperationResult[*checkindomain.Token, error], error) {
		return s.refreshLogic(ctx, value)
	})
}

func (s *CheckInService) refreshLogic(ctx context.Context, value string) (results.OperationResult[*checkindomain.Token, error], error) {
	var (
		next *checkindomain.Token
		err  error
	)
	for attempt := 1; ; attempt++ {
		var newValue string
		newValue, err = s.newValue()
		if err != nil {
			return results.OperationResult[*checkindomain.Token, error]{}, err
		}

		now := s.clock.Now()
		next, err = s.store.Rotate(ctx, value, func(old checkindomain.Token) (*checkindomain.Token, error) {
			return old.Successor(newValue, now, s.opts.TokenTTL)
		})
		if errors.Is(err, checkindb.ErrDuplicateValue) && attempt < issueAttempts {
			continue
		}
		break
	}
	if err != nil {
		return storeFailure[*checkindomain.Token](err)
	}

	s.recordAudit(ctx, value, "rotated", next.PlayerID, map[string]string{
		"replaced_by": next.Value,
	})
	s.recordAudit(ctx, next.Value, "issued", next.PlayerID, map[string]string{
		"player_id":     next.PlayerID,
		"tournament_id": next.TournamentID,
		"division":      next.Division,
		"expires_at":    next.ExpiresAt.Format(timeLayout),
		"refresh_count": strconv.Itoa(next.RefreshCount),
		"rotated_from":  value,
	})

	return results.SuccessResult[*checkindomain.Token, error](next), nil
}
