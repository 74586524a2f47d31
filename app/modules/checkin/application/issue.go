package checkinservice

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	checkindomain "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/domain"
	checkindb "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/infrastructure/repositories"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/results"
)

// Issue creates a fresh Pending token for the pair, replacing any token the
// pair already held.
func (s *CheckInService) Issue(ctx context.Context, playerID, tournamentID, division string) (results.OperationResult[*checkindomain.Token, error], error) {
	return withTelemetry(s, ctx, "Issue", playerID, func(ctx context.Context) (results.OperationResult[*checkindomain.Token, error], error) {
		return s.issueLogic(ctx, playerID, tournamentID, division)
	})
}

func (s *CheckInService) issueLogic(ctx context.Context, playerID, tournamentID, division string) (results.OperationResult[*checkindomain.Token, error], error) {
	playerID = strings.TrimSpace(playerID)
	tournamentID = strings.TrimSpace(tournamentID)
	if playerID == "" || tournamentID == "" {
		return results.FailureResult[*checkindomain.Token, error](
			fmt.Errorf("%w: player and tournament are required", checkindomain.ErrInvalidInput)), nil
	}

	for attempt := 1; ; attempt++ {
		value, err := s.newValue()
		if err != nil {
			return results.OperationResult[*checkindomain.Token, error]{}, err
		}

		token := checkindomain.NewToken(value, playerID, tournamentID, division, s.clock.Now(), s.opts.TokenTTL)
		superseded, err := s.store.Replace(ctx, token)
		if errors.Is(err, checkindb.ErrDuplicateValue) && attempt < issueAttempts {
			continue
		}
		if err != nil {
			return results.OperationResult[*checkindomain.Token, error]{}, fmt.Errorf("failed to store token: %w", err)
		}

		details := map[string]string{
			"player_id":     playerID,
			"tournament_id": tournamentID,
			"division":      division,
			"expires_at":    token.ExpiresAt.Format(timeLayout),
			"refresh_count": strconv.Itoa(token.RefreshCount),
		}
		if superseded != nil {
			details["superseded"] = superseded.Value
		}
		s.recordAudit(ctx, token.Value, "issued", playerID, details)

		return results.SuccessResult[*checkindomain.Token, error](token), nil
	}
}
