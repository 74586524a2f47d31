package checkinservice

import (
	"context"
	"fmt"

	checkindomain "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/domain"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/attr"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/notify"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/results"
)

// Expire moves a Pending token to Expired and announces it. It may be called
// before the window lapses to invalidate a token explicitly.
func (s *CheckInService) Expire(ctx context.Context, value string) (results.OperationResult[*checkindomain.Token, error], error) {
	return withTelemetry(s, ctx, "Expire", value, func(ctx context.Context) (results.OperationResult[*checkindomain.Token, error], error) {
		return s.expireLogic(ctx, value)
	})
}

func (s *CheckInService) expireLogic(ctx context.Context, value string) (results.OperationResult[*checkindomain.Token, error], error) {
	token, err := s.store.Update(ctx, value, func(t *checkindomain.Token) error {
		return t.Expire()
	})
	if err != nil {
		return storeFailure[*checkindomain.Token](err)
	}

	now := s.clock.Now()
	s.recordAudit(ctx, token.Value, "expired", "", map[string]string{
		"player_id":     token.PlayerID,
		"tournament_id": token.TournamentID,
		"expires_at":    token.ExpiresAt.Format(timeLayout),
	})

	s.hub.Publish(ctx, notify.Event{
		Name:       notify.QRCodeExpired,
		EntityID:   token.Value,
		OccurredAt: now,
		Data: map[string]string{
			"player_id":     token.PlayerID,
			"tournament_id": token.TournamentID,
			"token_value":   token.Value,
		},
	})

	return results.SuccessResult[*checkindomain.Token, error](token), nil
}

// Sweep expires every Pending token whose window has lapsed, then purges
// finished tokens older than the retention window. It returns how many
// tokens it expired.
func (s *CheckInService) Sweep(ctx context.Context) (int, error) {
	now := s.clock.Now()

	values, err := s.store.ListPendingExpiredBefore(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list lapsed tokens: %w", err)
	}

	expired := 0
	for _, value := range values {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
		result, err := s.Expire(ctx, value)
		if err != nil {
			return expired, err
		}
		// Lost races with Redeem or Refresh surface as failures and are skipped.
		if result.IsSuccess() {
			expired++
		}
	}

	purged, err := s.store.Purge(ctx, now.Add(-s.opts.Retention))
	if err != nil {
		return expired, fmt.Errorf("failed to purge tokens: %w", err)
	}

	if expired > 0 || purged > 0 {
		s.logger.InfoContext(ctx, "Token sweep finished",
			attr.ExtractCorrelationID(ctx),
			attr.Int("expired", expired),
			attr.Int("purged", purged),
		)
	}
	return expired, nil
}
