package checkinservice

import (
	"context"
	"fmt"
	"time"

	checkindomain "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/domain"
	checkindb "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/infrastructure/repositories"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/attr"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/notify"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/results"
)

const timeLayout = time.RFC3339Nano

// Redeem checks the player in. The status flip, the history record and the
// audit entry are one store change, so of any number of concurrent calls for
// one token exactly one succeeds and a failed write leaves the token pending.
func (s *CheckInService) Redeem(ctx context.Context, value, scannedBy string) (results.OperationResult[*checkindomain.CheckInRecord, error], error) {
	return withTelemetry(s, ctx, "Redeem", value, func(ctx context.Context) (results.OperationResult[*checkindomain.CheckInRecord, error], error) {
		return s.redeemLogic(ctx, value, scannedBy)
	})
}

func (s *CheckInService) redeemLogic(ctx context.Context, value, scannedBy string) (results.OperationResult[*checkindomain.CheckInRecord, error], error) {
	now := s.clock.Now()

	// Names are resolved before the token is locked.
	current, err := s.store.Get(ctx, value)
	if err != nil {
		return storeFailure[*checkindomain.CheckInRecord](err)
	}
	playerName := s.playerName(ctx, current.PlayerID)
	tournamentName := s.tournamentName(ctx, current.TournamentID)

	var record *checkindomain.CheckInRecord
	redeem := func(t *checkindomain.Token) (*checkindomain.CheckInRecord, error) {
		if err := t.Redeem(now, scannedBy); err != nil {
			return nil, err
		}
		record = &checkindomain.CheckInRecord{
			PlayerID:       t.PlayerID,
			PlayerName:     playerName,
			TournamentID:   t.TournamentID,
			TournamentName: tournamentName,
			Division:       t.Division,
			CheckInTime:    now,
			TokenValue:     t.Value,
			ScannedBy:      scannedBy,
		}
		return record, nil
	}

	var journal checkindb.Journal
	if s.audit != nil {
		journal = func(ctx context.Context, t *checkindomain.Token) error {
			return s.appendAudit(ctx, t.Value, "redeemed", scannedBy, map[string]string{
				"player_id":     t.PlayerID,
				"tournament_id": t.TournamentID,
				"check_in_time": now.Format(timeLayout),
			})
		}
	}

	token, err := s.store.Redeem(ctx, value, redeem, journal)
	if err != nil {
		return storeFailure[*checkindomain.CheckInRecord](err)
	}

	s.hub.Publish(ctx, notify.Event{
		Name:       notify.CheckInProcessed,
		EntityID:   token.Value,
		OccurredAt: now,
		Data: map[string]string{
			"player_id":     token.PlayerID,
			"tournament_id": token.TournamentID,
			"division":      token.Division,
			"check_in_time": now.Format(timeLayout),
			"token_value":   token.Value,
		},
	})

	return results.SuccessResult[*checkindomain.CheckInRecord, error](record), nil
}

func (s *CheckInService) playerName(ctx context.Context, playerID string) string {
	if s.names == nil {
		return playerID
	}
	name, err := s.names.ResolvePlayerName(ctx, playerID)
	return s.fallbackName(ctx, "player", playerID, name, err)
}

func (s *CheckInService) tournamentName(ctx context.Context, tournamentID string) string {
	if s.names == nil {
		return tournamentID
	}
	name, err := s.names.ResolveTournamentName(ctx, tournamentID)
	return s.fallbackName(ctx, "tournament", tournamentID, name, err)
}

func (s *CheckInService) fallbackName(ctx context.Context, kind, id, name string, err error) string {
	if err != nil {
		s.logger.WarnContext(ctx, fmt.Sprintf("Could not resolve %s name", kind),
			attr.ExtractCorrelationID(ctx),
			attr.String(kind+"_id", id),
			attr.Error(err),
		)
		return id
	}
	if name == "" {
		return id
	}
	return name
}
