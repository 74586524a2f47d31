package matchslipservice

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	matchslipdomain "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/domain"
	matchslipdb "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/infrastructure/repositories"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/audit"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/results"
)

// CreateSlip opens a Pending slip. The phone-ban flag is read once here and
// frozen into the slip; the lookup happens before the slip exists, so no lock
// is held across it.
func (s *MatchSlipService) CreateSlip(ctx context.Context, req CreateSlipRequest) (results.OperationResult[*matchslipdomain.Slip, error], error) {
	return withTelemetry(s, ctx, "CreateSlip", "", func(ctx context.Context) (results.OperationResult[*matchslipdomain.Slip, error], error) {
		return s.createSlipLogic(ctx, req)
	})
}

func validateCreate(req CreateSlipRequest) error {
	switch {
	case strings.TrimSpace(req.TournamentID) == "":
		return fmt.Errorf("%w: tournament id is required", matchslipdomain.ErrInvalidInput)
	case req.Round < 1 || req.Table < 1:
		return fmt.Errorf("%w: round and table must be positive", matchslipdomain.ErrInvalidInput)
	case strings.TrimSpace(req.Player1.ID) == "" || strings.TrimSpace(req.Player2.ID) == "":
		return fmt.Errorf("%w: both players are required", matchslipdomain.ErrInvalidInput)
	case req.Player1.ID == req.Player2.ID:
		return fmt.Errorf("%w: players must differ", matchslipdomain.ErrInvalidInput)
	}
	return nil
}

func (s *MatchSlipService) createSlipLogic(ctx context.Context, req CreateSlipRequest) (results.OperationResult[*matchslipdomain.Slip, error], error) {
	if err := validateCreate(req); err != nil {
		return results.FailureResult[*matchslipdomain.Slip, error](err), nil
	}

	banned := false
	if s.policy != nil {
		var err error
		banned, err = s.policy.IsPhoneBanned(ctx, req.TournamentID)
		if err != nil {
			return results.OperationResult[*matchslipdomain.Slip, error]{}, fmt.Errorf("failed to read venue policy: %w", err)
		}
	}

	now := s.clock.Now()
	slip, err := matchslipdomain.NewSlip(
		s.newID(),
		req.TournamentID,
		req.Round,
		req.Table,
		s.withName(ctx, req.Player1),
		s.withName(ctx, req.Player2),
		banned,
		now,
		s.opts.QRTTL,
	)
	if err != nil {
		return results.OperationResult[*matchslipdomain.Slip, error]{}, err
	}

	entry := audit.Entry{
		ID:         s.newID(),
		EntityID:   slip.ID,
		EntityKind: audit.KindSlip,
		Action:     "created",
		Timestamp:  now,
		Details: map[string]string{
			"tournament_id": slip.TournamentID,
			"round":         strconv.Itoa(slip.Round),
			"table":         strconv.Itoa(slip.Table),
			"player1_id":    slip.Player1.ID,
			"player2_id":    slip.Player2.ID,
			"phone_banned":  strconv.FormatBool(slip.PhoneBanned),
			"status":        string(slip.Status),
		},
	}
	slip.AppendAudit(entry)

	if err := s.registry.Create(ctx, slip); err != nil {
		if errors.Is(err, matchslipdb.ErrDuplicateID) {
			return results.OperationResult[*matchslipdomain.Slip, error]{}, fmt.Errorf("generated slip id collided: %w", err)
		}
		return results.OperationResult[*matchslipdomain.Slip, error]{}, fmt.Errorf("failed to store slip: %w", err)
	}
	s.mirrorAudit(ctx, entry)

	return results.SuccessResult[*matchslipdomain.Slip, error](slip), nil
}
