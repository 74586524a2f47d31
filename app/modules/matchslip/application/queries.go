package matchslipservice

import (
	"context"
	"fmt"
	"strings"

	matchslipdomain "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/domain"
	matchslippolicy "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/infrastructure/policy"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/results"
)

func (s *MatchSlipService) GetSlip(ctx context.Context, slipID string) (results.OperationResult[*matchslipdomain.Slip, error], error) {
	return withTelemetry(s, ctx, "GetSlip", slipID, func(ctx context.Context) (results.OperationResult[*matchslipdomain.Slip, error], error) {
		slip, err := s.registry.Get(ctx, slipID)
		if err != nil {
			return registryFailure[*matchslipdomain.Slip](err)
		}
		return results.SuccessResult[*matchslipdomain.Slip, error](slip), nil
	})
}

// ListSlips returns a tournament's slips ordered by round, then table.
func (s *MatchSlipService) ListSlips(ctx context.Context, tournamentID string) (results.OperationResult[[]*matchslipdomain.Slip, error], error) {
	return withTelemetry(s, ctx, "ListSlips", "", func(ctx context.Context) (results.OperationResult[[]*matchslipdomain.Slip, error], error) {
		if strings.TrimSpace(tournamentID) == "" {
			return results.FailureResult[[]*matchslipdomain.Slip, error](
				fmt.Errorf("%w: tournament id is required", matchslipdomain.ErrInvalidInput)), nil
		}
		slips, err := s.registry.ListByTournament(ctx, tournamentID)
		if err != nil {
			return results.OperationResult[[]*matchslipdomain.Slip, error]{}, fmt.Errorf("failed to list slips: %w", err)
		}
		return results.SuccessResult[[]*matchslipdomain.Slip, error](slips), nil
	})
}

// GetAlternativeMethods describes fallback flows for presentation layers.
func (s *MatchSlipService) GetAlternativeMethods(ctx context.Context, tournamentID, operation string) ([]matchslippolicy.AlternativeMethod, error) {
	if s.advisor == nil {
		return []matchslippolicy.AlternativeMethod{}, nil
	}
	methods, err := s.advisor.GetAlternativeMethods(ctx, tournamentID, operation)
	if err != nil {
		return nil, fmt.Errorf("failed to list alternative methods: %w", err)
	}
	return methods, nil
}
