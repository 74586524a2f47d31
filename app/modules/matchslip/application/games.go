package matchslipservice

import (
	"context"
	"strconv"
	"time"

	matchslipdomain "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/domain"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/results"
)

// SubmitGameResult records one game and recomputes the standing. A slip that
// is already final rejects it.
func (s *MatchSlipService) SubmitGameResult(ctx context.Context, slipID string, req GameResultRequest) (results.OperationResult[*matchslipdomain.GameResult, error], error) {
	return withTelemetry(s, ctx, "SubmitGameResult", slipID, func(ctx context.Context) (results.OperationResult[*matchslipdomain.GameResult, error], error) {
		return s.submitGameLogic(ctx, slipID, req)
	})
}

func (s *MatchSlipService) submitGameLogic(ctx context.Context, slipID string, req GameResultRequest) (results.OperationResult[*matchslipdomain.GameResult, error], error) {
	now := s.clock.Now()
	game := matchslipdomain.GameResult{
		GameNumber:  req.GameNumber,
		WinnerID:    req.WinnerID,
		Score:       req.Score,
		Duration:    time.Duration(req.Duration),
		SubmittedBy: req.SubmittedBy,
		SubmittedAt: now,
		Notes:       req.Notes,
	}

	_, err := s.apply(ctx, slipID, "game_recorded", req.SubmittedBy, now, func(sl *matchslipdomain.Slip) (map[string]string, error) {
		if err := sl.RecordGame(game); err != nil {
			return nil, err
		}
		return map[string]string{
			"game_number": strconv.Itoa(game.GameNumber),
			"winner_id":   game.WinnerID,
			"score":       game.Score,
			"final_score": sl.FinalScore,
		}, nil
	})
	if err != nil {
		return registryFailure[*matchslipdomain.GameResult](err)
	}

	return results.SuccessResult[*matchslipdomain.GameResult, error](&game), nil
}
