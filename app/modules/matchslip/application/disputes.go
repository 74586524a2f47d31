package matchslipservice

import (
	"context"
	"strings"

	matchslipdomain "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/domain"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/notify"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/results"
)

// RaiseDispute flags the slip for a judge, whatever state it was in short of
// a resolved dispute.
func (s *MatchSlipService) RaiseDispute(ctx context.Context, slipID string, req DisputeRequest) (results.OperationResult[*matchslipdomain.Dispute, error], error) {
	return withTelemetry(s, ctx, "RaiseDispute", slipID, func(ctx context.Context) (results.OperationResult[*matchslipdomain.Dispute, error], error) {
		return s.raiseDisputeLogic(ctx, slipID, req)
	})
}

func (s *MatchSlipService) raiseDisputeLogic(ctx context.Context, slipID string, req DisputeRequest) (results.OperationResult[*matchslipdomain.Dispute, error], error) {
	now := s.clock.Now()
	dispute := matchslipdomain.Dispute{
		ID:          s.newID(),
		RaisedBy:    req.RaisedBy,
		Reason:      req.Reason,
		Description: req.Description,
		Evidence:    append([]string(nil), req.Evidence...),
		CreatedAt:   now,
	}

	var previous matchslipdomain.SlipStatus
	slip, err := s.apply(ctx, slipID, "dispute_raised", req.RaisedBy, now, func(sl *matchslipdomain.Slip) (map[string]string, error) {
		previous = sl.Status
		if err := sl.RaiseDispute(dispute); err != nil {
			return nil, err
		}
		return map[string]string{
			"dispute_id":      dispute.ID,
			"reason":          dispute.Reason,
			"previous_status": string(previous),
		}, nil
	})
	if err != nil {
		return registryFailure[*matchslipdomain.Dispute](err)
	}

	s.hub.Publish(ctx, notify.Event{
		Name:       notify.DisputeRaised,
		EntityID:   slip.ID,
		OccurredAt: now,
		Data: map[string]string{
			"tournament_id":   slip.TournamentID,
			"dispute_id":      slip.Dispute.ID,
			"raised_by":       slip.Dispute.RaisedBy,
			"reason":          slip.Dispute.Reason,
			"previous_status": string(previous),
		},
	})

	return results.SuccessResult[*matchslipdomain.Dispute, error](slip.Dispute), nil
}

// ResolveDispute closes the open dispute. Callers are expected to have
// checked the judge role; the service only insists on a judge identity.
func (s *MatchSlipService) ResolveDispute(ctx context.Context, slipID, judgeID, resolution string) (results.OperationResult[*matchslipdomain.Dispute, error], error) {
	return withTelemetry(s, ctx, "ResolveDispute", slipID, func(ctx context.Context) (results.OperationResult[*matchslipdomain.Dispute, error], error) {
		return s.resolveDisputeLogic(ctx, slipID, judgeID, resolution)
	})
}

func (s *MatchSlipService) resolveDisputeLogic(ctx context.Context, slipID, judgeID, resolution string) (results.OperationResult[*matchslipdomain.Dispute, error], error) {
	if strings.TrimSpace(judgeID) == "" {
		return results.FailureResult[*matchslipdomain.Dispute, error](matchslipdomain.ErrJudgeRequired), nil
	}
	now := s.clock.Now()

	slip, err := s.apply(ctx, slipID, "dispute_resolved", judgeID, now, func(sl *matchslipdomain.Slip) (map[string]string, error) {
		d, err := sl.ResolveDispute(judgeID, resolution, now)
		if err != nil {
			return nil, err
		}
		return map[string]string{
			"dispute_id": d.ID,
			"resolution": resolution,
		}, nil
	})
	if err != nil {
		return registryFailure[*matchslipdomain.Dispute](err)
	}

	s.hub.Publish(ctx, notify.Event{
		Name:       notify.DisputeResolved,
		EntityID:   slip.ID,
		OccurredAt: now,
		Data: map[string]string{
			"tournament_id": slip.TournamentID,
			"dispute_id":    slip.Dispute.ID,
			"judge_id":      judgeID,
			"resolution":    resolution,
		},
	})

	return results.SuccessResult[*matchslipdomain.Dispute, error](slip.Dispute), nil
}
