package matchslipservice

import (
	"context"
	"strconv"

	matchslipdomain "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/domain"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/notify"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/results"
)

// SubmitSignature stores a player's attestation. The second slot filled
// completes the slip.
func (s *MatchSlipService) SubmitSignature(ctx context.Context, slipID string, req SignatureRequest) (results.OperationResult[*matchslipdomain.Signature, error], error) {
	return withTelemetry(s, ctx, "SubmitSignature", slipID, func(ctx context.Context) (results.OperationResult[*matchslipdomain.Signature, error], error) {
		return s.submitSignatureLogic(ctx, slipID, req)
	})
}

func (s *MatchSlipService) submitSignatureLogic(ctx context.Context, slipID string, req SignatureRequest) (results.OperationResult[*matchslipdomain.Signature, error], error) {
	now := s.clock.Now()
	sig := matchslipdomain.Signature{
		PlayerID:   req.PlayerID,
		Type:       req.Type,
		Data:       req.Data,
		Timestamp:  now,
		DeviceInfo: req.DeviceInfo,
	}

	var completed bool
	slip, err := s.apply(ctx, slipID, "signed", req.PlayerID, now, func(sl *matchslipdomain.Slip) (map[string]string, error) {
		done, err := sl.Sign(sig, now)
		if err != nil {
			return nil, err
		}
		completed = done
		return map[string]string{
			"player_id":      sig.PlayerID,
			"signature_type": string(sig.Type),
			"completed":      strconv.FormatBool(done),
		}, nil
	})
	if err != nil {
		return registryFailure[*matchslipdomain.Signature](err)
	}

	if completed {
		s.publishCompleted(ctx, slip, "signatures")
	}

	return results.SuccessResult[*matchslipdomain.Signature, error](&sig), nil
}

// SubmitPaperSlip records a transcribed paper slip under a phone ban. A judge
// signature completes the slip on its own.
func (s *MatchSlipService) SubmitPaperSlip(ctx context.Context, slipID string, req PaperSlipRequest) (results.OperationResult[*matchslipdomain.Slip, error], error) {
	return withTelemetry(s, ctx, "SubmitPaperSlip", slipID, func(ctx context.Context) (results.OperationResult[*matchslipdomain.Slip, error], error) {
		return s.submitPaperLogic(ctx, slipID, req)
	})
}

func (s *MatchSlipService) submitPaperLogic(ctx context.Context, slipID string, req PaperSlipRequest) (results.OperationResult[*matchslipdomain.Slip, error], error) {
	now := s.clock.Now()

	var completed bool
	slip, err := s.apply(ctx, slipID, "paper_slip_submitted", req.SubmittedBy, now, func(sl *matchslipdomain.Slip) (map[string]string, error) {
		done, err := sl.SubmitPaper(req.SubmittedBy, req.PaperSlipNumber, req.JudgeSignature, now)
		if err != nil {
			return nil, err
		}
		completed = done
		details := map[string]string{
			"paper_slip_number": req.PaperSlipNumber,
			"completed":         strconv.FormatBool(done),
		}
		if req.JudgeSignature != "" {
			details["judge_signature"] = req.JudgeSignature
		}
		return details, nil
	})
	if err != nil {
		return registryFailure[*matchslipdomain.Slip](err)
	}

	if completed {
		via := "paper_slip"
		if req.JudgeSignature != "" {
			via = "judge_attestation"
		}
		s.publishCompleted(ctx, slip, via)
	}

	return results.SuccessResult[*matchslipdomain.Slip, error](slip), nil
}

func (s *MatchSlipService) publishCompleted(ctx context.Context, slip *matchslipdomain.Slip, via string) {
	s.hub.Publish(ctx, notify.Event{
		Name:       notify.SlipCompleted,
		EntityID:   slip.ID,
		OccurredAt: s.clock.Now(),
		Data: map[string]string{
			"tournament_id": slip.TournamentID,
			"round":         strconv.Itoa(slip.Round),
			"table":         strconv.Itoa(slip.Table),
			"winner_id":     slip.WinnerID,
			"final_score":   slip.FinalScore,
			"completed_via": via,
		},
	})
}

// GetAvailableSignatureMethods lists the signature types the slip accepts.
func (s *MatchSlipService) GetAvailableSignatureMethods(ctx context.Context, slipID string) (results.OperationResult[[]matchslipdomain.SignatureType, error], error) {
	return withTelemetry(s, ctx, "GetAvailableSignatureMethods", slipID, func(ctx context.Context) (results.OperationResult[[]matchslipdomain.SignatureType, error], error) {
		slip, err := s.registry.Get(ctx, slipID)
		if err != nil {
			return registryFailure[[]matchslipdomain.SignatureType](err)
		}
		return results.SuccessResult[[]matchslipdomain.SignatureType, error](matchslipdomain.AvailableMethods(slip.PhoneBanned)), nil
	})
}
