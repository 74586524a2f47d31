package checkinhandlers

import (
	"context"
	"log/slog"

	checkinservice "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/application"
	checkindomain "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/domain"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/attr"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/handlerwrapper"
	"go.opentelemetry.io/otel/trace"
)

// CheckInHandlers implements Handlers and HTTPHandlers.
type CheckInHandlers struct {
	service checkinservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewCheckInHandlers creates a new CheckInHandlers instance.
func NewCheckInHandlers(service checkinservice.Service, logger *slog.Logger, tracer trace.Tracer) *CheckInHandlers {
	return &CheckInHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

var (
	_ Handlers     = (*CheckInHandlers)(nil)
	_ HTTPHandlers = (*CheckInHandlers)(nil)
)

// HandleRedeemRequested redeems a token scanned by a door device and replies
// with the outcome. Domain failures are replies, not handler errors.
func (h *CheckInHandlers) HandleRedeemRequested(ctx context.Context, payload *checkindomain.RedeemRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "CheckInHandlers.HandleRedeemRequested")
	defer span.End()

	h.logger.InfoContext(ctx, "Redeem request received",
		attr.ExtractCorrelationID(ctx),
		attr.Fingerprint("token", payload.TokenValue),
		attr.String("device_id", payload.DeviceID),
	)

	reply := &checkindomain.RedeemResultPayloadV1{DeviceID: payload.DeviceID}

	result, err := h.service.Redeem(ctx, payload.TokenValue, payload.ScannedBy)
	if err != nil {
		return nil, err
	}

	if result.IsFailure() {
		failure := *result.Failure
		reply.Reason = checkindomain.ReasonFor(failure)
		reply.Message = failure.Error()
	} else {
		reply.Success = true
		reply.Record = *result.Success
	}

	return []handlerwrapper.Result{{
		Topic:   handlerwrapper.ReplyTopic(ctx, checkindomain.RedeemResultV1),
		Payload: reply,
	}}, nil
}
