package checkinservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	checkindomain "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/domain"
	checkindb "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/infrastructure/repositories"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/attr"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/audit"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/clock"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/metrics"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/notify"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/results"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "CheckInService"

// issueAttempts bounds retries when a generated value collides.
const issueAttempts = 3

// Options tunes token timing.
type Options struct {
	TokenTTL  time.Duration
	Retention time.Duration
}

// CheckInService implements the Service interface.
type CheckInService struct {
	store   checkindb.Store
	audit   audit.Log
	hub     *notify.Hub
	names   NameResolver
	clock   clock.Clock
	opts    Options
	logger  *slog.Logger
	metrics metrics.OperationMetrics
	tracer  trace.Tracer

	newValue func() (string, error)
}

// NewCheckInService creates a new CheckInService.
func NewCheckInService(
	store checkindb.Store,
	auditLog audit.Log,
	hub *notify.Hub,
	names NameResolver,
	c clock.Clock,
	opts Options,
	logger *slog.Logger,
	m metrics.OperationMetrics,
	tracer trace.Tracer,
) *CheckInService {
	if logger == nil {
		logger = slog.Default()
	}
	if c == nil {
		c = clock.Real{}
	}
	if hub == nil {
		hub = notify.NewHub(logger)
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = checkindomain.DefaultTTL
	}
	if opts.Retention <= 0 {
		opts.Retention = 10 * time.Minute
	}
	return &CheckInService{
		store:    store,
		audit:    auditLog,
		hub:      hub,
		names:    names,
		clock:    c,
		opts:     opts,
		logger:   logger,
		metrics:  m,
		tracer:   tracer,
		newValue: checkindomain.NewTokenValue,
	}
}

func (s *CheckInService) Subscribe(eventName string, handler notify.Handler) string {
	return s.hub.Subscribe(eventName, handler)
}

func (s *CheckInService) Unsubscribe(id string) bool {
	return s.hub.Unsubscribe(id)
}

// storeFailure turns store errors into domain failures where one applies.
func storeFailure[S any](err error) (results.OperationResult[S, error], error) {
	switch {
	case errors.Is(err, checkindb.ErrNotFound):
		return results.FailureResult[S, error](checkindomain.ErrTokenNotFound), nil
	case checkindomain.ReasonFor(err) != "":
		return results.FailureResult[S, error](err), nil
	}
	return results.OperationResult[S, error]{}, err
}

func (s *CheckInService) appendAudit(ctx context.Context, value, action, actor string, details map[string]string) error {
	_, err := s.audit.Append(ctx, audit.Entry{
		EntityID:   value,
		EntityKind: audit.KindToken,
		Action:     action,
		ActorID:    actor,
		Timestamp:  s.clock.Now(),
		Details:    details,
	})
	return err
}

// recordAudit appends one entry for a token. The state change it describes has
// already happened, so a failing audit log is reported but not returned.
func (s *CheckInService) recordAudit(ctx context.Context, value, action, actor string, details map[string]string) {
	if s.audit == nil {
		return
	}
	if err := s.appendAudit(ctx, value, action, actor, details); err != nil {
		s.logger.ErrorContext(ctx, "Failed to append audit entry",
			attr.ExtractCorrelationID(ctx),
			attr.Fingerprint("token", value),
			attr.String("action", action),
			attr.Error(err),
		)
	}
}

// -----------------------------------------------------------------------------
// Generic Helpers (Defined as functions because methods cannot have type params)
// -----------------------------------------------------------------------------

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any](
	s *CheckInService,
	ctx context.Context,
	operationName string,
	token string,
	op operationFunc[S, error],
) (result results.OperationResult[S, error], err error) {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("token", shorten(token)),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	if s.metrics != nil {
		s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)
	}

	startTime := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
		}
	}()

	s.logger.InfoContext(ctx, "Operation triggered",
		attr.ExtractCorrelationID(ctx),
		attr.String("operation", operationName),
		attr.Fingerprint("token", token),
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.Fingerprint("token", token),
				attr.Error(err),
			)
			if s.metrics != nil {
				s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			}
			span.RecordError(err)
			result = results.OperationResult[S, error]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.Fingerprint("token", token),
			attr.Error(wrappedErr),
		)
		if s.metrics != nil {
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		}
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		reason := checkindomain.ReasonFor(*result.Failure)
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.Fingerprint("token", token),
			attr.String("reason", reason),
		)
		if s.metrics != nil {
			s.metrics.RecordDomainFailure(ctx, operationName, serviceName, reason)
		}
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.Fingerprint("token", token),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}

	return result, nil
}

func shorten(v string) string {
	if len(v) > 8 {
		return v[:8]
	}
	return v
}
