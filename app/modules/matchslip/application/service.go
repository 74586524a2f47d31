package matchslipservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	matchslipdomain "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/domain"
	matchslipparsers "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/infrastructure/parsers"
	matchslippolicy "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/infrastructure/policy"
	matchslipdb "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/infrastructure/repositories"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/attr"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/audit"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/clock"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/metrics"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/notify"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/results"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "MatchSlipService"

// Options tunes slip creation.
type Options struct {
	QRTTL time.Duration
}

// MatchSlipService implements the Service interface.
type MatchSlipService struct {
	registry matchslipdb.Registry
	audit    audit.Log
	hub      *notify.Hub
	policy   matchslippolicy.DevicePolicy
	advisor  matchslippolicy.Advisor
	names    PlayerNames
	parsers  *matchslipparsers.Factory
	clock    clock.Clock
	opts     Options
	logger   *slog.Logger
	metrics  metrics.OperationMetrics
	tracer   trace.Tracer

	newID func() string
}

// NewMatchSlipService creates a new MatchSlipService. A nil policy treats
// every venue as allowing phones; a nil advisor offers no alternatives.
func NewMatchSlipService(
	registry matchslipdb.Registry,
	auditLog audit.Log,
	hub *notify.Hub,
	policy matchslippolicy.DevicePolicy,
	advisor matchslippolicy.Advisor,
	names PlayerNames,
	c clock.Clock,
	opts Options,
	logger *slog.Logger,
	m metrics.OperationMetrics,
	tracer trace.Tracer,
) *MatchSlipService {
	if logger == nil {
		logger = slog.Default()
	}
	if c == nil {
		c = clock.Real{}
	}
	if hub == nil {
		hub = notify.NewHub(logger)
	}
	if opts.QRTTL <= 0 {
		opts.QRTTL = matchslipdomain.DefaultQRTTL
	}
	return &MatchSlipService{
		registry: registry,
		audit:    auditLog,
		hub:      hub,
		policy:   policy,
		advisor:  advisor,
		names:    names,
		parsers:  matchslipparsers.NewFactory(),
		clock:    c,
		opts:     opts,
		logger:   logger,
		metrics:  m,
		tracer:   tracer,
		newID:    uuid.NewString,
	}
}

func (s *MatchSlipService) Subscribe(eventName string, handler notify.Handler) string {
	return s.hub.Subscribe(eventName, handler)
}

func (s *MatchSlipService) Unsubscribe(id string) bool {
	return s.hub.Unsubscribe(id)
}

// registryFailure turns registry errors into domain failures where one applies.
func registryFailure[S any](err error) (results.OperationResult[S, error], error) {
	switch {
	case errors.Is(err, matchslipdb.ErrNotFound):
		return results.FailureResult[S, error](matchslipdomain.ErrSlipNotFound), nil
	case matchslipdomain.ReasonFor(err) != "":
		return results.FailureResult[S, error](err), nil
	}
	return results.OperationResult[S, error]{}, err
}

// mutation changes one slip and returns the details of its audit entry.
type mutation func(slip *matchslipdomain.Slip) (map[string]string, error)

// apply runs m under the slip's lock. On success exactly one audit entry is
// appended to the slip's own trail in the same write, then mirrored to the
// shared log.
func (s *MatchSlipService) apply(ctx context.Context, slipID, action, actor string, now time.Time, m mutation) (*matchslipdomain.Slip, error) {
	var entry audit.Entry
	slip, err := s.registry.Update(ctx, slipID, func(sl *matchslipdomain.Slip) error {
		details, err := m(sl)
		if err != nil {
			return err
		}
		if details == nil {
			details = map[string]string{}
		}
		details["status"] = string(sl.Status)
		entry = audit.Entry{
			ID:         s.newID(),
			EntityID:   sl.ID,
			EntityKind: audit.KindSlip,
			Action:     action,
			ActorID:    actor,
			Timestamp:  now,
			Details:    details,
		}
		sl.AppendAudit(entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.mirrorAudit(ctx, entry)
	return slip, nil
}

// mirrorAudit copies a slip trail entry into the shared log. The slip already
// holds the entry, so a failing log is reported but not returned.
func (s *MatchSlipService) mirrorAudit(ctx context.Context, entry audit.Entry) {
	if s.audit == nil {
		return
	}
	if _, err := s.audit.Append(ctx, entry.Clone()); err != nil {
		s.logger.ErrorContext(ctx, "Failed to append audit entry",
			attr.ExtractCorrelationID(ctx),
			attr.String("slip_id", entry.EntityID),
			attr.String("action", entry.Action),
			attr.Error(err),
		)
	}
}

// withName fills in a missing display name, falling back to the id.
func (s *MatchSlipService) withName(ctx context.Context, p matchslipdomain.Participant) matchslipdomain.Participant {
	if p.Name != "" {
		return p
	}
	p.Name = p.ID
	if s.names == nil {
		return p
	}
	name, err := s.names.ResolvePlayerName(ctx, p.ID)
	if err == nil && name != "" {
		p.Name = name
	}
	return p
}

// -----------------------------------------------------------------------------
// Generic Helpers (Defined as functions because methods cannot have type params)
// -----------------------------------------------------------------------------

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any](
	s *MatchSlipService,
	ctx context.Context,
	operationName string,
	slipID string,
	op operationFunc[S, error],
) (result results.OperationResult[S, error], err error) {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("slip_id", slipID),
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
		attr.String("slip_id", slipID),
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("slip_id", slipID),
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
			attr.String("slip_id", slipID),
			attr.Error(wrappedErr),
		)
		if s.metrics != nil {
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		}
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		reason := matchslipdomain.ReasonFor(*result.Failure)
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("slip_id", slipID),
			attr.String("reason", reason),
			attr.Error(*result.Failure),
		)
		if s.metrics != nil {
			s.metrics.RecordDomainFailure(ctx, operationName, serviceName, reason)
		}
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("slip_id", slipID),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}

	return result, nil
}
