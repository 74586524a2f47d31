package authservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	authdomain "github.com/Black-And-White-Club/tourney-desk/app/modules/auth/domain"
	authjwt "github.com/Black-And-White-Club/tourney-desk/app/modules/auth/infrastructure/jwt"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/attr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrMissingActor is returned when a token is requested without an actor id.
var ErrMissingActor = errors.New("actor id is required")

type service struct {
	provider   authjwt.Provider
	defaultTTL time.Duration
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewService creates a new auth service.
func NewService(provider authjwt.Provider, defaultTTL time.Duration, logger *slog.Logger, tracer trace.Tracer) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		provider:   provider,
		defaultTTL: defaultTTL,
		logger:     logger,
		tracer:     tracer,
	}
}

func (s *service) MintToken(ctx context.Context, actorID string, role authdomain.Role, ttl time.Duration) (string, error) {
	ctx, span := s.start(ctx, "MintToken")
	defer span.End()
	span.SetAttributes(attribute.String("role", role.String()))

	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		span.SetStatus(codes.Error, ErrMissingActor.Error())
		return "", ErrMissingActor
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	token, err := s.provider.GenerateToken(&authdomain.Claims{ActorID: actorID, Role: role}, ttl)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to mint token: %w", err)
	}

	s.logger.InfoContext(ctx, "Minted desk token",
		attr.ExtractCorrelationID(ctx),
		attr.String("actor_id", actorID),
		attr.String("role", role.String()),
		attr.Any("ttl", ttl),
	)
	return token, nil
}

func (s *service) Authenticate(ctx context.Context, token string) (*authdomain.Claims, error) {
	ctx, span := s.start(ctx, "Authenticate")
	defer span.End()

	claims, err := s.provider.ValidateToken(token)
	if err != nil {
		s.logger.WarnContext(ctx, "Rejected desk token",
			attr.ExtractCorrelationID(ctx),
			attr.Error(err),
		)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return claims, nil
}

func (s *service) start(ctx context.Context, name string) (context.Context, trace.Span) {
	if s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, "AuthService."+name)
}
