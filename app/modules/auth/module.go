package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	authservice "github.com/Black-And-White-Club/tourney-desk/app/modules/auth/application"
	authdomain "github.com/Black-And-White-Club/tourney-desk/app/modules/auth/domain"
	authhandlers "github.com/Black-And-White-Club/tourney-desk/app/modules/auth/infrastructure/handlers"
	authjwt "github.com/Black-And-White-Club/tourney-desk/app/modules/auth/infrastructure/jwt"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/httpjson"
	"github.com/Black-And-White-Club/tourney-desk/config"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// Module wires desk authentication.
type Module struct {
	provider authjwt.Provider
	service  authservice.Service
	limiter  *authhandlers.IPRateLimiter
	logger   *slog.Logger
}

// NewModule creates the auth module. When no JWT secret is configured the
// role gates are disabled, which is only accepted in development.
func NewModule(ctx context.Context, cfg *config.Config, logger *slog.Logger, tracer trace.Tracer, httpRouter chi.Router) *Module {
	logger.InfoContext(ctx, "Initializing auth module")

	m := &Module{
		logger:  logger,
		limiter: authhandlers.NewIPRateLimiter(rate.Limit(cfg.HTTP.RedeemRatePerSecond), cfg.HTTP.RedeemBurst),
	}

	if cfg.JWT.Secret != "" {
		m.provider = authjwt.NewProvider(cfg.JWT.Secret, cfg.JWT.Issuer)
		m.service = authservice.NewService(m.provider, cfg.JWT.DefaultTTL, logger, tracer)
	} else {
		logger.WarnContext(ctx, "JWT secret not configured, role checks are disabled")
	}

	if httpRouter != nil && m.service != nil {
		httpRouter.With(m.Require(authdomain.RoleAdmin)).Post("/api/auth/tokens", m.handleMint)
	}

	return m
}

// Require gates a route on the caller's role.
func (m *Module) Require(role authdomain.Role) func(http.Handler) http.Handler {
	return authhandlers.RequireRole(m.provider, role)
}

// RateLimit throttles a route per client address.
func (m *Module) RateLimit() func(http.Handler) http.Handler {
	return authhandlers.RateLimitMiddleware(m.limiter)
}

// Service returns the auth service, nil when auth is disabled.
func (m *Module) Service() authservice.Service {
	return m.service
}

type mintRequest struct {
	ActorID string `json:"actor_id"`
	Role    string `json:"role"`
	TTL     string `json:"ttl"`
}

func (m *Module) handleMint(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	var ttl time.Duration
	if req.TTL != "" {
		d, err := time.ParseDuration(req.TTL)
		if err != nil {
			httpjson.WriteError(w, http.StatusBadRequest, "invalid_input", "ttl must be a duration")
			return
		}
		ttl = d
	}

	token, err := m.service.MintToken(r.Context(), req.ActorID, authdomain.Role(req.Role), ttl)
	if err != nil {
		httpjson.WriteError(w, http.StatusUnprocessableEntity, "invalid_input", err.Error())
		return
	}
	httpjson.Write(w, http.StatusCreated, map[string]string{"token": token})
}
