package matchslip

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	matchslipservice "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/application"
	matchsliphandlers "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/infrastructure/handlers"
	matchslippolicy "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/infrastructure/policy"
	matchslipdb "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/infrastructure/repositories"
	matchsliprouter "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/infrastructure/router"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/audit"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/clock"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/metrics"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/notify"
	"github.com/Black-And-White-Club/tourney-desk/config"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
)

// Dependencies are the collaborators the match-slip module is built from.
type Dependencies struct {
	Config   *config.Config
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Metrics  metrics.OperationMetrics
	Registry matchslipdb.Registry
	Audit    audit.Log
	Hub      *notify.Hub
	Clock    clock.Clock
	HTTP     chi.Router
	Gates    matchsliprouter.Gates
}

// Module represents the match-slip module.
type Module struct {
	Service    matchslipservice.Service
	logger     *slog.Logger
	cancelFunc context.CancelFunc
}

type directory map[string]string

func (d directory) ResolvePlayerName(_ context.Context, playerID string) (string, error) {
	if name, ok := d[playerID]; ok {
		return name, nil
	}
	return "", errors.New("player not in directory")
}

type venuePolicy interface {
	matchslippolicy.DevicePolicy
	matchslippolicy.Advisor
}

// newPolicy uses the remote venue service when configured, falling back to
// the static ban list.
func newPolicy(cfg config.MatchSlipConfig, logger *slog.Logger) venuePolicy {
	static := matchslippolicy.NewStaticPolicy(cfg.Policy.PhoneBannedTournaments)
	if cfg.Policy.URL == "" {
		return static
	}
	return matchslippolicy.NewHTTPPolicy(cfg.Policy.URL, cfg.Policy.Timeout, static, logger)
}

// NewMatchSlipModule creates and initializes the match-slip module.
func NewMatchSlipModule(ctx context.Context, deps Dependencies) (*Module, error) {
	logger := deps.Logger
	cfg := deps.Config

	if deps.Registry == nil {
		return nil, errors.New("match slip registry is required")
	}

	logger.InfoContext(ctx, "matchslip.NewMatchSlipModule initializing",
		slog.String("policy_url", cfg.MatchSlip.Policy.URL),
		slog.Int("phone_banned_tournaments", len(cfg.MatchSlip.Policy.PhoneBannedTournaments)),
	)

	policy := newPolicy(cfg.MatchSlip, logger)

	service := matchslipservice.NewMatchSlipService(
		deps.Registry,
		deps.Audit,
		deps.Hub,
		policy,
		policy,
		directory(cfg.Directory.Players),
		deps.Clock,
		matchslipservice.Options{QRTTL: cfg.MatchSlip.QRTTL},
		logger,
		deps.Metrics,
		deps.Tracer,
	)

	if deps.HTTP != nil {
		handlers := matchsliphandlers.NewMatchSlipHandlers(service, logger, deps.Tracer)
		matchsliprouter.MountHTTP(deps.HTTP, handlers, deps.Gates)
	}

	return &Module{
		Service: service,
		logger:  logger,
	}, nil
}

// Run blocks until ctx is done. Slips have no background work.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting match slip module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	m.logger.InfoContext(ctx, "Match slip module goroutine stopped")
}

func (m *Module) Close() error {
	m.logger.Info("Stopping match slip module")
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	return nil
}
