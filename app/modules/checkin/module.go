package checkin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	checkinservice "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/application"
	checkinhandlers "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/infrastructure/handlers"
	checkinqueue "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/infrastructure/queue"
	checkindb "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/infrastructure/repositories"
	checkinrouter "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/infrastructure/router"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/audit"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/clock"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/metrics"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/notify"
	"github.com/Black-And-White-Club/tourney-desk/config"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
)

// Dependencies are the collaborators the check-in module is built from.
type Dependencies struct {
	Config     *config.Config
	Logger     *slog.Logger
	Tracer     trace.Tracer
	Metrics    metrics.OperationMetrics
	Store      checkindb.Store
	Audit      audit.Log
	Hub        *notify.Hub
	Clock      clock.Clock
	Router     *message.Router
	Subscriber message.Subscriber
	Publisher  message.Publisher
	HTTP       chi.Router
	Gates      checkinrouter.Gates
}

// Module represents the check-in module.
type Module struct {
	Service    checkinservice.Service
	router     *checkinrouter.CheckInRouter
	sweeper    checkinqueue.Runner
	logger     *slog.Logger
	cancelFunc context.CancelFunc
}

// NewCheckInModule creates and initializes the check-in module.
func NewCheckInModule(ctx context.Context, deps Dependencies) (*Module, error) {
	logger := deps.Logger
	cfg := deps.Config

	logger.InfoContext(ctx, "checkin.NewCheckInModule initializing",
		slog.String("storage_backend", cfg.Storage.Backend),
	)

	service := checkinservice.NewCheckInService(
		deps.Store,
		deps.Audit,
		deps.Hub,
		checkinservice.StaticDirectory{
			Players:     cfg.Directory.Players,
			Tournaments: cfg.Directory.Tournaments,
		},
		deps.Clock,
		checkinservice.Options{
			TokenTTL:  cfg.CheckIn.TokenTTL,
			Retention: cfg.CheckIn.Retention,
		},
		logger,
		deps.Metrics,
		deps.Tracer,
	)

	handlers := checkinhandlers.NewCheckInHandlers(service, logger, deps.Tracer)

	m := &Module{
		Service: service,
		logger:  logger,
	}

	if deps.Router != nil {
		m.router = checkinrouter.NewCheckInRouter(logger, deps.Router, deps.Subscriber, deps.Publisher, deps.Tracer)
		if err := m.router.Configure(ctx, handlers); err != nil {
			return nil, fmt.Errorf("failed to configure check-in router: %w", err)
		}
	}

	if deps.HTTP != nil {
		checkinrouter.MountHTTP(deps.HTTP, handlers, deps.Gates)
	}

	if cfg.Storage.Backend == config.BackendPostgres {
		queueService, err := checkinqueue.NewService(ctx, logger, cfg.Storage.Postgres.DSN, cfg.CheckIn.SweepInterval, service, deps.Metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create sweep queue: %w", err)
		}
		m.sweeper = queueService
	} else {
		m.sweeper = checkinqueue.NewTickerRunner(logger, cfg.CheckIn.SweepInterval, service)
	}

	return m, nil
}

// Run starts the expiry sweeper and blocks until ctx is done.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting check-in module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if err := m.sweeper.Start(ctx); err != nil {
		m.logger.ErrorContext(ctx, "Failed to start token sweeper", "error", err)
		return
	}

	<-ctx.Done()
	m.logger.InfoContext(ctx, "Check-in module goroutine stopped")
}

// Close stops the sweeper.
func (m *Module) Close() error {
	m.logger.Info("Stopping check-in module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	if m.sweeper != nil {
		if err := m.sweeper.Stop(context.Background()); err != nil {
			m.logger.Error("Error stopping token sweeper", "error", err)
			return fmt.Errorf("error stopping sweeper: %w", err)
		}
	}

	m.logger.Info("Check-in module stopped")
	return nil
}
