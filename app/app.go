// Package app is the composition root: it builds the shared infrastructure,
// wires the auth, check-in and match-slip modules onto it and runs them.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Black-And-White-Club/tourney-desk/app/eventbus"
	"github.com/Black-And-White-Club/tourney-desk/app/modules/auth"
	authdomain "github.com/Black-And-White-Club/tourney-desk/app/modules/auth/domain"
	authhandlers "github.com/Black-And-White-Club/tourney-desk/app/modules/auth/infrastructure/handlers"
	"github.com/Black-And-White-Club/tourney-desk/app/modules/checkin"
	checkindb "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/infrastructure/repositories"
	checkinrouter "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/infrastructure/router"
	"github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip"
	matchslipdb "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/infrastructure/repositories"
	matchsliprouter "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/infrastructure/router"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/attr"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/audit"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/clock"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/metrics"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/notify"
	"github.com/Black-And-White-Club/tourney-desk/config"
	"github.com/ThreeDotsLabs/watermill"
	wmetrics "github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "tourney-desk"

// App holds the running service.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Tracer    trace.Tracer
	Registry  *prometheus.Registry
	Hub       *notify.Hub
	EventBus  *eventbus.EventBus
	Router    *message.Router
	HTTP      *chi.Mux
	Auth      *auth.Module
	CheckIn   *checkin.Module
	MatchSlip *matchslip.Module

	db            *bun.DB
	redis         *redis.Client
	server        *http.Server
	metricsServer *http.Server
	wg            sync.WaitGroup
}

// NewLogger builds the process logger: JSON outside development, text in it.
func NewLogger(cfg config.ObservabilityConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Environment, "development") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler).With(slog.String("service", serviceName))
}

// NewApp builds every dependency and module from cfg. Nothing is started.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = NewLogger(cfg.Observability)
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Tracer:   otel.Tracer(serviceName),
		Registry: prometheus.NewRegistry(),
		Hub:      notify.NewHub(logger),
		HTTP:     chi.NewRouter(),
	}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	opMetrics := metrics.NewPrometheusMetrics(a.Registry, "tourney_desk")

	if err := a.initBus(ctx); err != nil {
		a.Close()
		return nil, err
	}

	store, registry, auditLog, err := a.initStorage(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.HTTP.Use(
		chimiddleware.RequestID,
		chimiddleware.RealIP,
		correlationMiddleware,
		chimiddleware.Recoverer,
		authhandlers.CORSMiddleware(cfg.HTTP.AllowedOrigins),
	)

	a.Auth = auth.NewModule(ctx, cfg, logger, a.Tracer, a.HTTP)

	c := clock.Real{}

	a.CheckIn, err = checkin.NewCheckInModule(ctx, checkin.Dependencies{
		Config:     cfg,
		Logger:     logger,
		Tracer:     a.Tracer,
		Metrics:    opMetrics,
		Store:      store,
		Audit:      auditLog,
		Hub:        a.Hub,
		Clock:      c,
		Router:     a.Router,
		Subscriber: a.EventBus,
		Publisher:  a.EventBus,
		HTTP:       a.HTTP,
		Gates: checkinrouter.Gates{
			RequireStaff: a.Auth.Require(authdomain.RoleStaff),
			RateLimit:    a.Auth.RateLimit(),
		},
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create check-in module: %w", err)
	}

	a.MatchSlip, err = matchslip.NewMatchSlipModule(ctx, matchslip.Dependencies{
		Config:   cfg,
		Logger:   logger,
		Tracer:   a.Tracer,
		Metrics:  opMetrics,
		Registry: registry,
		Audit:    auditLog,
		Hub:      a.Hub,
		Clock:    c,
		HTTP:     a.HTTP,
		Gates: matchsliprouter.Gates{
			RequireJudge: a.Auth.Require(authdomain.RoleJudge),
		},
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create match slip module: %w", err)
	}

	a.HTTP.Get("/api/audit/{entity_id}", audit.TrailHandler(auditLog, logger))
	a.HTTP.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	metricsHandler := promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})
	if cfg.Observability.MetricsAddress == "" {
		a.HTTP.Handle("/metrics", metricsHandler)
	} else {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metricsHandler)
		a.metricsServer = &http.Server{Addr: cfg.Observability.MetricsAddress, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	}

	a.server = &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           a.HTTP,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return a, nil
}

// initBus creates the event bus, relays hub events onto it and prepares the
// Watermill router consuming scanner commands.
func (a *App) initBus(ctx context.Context) error {
	bus, err := eventbus.NewEventBus(ctx, eventbus.Config{
		Enabled:    a.Config.NATS.Enabled,
		URL:        a.Config.NATS.URL,
		NKeySeed:   a.Config.NATS.NKeySeed,
		QueueGroup: a.Config.NATS.QueueGroup,
	}, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}
	a.EventBus = bus

	eventbus.NewRelay(bus).Attach(a.Hub)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, watermill.NewSlogLogger(a.Logger))
	if err != nil {
		return fmt.Errorf("failed to create message router: %w", err)
	}
	router.AddMiddleware(middleware.CorrelationID, middleware.Recoverer)
	wmetrics.NewPrometheusMetricsBuilder(a.Registry, "tourney_desk", "bus").AddPrometheusRouterMetrics(router)
	a.Router = router
	return nil
}

// initStorage picks the token store backend and, when Postgres is configured,
// keeps slips and audit entries there too. Without Postgres they live in memory.
func (a *App) initStorage(ctx context.Context) (checkindb.Store, matchslipdb.Registry, audit.Log, error) {
	cfg := a.Config
	c := clock.Real{}

	if dsn := cfg.Storage.Postgres.DSN; dsn != "" {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		a.db = bun.NewDB(sqldb, pgdialect.New())
		if err := a.db.PingContext(ctx); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to reach postgres: %w", err)
		}
	}

	var registry matchslipdb.Registry = matchslipdb.NewMemoryRegistry()
	var auditLog audit.Log = audit.NewMemoryLog(c)
	if a.db != nil {
		registry = matchslipdb.NewBunRegistry(a.db)
		auditLog = audit.NewBunLog(a.db, c)
	}

	var store checkindb.Store
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		if a.db == nil {
			return nil, nil, nil, errors.New("postgres backend requires storage.postgres.dsn")
		}
		store = checkindb.NewBunStore(a.db)
	case config.BackendRedis:
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to reach redis: %w", err)
		}
		store = checkindb.NewRedisStore(a.redis, cfg.CheckIn.Retention)
	default:
		store = checkindb.NewMemoryStore()
	}

	a.Logger.InfoContext(ctx, "Storage initialized",
		attr.String("token_backend", cfg.Storage.Backend),
		slog.Bool("postgres", a.db != nil),
	)
	return store, registry, auditLog, nil
}

// correlationMiddleware carries the chi request id as the correlation id.
func correlationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Correlation-ID")
		if id == "" {
			id = chimiddleware.GetReqID(r.Context())
		}
		next.ServeHTTP(w, r.WithContext(attr.WithCorrelationID(r.Context(), id)))
	})
}

// Run starts every module, the message router and the HTTP servers, and
// blocks until ctx is done or a server fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.wg.Add(2)
	go a.CheckIn.Run(ctx, &a.wg)
	go a.MatchSlip.Run(ctx, &a.wg)

	errCh := make(chan error, 3)
	go func() {
		if err := a.Router.Run(ctx); err != nil {
			errCh <- fmt.Errorf("message router stopped: %w", err)
		}
	}()

	go func() {
		a.Logger.InfoContext(ctx, "HTTP server listening", attr.String("address", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server failed: %w", err)
		}
	}()

	if a.metricsServer != nil {
		go func() {
			a.Logger.InfoContext(ctx, "Metrics server listening", attr.String("address", a.metricsServer.Addr))
			if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server failed: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.Logger.Info("Shutdown signal received")
	case runErr = <-errCh:
		a.Logger.Error("Component failed, shutting down", attr.Error(runErr))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("HTTP server shutdown failed", attr.Error(err))
	}
	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
			a.Logger.Error("Metrics server shutdown failed", attr.Error(err))
		}
	}

	cancel()
	a.wg.Wait()
	return runErr
}

// Close releases every resource NewApp acquired. It is safe to call on a
// partially built App.
func (a *App) Close() error {
	var errs []error

	if a.CheckIn != nil {
		if err := a.CheckIn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.MatchSlip != nil {
		if err := a.MatchSlip.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Router != nil {
		if err := a.Router.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close router: %w", err))
		}
	}
	if a.EventBus != nil {
		if err := a.EventBus.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close postgres: %w", err))
		}
	}

	return errors.Join(errs...)
}
