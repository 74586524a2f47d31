package checkinqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/tourney-desk/app/shared/attr"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
)

// minRiverInterval is the shortest period handed to River's periodic enqueuer.
const minRiverInterval = time.Second

// Runner drives token sweeps in the background.
type Runner interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Service schedules token sweeps as a River periodic job on Postgres.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics metrics.OperationMetrics
}

var _ Runner = (*Service)(nil)

// NewService creates the River client, migrating River's own tables first.
func NewService(ctx context.Context, logger *slog.Logger, dsn string, interval time.Duration, sweeper Sweeper, m metrics.OperationMetrics) (*Service, error) {
	ctxLogger := logger.With(
		attr.String("operation", "new_checkin_queue_service"),
		attr.String("component", "river_queue"),
	)
	if m == nil {
		m = metrics.NoOpMetrics{}
	}

	start := time.Now()
	m.RecordOperationAttempt(ctx, "initialize_service", "river")

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		m.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		m.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		ctxLogger.Error("Failed to ping database for River", attr.Error(err))
		m.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	driver := riverpgxv5.New(pool)
	migrator, err := rivermigrate.New(driver, nil)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create River migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		pool.Close()
		ctxLogger.Error("Failed to migrate River tables", attr.Error(err))
		return nil, fmt.Errorf("failed to migrate River tables: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewSweepWorker(ctxLogger, sweeper))

	riverClient, err := river.NewClient(driver, &river.Config{
		Queues: map[string]river.QueueConfig{
			QueueName: {MaxWorkers: 1},
		},
		Workers:      workers,
		PeriodicJobs: []*river.PeriodicJob{sweepPeriodicJob(interval)},
	})
	if err != nil {
		pool.Close()
		m.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	m.RecordOperationSuccess(ctx, "initialize_service", "river")
	m.RecordOperationDuration(ctx, "initialize_service", "river", time.Since(start))
	ctxLogger.Info("Check-in queue service initialized", attr.String("interval", interval.String()))

	return &Service{client: riverClient, pool: pool, logger: ctxLogger, metrics: m}, nil
}

func sweepPeriodicJob(interval time.Duration) *river.PeriodicJob {
	if interval < minRiverInterval {
		interval = minRiverInterval
	}
	return river.NewPeriodicJob(
		river.PeriodicInterval(interval),
		func() (river.JobArgs, *river.InsertOpts) {
			return SweepJob{}, &river.InsertOpts{Queue: QueueName, MaxAttempts: 1}
		},
		&river.PeriodicJobOpts{RunOnStart: true},
	)
}

func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("Starting check-in queue service")
	if err := s.client.Start(ctx); err != nil {
		s.logger.Error("Failed to start River client", attr.Error(err))
		return fmt.Errorf("failed to start River client: %w", err)
	}
	return nil
}

func (s *Service) Stop(ctx context.Context) error {
	s.logger.Info("Stopping check-in queue service")
	defer s.pool.Close()
	if err := s.client.Stop(ctx); err != nil {
		s.logger.Error("Failed to stop River client", attr.Error(err))
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	return nil
}
