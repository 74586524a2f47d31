package checkinqueue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Black-And-White-Club/tourney-desk/app/shared/attr"
)

// TickerRunner sweeps on an in-process ticker. Used when tokens are not in Postgres.
type TickerRunner struct {
	sweeper  Sweeper
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

var _ Runner = (*TickerRunner)(nil)

func NewTickerRunner(logger *slog.Logger, interval time.Duration, sweeper Sweeper) *TickerRunner {
	if interval <= 0 {
		interval = time.Second
	}
	return &TickerRunner{sweeper: sweeper, interval: interval, logger: logger}
}

func (r *TickerRunner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := r.sweeper.Sweep(ctx); err != nil && ctx.Err() == nil {
					r.logger.ErrorContext(ctx, "Token sweep failed", attr.Error(err))
				}
			}
		}
	}()
	return nil
}

// Stop cancels the loop and waits for the in-flight sweep, bounded by ctx.
func (r *TickerRunner) Stop(ctx context.Context) error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel = nil
	r.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
