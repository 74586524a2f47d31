package checkinqueue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Black-And-White-Club/tourney-desk/app/shared/attr"
	"github.com/riverqueue/river"
)

// SweepWorker runs one token sweep per job.
type SweepWorker struct {
	river.WorkerDefaults[SweepJob]
	sweeper Sweeper
	logger  *slog.Logger
}

func NewSweepWorker(logger *slog.Logger, sweeper Sweeper) *SweepWorker {
	return &SweepWorker{sweeper: sweeper, logger: logger}
}

func (w *SweepWorker) Work(ctx context.Context, job *river.Job[SweepJob]) error {
	expired, err := w.sweeper.Sweep(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Token sweep job failed",
			attr.Any("job_id", job.ID),
			attr.Error(err),
		)
		return fmt.Errorf("token sweep: %w", err)
	}
	if expired > 0 {
		w.logger.DebugContext(ctx, "Token sweep job expired tokens",
			attr.Any("job_id", job.ID),
			attr.Int("expired", expired),
		)
	}
	return nil
}
