package checkinqueue

import "context"

// SweepJob expires lapsed check-in tokens.
type SweepJob struct{}

// Kind returns the job type identifier for River
func (SweepJob) Kind() string { return "checkin_token_sweep" }

// Sweeper is the part of the check-in service the queue drives.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// QueueName is the dedicated River queue for check-in jobs.
const QueueName = "checkin"
