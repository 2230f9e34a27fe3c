package api

import (
	"context"
	"time"
)

// BackoffStrategy calculates the wait before a retry.
type BackoffStrategy interface {
	// NextInterval returns the wait before retry attempt (1-based).
	NextInterval(attempt int) time.Duration
}

// TieredBackoff waits EagerInterval for the first EagerAttempts retries and
// SteadyInterval for every retry after that.
type TieredBackoff struct {
	EagerAttempts  int
	EagerInterval  time.Duration
	SteadyInterval time.Duration
}

func (b TieredBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= b.EagerAttempts {
		return b.EagerInterval
	}
	return b.SteadyInterval
}

// FixedBackoff waits the same interval before every retry.
type FixedBackoff struct {
	Interval time.Duration
}

func (b FixedBackoff) NextInterval(int) time.Duration {
	return b.Interval
}

// DefaultBackoffStrategy returns the backend retry schedule: fifteen retries
// five seconds apart, then one per minute.
func DefaultBackoffStrategy() BackoffStrategy {
	return TieredBackoff{
		EagerAttempts:  15,
		EagerInterval:  5 * time.Second,
		SteadyInterval: 60 * time.Second,
	}
}

// Sleeper pauses for d, returning early with ctx.Err() when ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the real Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
