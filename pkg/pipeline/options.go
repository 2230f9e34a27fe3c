package pipeline

import (
	"log/slog"
	"time"

	"github.com/linksquared/linksquared-go/pkg/api"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithSleeper replaces the wait used to throttle failed submissions.
func WithSleeper(s api.Sleeper) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.sleep = s
		}
	}
}

// WithRetryDelay sets a fixed pause after each failed submission. Default
// is 5s.
func WithRetryDelay(d time.Duration) Option {
	return func(p *Pipeline) {
		if d >= 0 {
			p.backoff = api.FixedBackoff{Interval: d}
		}
	}
}

// WithBackoff sets the pause schedule after failed submissions.
func WithBackoff(b api.BackoffStrategy) Option {
	return func(p *Pipeline) {
		if b != nil {
			p.backoff = b
		}
	}
}

// WithReactivationAfter sets how long the app must go unused before a launch
// counts as a reactivation. Default is seven days.
func WithReactivationAfter(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.reactivationAfter = d
		}
	}
}

// WithLastSeen tells the pipeline when the backend last saw this device.
// A device the backend has seen but that has no local open count was
// reinstalled.
func WithLastSeen(fn func() (time.Time, bool)) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.lastSeen = fn
		}
	}
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}
