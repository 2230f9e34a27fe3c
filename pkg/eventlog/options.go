package eventlog

import "log/slog"

// DefaultKey is the storage key holding the persisted log.
const DefaultKey = "stored_events"

// Option configures a Log.
type Option func(*Log)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(l *Log) {
		if key != "" {
			l.key = key
		}
	}
}

// WithLogger sets the logger for persistence failures.
func WithLogger(log *slog.Logger) Option {
	return func(l *Log) {
		if log != nil {
			l.logger = log
		}
	}
}
