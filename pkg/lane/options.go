package lane

import "log/slog"

// Option configures a Lane.
type Option func(*options)

type options struct {
	name   string
	logger *slog.Logger
}

// WithName labels the lane in log records.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger sets the logger used for recovered panics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
