package sandbox

import (
	"log/slog"
	"strings"
	"time"
)

type config struct {
	addr            string
	basePath        string
	readTimeout     time.Duration
	writeTimeout    time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// Option configures a Server.
type Option func(*config)

// WithAddr sets the listen address. Port 0 picks a free port.
func WithAddr(addr string) Option {
	if addr == "" {
		panic("sandbox: WithAddr: addr cannot be empty")
	}
	return func(c *config) { c.addr = addr }
}

// WithBasePath sets the path the backend is mounted under.
func WithBasePath(p string) Option {
	return func(c *config) { c.basePath = "/" + strings.Trim(p, "/") }
}

// WithReadTimeout sets the server read timeout.
func WithReadTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("sandbox: WithReadTimeout: duration must be > 0")
	}
	return func(c *config) { c.readTimeout = d }
}

// WithWriteTimeout sets the server write timeout.
func WithWriteTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("sandbox: WithWriteTimeout: duration must be > 0")
	}
	return func(c *config) { c.writeTimeout = d }
}

// WithShutdownTimeout bounds the graceful shutdown once Run's context ends.
func WithShutdownTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("sandbox: WithShutdownTimeout: duration must be > 0")
	}
	return func(c *config) { c.shutdownTimeout = d }
}

// WithLogger sets the logger for server lifecycle records.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}
