package gate

import (
	"context"
	"log/slog"
)

// Hook runs once after a successful handshake, before waiters are released.
type Hook func(ctx context.Context) error

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// OnAuthenticated registers hooks run in order after a successful handshake.
// A failing hook is logged and does not stop the others.
func OnAuthenticated(hooks ...Hook) Option {
	return func(g *Gate) {
		for _, h := range hooks {
			if h != nil {
				g.hooks = append(g.hooks, h)
			}
		}
	}
}
