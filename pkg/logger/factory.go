package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format represents logger output format.
type Format string

const (
	// FormatJSON outputs one JSON object per record.
	FormatJSON Format = "json"
	// FormatText outputs key=value records for terminals.
	FormatText Format = "text"
)

// DebugLevel is the SDK-facing verbosity switch. It maps onto slog levels.
type DebugLevel string

const (
	DebugLevelError DebugLevel = "error"
	DebugLevelInfo  DebugLevel = "info"
	DebugLevelDebug DebugLevel = "debug"
)

// Level returns the slog level matching the debug level.
// Unknown values fall back to error.
func (d DebugLevel) Level() slog.Level {
	switch DebugLevel(strings.ToLower(string(d))) {
	case DebugLevelDebug:
		return slog.LevelDebug
	case DebugLevelInfo:
		return slog.LevelInfo
	default:
		return slog.LevelError
	}
}

// Option configures New.
type Option func(*config)

type config struct {
	level  slog.Level
	format Format
	output io.Writer
	attrs  []slog.Attr
}

// WithLevel sets the minimum level.
func WithLevel(l slog.Level) Option {
	return func(c *config) { c.level = l }
}

// WithDebugLevel sets the minimum level from an SDK debug level name.
func WithDebugLevel(level string) Option {
	return WithLevel(DebugLevel(level).Level())
}

// WithFormat sets the output format. It panics on an unknown format so a
// misconfigured logger fails at startup.
func WithFormat(f Format) Option {
	switch f {
	case FormatJSON, FormatText:
	default:
		panic(fmt.Errorf("invalid log format %q: must be %q or %q", f, FormatJSON, FormatText))
	}
	return func(c *config) { c.format = f }
}

// WithOutput sets the destination. Nil is ignored.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.output = w
		}
	}
}

// WithAttr adds attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(c *config) { c.attrs = append(c.attrs, attrs...) }
}

// New creates a logger. Without options it writes errors only, as text on
// stderr, so an embedded SDK stays out of the host's output.
func New(opts ...Option) *slog.Logger {
	cfg := config{level: slog.LevelError, format: FormatText, output: os.Stderr}
	for _, opt := range opts {
		opt(&cfg)
	}

	handlerOpts := &slog.HandlerOptions{Level: cfg.level}
	var h slog.Handler = slog.NewTextHandler(cfg.output, handlerOpts)
	if cfg.format == FormatJSON {
		h = slog.NewJSONHandler(cfg.output, handlerOpts)
	}
	if len(cfg.attrs) > 0 {
		h = h.WithAttrs(cfg.attrs)
	}
	return slog.New(h)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
