// Package logger builds the *slog.Logger used across the SDK and provides
// attribute constructors that keep key names consistent.
//
// New applies functional options on top of quiet defaults (text output on
// stderr, error level) and returns a plain *slog.Logger. WithDebugLevel maps
// the SDK's "error", "info" and "debug" verbosity names onto slog levels.
//
// Components receive a logger through their own WithLogger option and tag
// themselves with Component:
//
//	log := logger.New(logger.WithDebugLevel("debug"), logger.WithFormat(logger.FormatJSON))
//	pipelineLog := log.With(logger.Component("pipeline"))
//	pipelineLog.InfoContext(ctx, "event queued", logger.EventKind("app_open"))
//
// Helpers such as Error and Link return an empty slog.Attr for nil input, which
// slog drops from the record.
package logger
