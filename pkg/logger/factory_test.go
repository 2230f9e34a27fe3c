package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linksquared/linksquared-go/pkg/logger"
)

func TestNew(t *testing.T) {
	t.Run("defaults to error level text", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf))
		log.Info("hidden")
		assert.Empty(t, buf.String())

		log.Error("visible")
		assert.Contains(t, buf.String(), "level=ERROR")
		assert.Contains(t, buf.String(), "visible")
	})

	t.Run("json format", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithOutput(buf),
			logger.WithLevel(slog.LevelInfo),
			logger.WithFormat(logger.FormatJSON),
		)
		log.Info("hello")
		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "hello", entry["msg"])
	})

	t.Run("includes default attributes", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithOutput(buf),
			logger.WithFormat(logger.FormatJSON),
			logger.WithAttr(slog.String("sdk", "linksquared")),
		)
		log.Error("hello")
		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "linksquared", entry["sdk"])
	})

	t.Run("invalid format panics", func(t *testing.T) {
		assert.Panics(t, func() { logger.New(logger.WithFormat("xml")) })
	})
}

func TestDebugLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"error", slog.LevelError},
		{"", slog.LevelError},
		{"verbose", slog.LevelError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, logger.DebugLevel(tt.in).Level(), tt.in)
	}

	buf := &bytes.Buffer{}
	log := logger.New(logger.WithOutput(buf), logger.WithDebugLevel("info"))
	log.Debug("no")
	log.Info("yes")
	assert.NotContains(t, buf.String(), "msg=no")
	assert.Contains(t, buf.String(), "msg=yes")
}

func TestDiscard(t *testing.T) {
	log := logger.Discard()
	assert.False(t, log.Enabled(t.Context(), slog.LevelError))
}
