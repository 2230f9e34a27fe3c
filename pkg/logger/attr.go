package logger

import (
	"log/slog"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// EventKind records an analytics event kind under the key "event".
func EventKind(kind string) slog.Attr {
	return slog.String("event", kind)
}

// Link records a deep link under the key "link".
// If link is nil, it returns an empty Attr.
func Link(link *string) slog.Attr {
	if link == nil {
		return slog.Attr{}
	}
	return slog.String("link", *link)
}

// Endpoint records a backend endpoint under the key "endpoint".
func Endpoint(name string) slog.Attr {
	return slog.String("endpoint", name)
}

// StatusCode records an HTTP status under the key "status".
func StatusCode(code int) slog.Attr {
	return slog.Int("status", code)
}

// RetryCount records the retry count under the key "retry_count".
func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Count records a number of items under the key "count".
func Count(n int) slog.Attr {
	return slog.Int("count", n)
}
