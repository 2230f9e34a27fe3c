package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// WireLayout is the timestamp layout written to storage and the backend.
const WireLayout = "2006-01-02T15:04:05.000Z07:00"

var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Timestamp is a time.Time with the SDK's JSON encoding: a UTC string with
// millisecond precision. Decoding also accepts epoch seconds as a number.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t truncated to milliseconds, in UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: Truncate(t)}
}

// Truncate drops precision below one millisecond and converts to UTC.
func Truncate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.UTC().Format(WireLayout))
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		ts.Time = time.Time{}
		return nil
	}

	if data[0] != '"' {
		secs, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidTimestamp, data)
		}
		ts.Time = Truncate(time.UnixMilli(int64(secs * 1000)))
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTimestamp, err)
	}
	if s == "" {
		ts.Time = time.Time{}
		return nil
	}
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ts.Time = Truncate(t)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}
