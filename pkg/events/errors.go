package events

import "errors"

var (
	ErrUnknownKind      = errors.New("events: unknown event kind")
	ErrInvalidTimestamp = errors.New("events: invalid timestamp")
)
