package lane

import "errors"

var (
	// ErrClosed is returned for work submitted to, or abandoned by, a closed lane.
	ErrClosed = errors.New("lane: closed")
	// ErrPanic wraps a panic recovered from a task.
	ErrPanic = errors.New("lane: task panicked")
)
