package async

import "errors"

// ErrPanic wraps a panic recovered from a Future's computation.
var ErrPanic = errors.New("async: computation panicked")
