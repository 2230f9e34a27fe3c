package sandbox

import "errors"

var (
	ErrStart    = errors.New("sandbox: failed to start")
	ErrShutdown = errors.New("sandbox: failed to shut down gracefully")
	ErrRunning  = errors.New("sandbox: already running")
)
