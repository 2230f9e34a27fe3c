package gate

import "errors"

var (
	ErrURISchemesMissing = errors.New("gate: app declares no URI scheme")
	ErrNotStarted        = errors.New("gate: handshake not started")
	ErrNoSession         = errors.New("gate: no server session")
)
