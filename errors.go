package linksquared

import "errors"

var (
	ErrNotConfigured    = errors.New("linksquared: not configured")
	ErrNotEnabled       = errors.New("linksquared: sdk is not enabled")
	ErrNotAuthenticated = errors.New("linksquared: sdk is not authenticated")
	ErrMissingMetadata  = errors.New("linksquared: app metadata is required")
	ErrInvalidConfig    = errors.New("linksquared: invalid config")
	ErrClosed           = errors.New("linksquared: client is closed")
)
