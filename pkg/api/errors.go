package api

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the client. Transport, status and body failures
// are retried by indefinite operations; ErrServerRejected never is.
var (
	ErrInvalidBaseURL      = errors.New("api: invalid base URL")
	ErrMissingAPIKey       = errors.New("api: API key is required")
	ErrTransport           = errors.New("api: request failed")
	ErrUnexpectedStatus    = errors.New("api: unexpected response status")
	ErrEmptyResponse       = errors.New("api: response body is empty")
	ErrSerialization       = errors.New("api: serialization failed")
	ErrServerRejected      = errors.New("api: request rejected by server")
	ErrMissingLink         = errors.New("api: response carries no link")
	ErrInvalidNotification = errors.New("api: invalid notification id")
)

// ServerError is a non-2xx response with a readable error message.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("api: server rejected request (status %d): %s", e.StatusCode, e.Message)
}

// Is makes ServerError match ErrServerRejected.
func (e *ServerError) Is(target error) bool {
	return target == ErrServerRejected
}

func retryable(err error) bool {
	return errors.Is(err, ErrTransport) ||
		errors.Is(err, ErrUnexpectedStatus) ||
		errors.Is(err, ErrEmptyResponse) ||
		errors.Is(err, ErrSerialization)
}
