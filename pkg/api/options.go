package api

import (
	"log/slog"
	"net/http"
	"time"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithTestEnvironment prefixes the project key with "test_" so the backend
// routes requests to the project's test environment.
func WithTestEnvironment(enabled bool) Option {
	return func(c *Client) { c.testEnvironment = enabled }
}

// WithApplicationID sets the IDENTIFIER header.
func WithApplicationID(id string) Option {
	return func(c *Client) { c.applicationID = id }
}

// WithPlatform sets the PLATFORM header. Default is "android".
func WithPlatform(platform string) Option {
	return func(c *Client) {
		if platform != "" {
			c.platform = platform
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithSessionProvider supplies the session id sent in the LINKSQUARED header.
// The provider is consulted on every request; an empty result omits the header.
func WithSessionProvider(fn func() string) Option {
	return func(c *Client) { c.session = fn }
}

// WithBackoff sets the retry schedule of indefinite operations.
func WithBackoff(strategy BackoffStrategy) Option {
	return func(c *Client) {
		if strategy != nil {
			c.backoff = strategy
		}
	}
}

// WithSleeper replaces the function used to wait between retries.
func WithSleeper(s Sleeper) Option {
	return func(c *Client) {
		if s != nil {
			c.sleep = s
		}
	}
}

// WithTimeout bounds every single HTTP attempt. Default is 40 seconds.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithOnAttempt registers a callback invoked after every HTTP attempt.
func WithOnAttempt(hook AttemptHook) Option {
	return func(c *Client) { c.onAttempt = hook }
}

// WithLogger sets the logger for request records.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
