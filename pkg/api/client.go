package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/linksquared/linksquared-go/pkg/logger"
)

// DefaultBaseURL is the production SDK endpoint root.
const DefaultBaseURL = "https://sdk.sqd.link/api/v1/sdk/"

// Header names of the SDK header set.
const (
	HeaderProjectKey = "PROJECT-KEY"
	HeaderIdentifier = "IDENTIFIER"
	HeaderPlatform   = "PLATFORM"
	HeaderSession    = "LINKSQUARED"
	HeaderUserAgent  = "User-Agent"

	testKeyPrefix   = "test_"
	defaultPlatform = "android"
	maxBodySize     = 1 << 20
)

// AttemptResult describes one HTTP attempt.
type AttemptResult struct {
	Endpoint   string
	Attempt    int
	StatusCode int
	Duration   time.Duration
	Err        error
}

// AttemptHook is called after each HTTP attempt.
type AttemptHook func(AttemptResult)

// Client talks to the SDK backend. Zero value is not usable; use New.
type Client struct {
	baseURL         *url.URL
	apiKey          string
	testEnvironment bool
	applicationID   string
	platform        string
	userAgent       string
	session         func() string

	httpClient *http.Client
	backoff    BackoffStrategy
	sleep      Sleeper
	timeout    time.Duration
	onAttempt  AttemptHook
	logger     *slog.Logger
}

// New creates a client for the backend at baseURL authenticating with apiKey.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	u, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:   u,
		apiKey:    apiKey,
		platform:  defaultPlatform,
		userAgent: "linksquared-go",
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		backoff: DefaultBackoffStrategy(),
		sleep:   Sleep,
		timeout: 40 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("api"))

	return c, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	if raw == "" {
		raw = DefaultBaseURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidBaseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: host is required", ErrInvalidBaseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u, nil
}

type retryMode int

const (
	singleAttempt retryMode = iota
	retryIndefinitely
)

type request struct {
	method   string
	endpoint string
	query    url.Values
	body     any
	// out receives the decoded body. Nil means the body is ignored.
	out  any
	mode retryMode
}

// do runs r under its retry mode.
func (c *Client) do(ctx context.Context, r request) error {
	var payload []byte
	if r.body != nil {
		var err error
		if payload, err = json.Marshal(r.body); err != nil {
			return fmt.Errorf("%w: encode %s request: %w", ErrSerialization, r.endpoint, err)
		}
	}

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			delay := c.backoff.NextInterval(attempt)
			c.logger.DebugContext(ctx, "retrying request",
				logger.Endpoint(r.endpoint),
				logger.RetryCount(attempt),
				logger.Duration(delay),
			)
			if err := c.sleep(ctx, delay); err != nil {
				return err
			}
		}

		err := c.attempt(ctx, r, payload, attempt+1)
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Join(ctxErr, err)
		}
		if r.mode == singleAttempt || !retryable(err) {
			return err
		}

		c.logger.InfoContext(ctx, "request failed, will retry",
			logger.Endpoint(r.endpoint),
			logger.Error(err),
		)
	}
}

func (c *Client) attempt(ctx context.Context, r request, payload []byte, n int) error {
	start := time.Now()
	status, err := c.roundTrip(ctx, r, payload)
	if c.onAttempt != nil {
		c.onAttempt(AttemptResult{
			Endpoint:   r.endpoint,
			Attempt:    n,
			StatusCode: status,
			Duration:   time.Since(start),
			Err:        err,
		})
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, r request, payload []byte) (int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL.JoinPath(r.endpoint)
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(reqCtx, r.method, u.String(), body)
	if err != nil {
		return 0, fmt.Errorf("%w: build %s request: %w", ErrTransport, r.endpoint, err)
	}
	c.setHeaders(req, payload != nil)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrTransport, r.endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: read %s response: %w", ErrTransport, r.endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg ErrorMessage
		if json.Unmarshal(raw, &msg) == nil && msg.Error != "" {
			return resp.StatusCode, &ServerError{StatusCode: resp.StatusCode, Message: msg.Error}
		}
		return resp.StatusCode, fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, r.endpoint, resp.StatusCode)
	}

	if r.out == nil {
		return resp.StatusCode, nil
	}
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return resp.StatusCode, fmt.Errorf("%w: %s", ErrEmptyResponse, r.endpoint)
	}
	if err := json.Unmarshal(raw, r.out); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: decode %s response: %w", ErrSerialization, r.endpoint, err)
	}
	return resp.StatusCode, nil
}

func (c *Client) setHeaders(req *http.Request, hasBody bool) {
	key := c.apiKey
	if c.testEnvironment {
		key = testKeyPrefix + key
	}
	req.Header.Set(HeaderProjectKey, key)
	req.Header.Set(HeaderIdentifier, c.applicationID)
	req.Header.Set(HeaderPlatform, c.platform)
	req.Header.Set(HeaderUserAgent, c.userAgent)
	req.Header.Set("Accept", "application/json")
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		if id := c.session(); id != "" {
			req.Header.Set(HeaderSession, id)
		}
	}
}
