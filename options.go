package linksquared

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/linksquared/linksquared-go/pkg/api"
	"github.com/linksquared/linksquared-go/pkg/appinfo"
	"github.com/linksquared/linksquared-go/pkg/deeplink"
	"github.com/linksquared/linksquared-go/pkg/kvstore"
	"github.com/linksquared/linksquared-go/pkg/notifications"
)

type options struct {
	store      kvstore.Store
	meta       appinfo.Source
	referrer   deeplink.ReferrerSource
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
	sleep      api.Sleeper
	presenter  notifications.Presenter
	listener   DeeplinkListener
}

// Option supplies a collaborator to New.
type Option func(*options)

// WithStore sets the durable storage. The caller keeps ownership and closes
// it after the client.
func WithStore(s kvstore.Store) Option {
	return func(o *options) { o.store = s }
}

// WithMetadata sets the source of app and device details.
func WithMetadata(src appinfo.Source) Option {
	return func(o *options) { o.meta = src }
}

// WithReferrer sets the install referrer consulted for intents without a URI.
func WithReferrer(src deeplink.ReferrerSource) Option {
	return func(o *options) { o.referrer = src }
}

// WithHTTPClient sets the HTTP client used for backend calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithLogger replaces the logger built from Config.LogLevel and LogFormat.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock replaces time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithSleeper replaces the wait between retries.
func WithSleeper(s api.Sleeper) Option {
	return func(o *options) { o.sleep = s }
}

// WithPresenter sets the presenter of automatically displayed notifications.
func WithPresenter(p notifications.Presenter) Option {
	return func(o *options) { o.presenter = p }
}

// WithDeeplinkListener registers the deep link listener at construction.
func WithDeeplinkListener(l DeeplinkListener) Option {
	return func(o *options) { o.listener = l }
}
