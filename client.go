package linksquared

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/linksquared/linksquared-go/pkg/api"
	"github.com/linksquared/linksquared-go/pkg/appinfo"
	"github.com/linksquared/linksquared-go/pkg/deeplink"
	"github.com/linksquared/linksquared-go/pkg/eventlog"
	"github.com/linksquared/linksquared-go/pkg/events"
	"github.com/linksquared/linksquared-go/pkg/gate"
	"github.com/linksquared/linksquared-go/pkg/kvstore"
	"github.com/linksquared/linksquared-go/pkg/lane"
	"github.com/linksquared/linksquared-go/pkg/localcache"
	"github.com/linksquared/linksquared-go/pkg/logger"
	"github.com/linksquared/linksquared-go/pkg/notifications"
	"github.com/linksquared/linksquared-go/pkg/pipeline"
	"github.com/linksquared/linksquared-go/pkg/qrcode"
)

// DeeplinkListener is told about every resolved link the app was opened with.
type DeeplinkListener interface {
	DeeplinkReceived(ctx context.Context, details api.DeeplinkDetails)
}

// DeeplinkListenerFunc adapts a function to DeeplinkListener.
type DeeplinkListenerFunc func(ctx context.Context, details api.DeeplinkDetails)

// DeeplinkReceived calls f(ctx, details).
func (f DeeplinkListenerFunc) DeeplinkReceived(ctx context.Context, details api.DeeplinkDetails) {
	f(ctx, details)
}

// Client is one SDK session. Create it with New and release it with Close.
type Client struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	store     kvstore.Store
	ownsStore bool
	meta      appinfo.Source

	api           *api.Client
	gate          *gate.Gate
	log           *eventlog.Log
	pipeline      *pipeline.Pipeline
	resolver      *deeplink.Resolver
	notifications *notifications.Manager

	// session serializes gate-dependent operations; lifecycle runs
	// Foregrounded and Backgrounded in call order without blocking the host.
	session   *lane.Lane
	lifecycle *lane.Lane

	ctx        context.Context
	cancel     context.CancelFunc
	enabled    atomic.Bool
	configured atomic.Bool

	mu          sync.Mutex
	closed      bool
	listener    DeeplinkListener
	opened      *api.DeeplinkDetails
	subscribers map[int]chan api.DeeplinkDetails
	nextSub     int
	wg          sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

// New builds a client from cfg. It opens the configured storage unless
// WithStore is given, and needs app metadata from WithMetadata or
// cfg.MetadataFile.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	log := o.logger
	if log == nil {
		log = logger.New(
			logger.WithDebugLevel(cfg.LogLevel),
			logger.WithFormat(logger.Format(cfg.LogFormat)),
		)
	}
	now := o.now
	if now == nil {
		now = time.Now
	}
	sleep := o.sleep
	if sleep == nil {
		sleep = api.Sleep
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		cfg:         cfg,
		logger:      log,
		now:         now,
		ctx:         ctx,
		cancel:      cancel,
		listener:    o.listener,
		subscribers: make(map[int]chan api.DeeplinkDetails),
	}
	c.enabled.Store(!cfg.Disabled)

	if err := c.openStorage(o); err != nil {
		cancel()
		return nil, err
	}
	if err := c.loadMetadata(o); err != nil {
		cancel()
		c.closeStore()
		return nil, err
	}
	md := c.meta.Metadata()

	apiClient, err := api.New(cfg.BaseURL, cfg.APIKey,
		api.WithHTTPClient(o.httpClient),
		api.WithTestEnvironment(cfg.UseTestEnvironment),
		api.WithApplicationID(md.Bundle),
		api.WithPlatform(cfg.Platform),
		api.WithUserAgent(md.UserAgent),
		api.WithSessionProvider(func() string { return c.gate.SessionID() }),
		api.WithBackoff(cfg.backoff()),
		api.WithSleeper(sleep),
		api.WithTimeout(cfg.RequestTimeout),
		api.WithLogger(log),
	)
	if err != nil {
		cancel()
		c.closeStore()
		return nil, err
	}
	c.api = apiClient

	c.gate = gate.New(apiClient, c.meta,
		gate.WithLogger(log),
		gate.OnAuthenticated(c.afterAuthentication),
	)
	c.log = eventlog.New(c.store, eventlog.WithLogger(log))
	c.pipeline = pipeline.New(c.log, localcache.New(c.store), apiClient,
		pipeline.WithClock(now),
		pipeline.WithSleeper(sleep),
		pipeline.WithRetryDelay(cfg.EventRetryDelay),
		pipeline.WithReactivationAfter(cfg.ReactivationAfter),
		pipeline.WithLastSeen(c.gate.LastSeen),
		pipeline.WithLogger(log),
	)
	c.resolver = deeplink.NewResolver(apiClient, c.pipeline, c.meta,
		deeplink.WithReferrer(o.referrer),
		deeplink.WithLogger(log),
	)
	c.notifications = notifications.NewManager(apiClient,
		notifications.WithPresenter(o.presenter),
		notifications.WithLogger(log),
	)
	c.session = lane.New(lane.WithName("session"), lane.WithLogger(log))
	c.lifecycle = lane.New(lane.WithName("lifecycle"), lane.WithLogger(log))

	return c, nil
}

func (c *Client) openStorage(o *options) error {
	if o.store != nil {
		c.store = o.store
		return nil
	}
	ctx, cancel := context.WithTimeout(c.ctx, c.cfg.Storage.ConnectTimeout)
	defer cancel()
	store, err := kvstore.Open(ctx, c.cfg.Storage)
	if err != nil {
		return fmt.Errorf("linksquared: open storage: %w", err)
	}
	c.store = store
	c.ownsStore = true
	return nil
}

func (c *Client) loadMetadata(o *options) error {
	src := o.meta
	if src == nil && c.cfg.MetadataFile != "" {
		md, err := appinfo.LoadYAML(c.cfg.MetadataFile)
		if err != nil {
			return err
		}
		src = appinfo.Static(md)
	}
	if src == nil {
		return ErrMissingMetadata
	}

	src, err := appinfo.EnsureDeviceID(c.ctx, c.store, src)
	if err != nil {
		return err
	}
	c.meta = src
	return nil
}

func (c *Client) closeStore() {
	if c.ownsStore {
		if err := c.store.Close(); err != nil {
			c.logger.Warn("failed to close storage", logger.Error(err))
		}
	}
}

// Configure starts the authentication handshake. It returns at once; later
// calls are no-ops.
func (c *Client) Configure(ctx context.Context) error {
	if err := c.usable(); err != nil {
		return err
	}
	if !c.enabled.Load() {
		return ErrNotEnabled
	}
	if c.configured.Swap(true) {
		return nil
	}
	c.logger.InfoContext(ctx, "configuring sdk",
		slog.Bool("test_environment", c.cfg.UseTestEnvironment),
		slog.String("platform", c.cfg.Platform),
	)
	c.gate.Start(c.ctx)
	return nil
}

// afterAuthentication runs once the backend issued a session and before
// waiters are released.
func (c *Client) afterAuthentication(ctx context.Context) error {
	if err := c.pipeline.AppLaunch(ctx); err != nil {
		return err
	}
	c.background("flush launch events", c.pipeline.FlushNormal)
	c.background("display notifications", c.displayNotifications)
	return nil
}

// Ready waits for the handshake and reports whether the client holds a
// backend session.
func (c *Client) Ready(ctx context.Context) error {
	if err := c.usable(); err != nil {
		return err
	}
	if !c.enabled.Load() {
		return ErrNotEnabled
	}
	if !c.configured.Load() {
		return ErrNotConfigured
	}
	if err := c.gate.Wait(ctx); err != nil {
		return err
	}
	if !c.gate.HasServerIdentity() {
		if err := c.gate.Err(); err != nil {
			return errors.Join(ErrNotAuthenticated, err)
		}
		return ErrNotAuthenticated
	}
	return nil
}

// Authenticated reports whether the handshake produced a session.
func (c *Client) Authenticated() bool {
	return c.gate.HasServerIdentity()
}

// SetEnabled switches the SDK on or off. A disabled SDK rejects operations
// with ErrNotEnabled.
func (c *Client) SetEnabled(enabled bool) {
	c.enabled.Store(enabled)
	c.logger.Info("sdk enabled changed", slog.Bool("enabled", enabled))
}

// Enabled reports whether the SDK is switched on.
func (c *Client) Enabled() bool {
	return c.enabled.Load()
}

// Foregrounded reports that the app came to the foreground. Queued events
// are flushed and a new engagement session starts. The work runs in the
// background once the handshake finished.
func (c *Client) Foregrounded(ctx context.Context) error {
	if err := c.lifecycleAllowed(); err != nil {
		return err
	}
	at := c.now()
	return c.lifecycle.Go(c.ctx, func(ctx context.Context) error {
		if err := c.gate.Wait(ctx); err != nil {
			return err
		}
		if !c.gate.HasServerIdentity() {
			c.logger.InfoContext(ctx, "no session, foreground events stay queued")
			return nil
		}
		return c.pipeline.Foregrounded(ctx, at)
	})
}

// Sync waits until lifecycle work reported before the call has finished.
func (c *Client) Sync(ctx context.Context) error {
	if err := c.usable(); err != nil {
		return err
	}
	return c.lifecycle.Do(ctx, func(context.Context) error { return nil })
}

// Backgrounded reports that the app left the foreground. The moment is
// recorded after earlier lifecycle work, and survives Close.
func (c *Client) Backgrounded(ctx context.Context) error {
	if err := c.lifecycleAllowed(); err != nil {
		return err
	}
	at := c.now()
	return c.lifecycle.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		return c.pipeline.Backgrounded(ctx, at)
	})
}

func (c *Client) lifecycleAllowed() error {
	if err := c.usable(); err != nil {
		return err
	}
	if !c.enabled.Load() {
		return ErrNotEnabled
	}
	if !c.configured.Load() {
		return ErrNotConfigured
	}
	return nil
}

// HandleIntent resolves the payload of the intent the app was opened or
// resumed with. Resolved links are reported to the deep link listener and
// the opened link observers.
func (c *Client) HandleIntent(ctx context.Context, intent *deeplink.Intent) (api.DeeplinkDetails, error) {
	details, err := runInSession(ctx, c, func(ctx context.Context) (api.DeeplinkDetails, error) {
		return c.resolver.Handle(ctx, intent)
	})
	if err != nil {
		return api.DeeplinkDetails{}, err
	}
	if details.Link != nil {
		c.publish(ctx, details)
	}
	return details, nil
}

// GenerateLink creates a short link carrying params.
func (c *Client) GenerateLink(ctx context.Context, params api.LinkParams) (string, error) {
	return runInSession(ctx, c, func(ctx context.Context) (string, error) {
		return c.api.GenerateLink(ctx, params)
	})
}

// GenerateLinkQRCode creates a link and renders it as a PNG QR code of
// size pixels.
func (c *Client) GenerateLinkQRCode(ctx context.Context, params api.LinkParams, size int) (string, []byte, error) {
	link, err := c.GenerateLink(ctx, params)
	if err != nil {
		return "", nil, err
	}
	png, err := qrcode.Encode(link, qrcode.WithSize(size))
	if err != nil {
		return link, nil, err
	}
	return link, png, nil
}

// LogEvent records an analytics event of kind. The event is stored at once
// and submitted in the background.
func (c *Client) LogEvent(ctx context.Context, kind events.Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", events.ErrUnknownKind, kind)
	}
	if err := c.lifecycleAllowed(); err != nil {
		return err
	}
	if err := c.pipeline.Queue(ctx, events.New(kind, c.now())); err != nil {
		return err
	}
	if c.gate.HasServerIdentity() {
		c.background("flush events", c.pipeline.FlushNormal)
	}
	return nil
}

// Flush submits queued analytics events and waits until the submission
// finished.
func (c *Client) Flush(ctx context.Context) error {
	_, err := runInSession(ctx, c, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.pipeline.FlushNormal(ctx)
	})
	return err
}

// SetIdentifier sets the host's user id. Nil clears it.
func (c *Client) SetIdentifier(id *string) { c.gate.SetIdentifier(id) }

// Identifier returns the host user id, or nil.
func (c *Client) Identifier() *string { return c.gate.Identifier() }

// SetPushToken sets the device push token. Nil clears it.
func (c *Client) SetPushToken(token *string) { c.gate.SetPushToken(token) }

// PushToken returns the push token, or nil.
func (c *Client) PushToken() *string { return c.gate.PushToken() }

// SetAttributes replaces the user attributes sent to the backend.
func (c *Client) SetAttributes(attrs map[string]any) { c.gate.SetAttributes(attrs) }

// Attributes returns a copy of the user attributes.
func (c *Client) Attributes() map[string]any { return c.gate.Attributes() }

// OnDeeplink replaces the deep link listener. Nil removes it.
func (c *Client) OnDeeplink(l DeeplinkListener) {
	c.mu.Lock()
	c.listener = l
	c.mu.Unlock()
}

// OpenedLink returns the last link the app was opened with.
func (c *Client) OpenedLink() (api.DeeplinkDetails, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.opened == nil {
		return api.DeeplinkDetails{}, false
	}
	return *c.opened, true
}

// OpenedLinkUpdates streams opened links until ctx is done or the client is
// closed. The current link, if any, is delivered first. Slow readers only
// see the latest link.
func (c *Client) OpenedLinkUpdates(ctx context.Context) <-chan api.DeeplinkDetails {
	ch := make(chan api.DeeplinkDetails, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch
	}
	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = ch
	if c.opened != nil {
		ch <- *c.opened
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		select {
		case <-ctx.Done():
		case <-c.ctx.Done():
		}
		c.mu.Lock()
		delete(c.subscribers, id)
		close(ch)
		c.mu.Unlock()
	}()
	return ch
}

func (c *Client) publish(ctx context.Context, details api.DeeplinkDetails) {
	c.mu.Lock()
	d := details
	c.opened = &d
	for _, ch := range c.subscribers {
		select {
		case ch <- details:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- details
		}
	}
	listener := c.listener
	c.mu.Unlock()

	if listener != nil {
		listener.DeeplinkReceived(ctx, details)
	}
}

// Notifications returns one page of the device's notifications.
func (c *Client) Notifications(ctx context.Context, page int) ([]notifications.Notification, error) {
	return runInSession(ctx, c, func(ctx context.Context) ([]notifications.Notification, error) {
		return c.notifications.List(ctx, page)
	})
}

// UnreadNotificationCount returns how many notifications are unread.
func (c *Client) UnreadNotificationCount(ctx context.Context) (int, error) {
	return runInSession(ctx, c, c.notifications.UnreadCount)
}

// MarkNotificationRead marks notification id as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id int) error {
	_, err := runInSession(ctx, c, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.notifications.MarkRead(ctx, id)
	})
	return err
}

// DisplayAutomaticNotifications presents the notifications the backend
// flags for automatic display and returns how many were shown.
func (c *Client) DisplayAutomaticNotifications(ctx context.Context) (int, error) {
	return runInSession(ctx, c, c.notifications.DisplayAutomatic)
}

// SetPresenter sets the screen automatic notifications are shown on. A
// non-nil presenter on an authenticated client triggers a display pass.
func (c *Client) SetPresenter(p notifications.Presenter) {
	c.notifications.SetPresenter(p)
	if p != nil && c.gate.HasServerIdentity() {
		c.background("display notifications", c.displayNotifications)
	}
}

// OnNotificationClosed registers the listener for dismissed automatic
// notifications.
func (c *Client) OnNotificationClosed(fn notifications.ClosedListener) {
	c.notifications.SetClosedListener(fn)
}

func (c *Client) displayNotifications(ctx context.Context) error {
	_, err := c.notifications.DisplayAutomatic(ctx)
	return err
}

// Close stops background work and releases storage opened by New.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		c.cancel()
		c.gate.Close()
		c.wg.Wait()

		errs := []error{
			c.lifecycle.Close(),
			c.session.Close(),
			c.log.Close(),
		}
		if c.ownsStore {
			errs = append(errs, c.store.Close())
		}
		c.closeErr = errors.Join(errs...)
	})
	return c.closeErr
}

func (c *Client) usable() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}

// background runs fn on its own goroutine until it returns or the client
// closes.
func (c *Client) background(name string, fn func(context.Context) error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		if err := fn(c.ctx); err != nil && c.ctx.Err() == nil {
			c.logger.WarnContext(c.ctx, "background task failed",
				slog.String("task", name),
				logger.Error(err),
			)
		}
	}()
}

// bind returns a context cancelled with either ctx or the client.
func (c *Client) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// runInSession waits for a session and runs fn on the session lane.
func runInSession[T any](ctx context.Context, c *Client, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	ctx, cancel := c.bind(ctx)
	defer cancel()

	if err := c.Ready(ctx); err != nil {
		return zero, err
	}
	return lane.Run(ctx, c.session, fn)
}
