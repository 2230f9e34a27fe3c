package gate

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/linksquared/linksquared-go/pkg/api"
	"github.com/linksquared/linksquared-go/pkg/appinfo"
	"github.com/linksquared/linksquared-go/pkg/async"
	"github.com/linksquared/linksquared-go/pkg/logger"
)

// Backend is the part of the api client the gate uses.
type Backend interface {
	DeviceLastSeen(ctx context.Context, vendorID string) (time.Time, error)
	Authenticate(ctx context.Context, details api.AppDetails) (api.AuthenticationResponse, error)
	UpdateAttributes(ctx context.Context, req api.UpdateAttributesRequest) error
}

// state is the device session. Guarded by Gate.mu.
type state struct {
	linksquaredID           string
	identifier              *string
	pushToken               *string
	attributes              map[string]any
	pendingAttributesUpdate bool
	lastSeen                time.Time
	handshakeComplete       bool
	hasServerIdentity       bool
}

// Gate runs the authentication handshake and holds the session state.
type Gate struct {
	backend Backend
	meta    appinfo.Source
	hooks   []Hook
	logger  *slog.Logger

	mu    sync.RWMutex
	state state

	startOnce sync.Once
	handshake *async.Future[bool]
	ctx       context.Context

	syncMu sync.Mutex
	wg     sync.WaitGroup
}

// New returns a gate that authenticates against backend with the metadata
// from meta. Start runs the handshake.
func New(backend Backend, meta appinfo.Source, opts ...Option) *Gate {
	g := &Gate{
		backend: backend,
		meta:    meta,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With(logger.Component("gate"))
	return g
}

// Start launches the handshake on first call and returns its join handle.
// Later calls return the same handle and ignore ctx. The handshake and any
// attribute sync it triggers run until ctx is cancelled.
func (g *Gate) Start(ctx context.Context) *async.Future[bool] {
	g.startOnce.Do(func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.ctx = ctx
		g.handshake = async.Go(ctx, g.authenticate)
	})
	return g.started()
}

// Wait blocks until the handshake has completed, successfully or not.
func (g *Gate) Wait(ctx context.Context) error {
	h := g.started()
	if h == nil {
		return ErrNotStarted
	}
	select {
	case <-h.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns why the handshake failed, or nil while running or on success.
func (g *Gate) Err() error {
	h := g.started()
	if h == nil || !h.IsComplete() {
		return nil
	}
	_, err := h.Await(context.Background())
	return err
}

func (g *Gate) started() *async.Future[bool] {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.handshake
}

func (g *Gate) authenticate(ctx context.Context) (bool, error) {
	meta := g.meta.Metadata()
	if !meta.HasURISchemes() {
		g.logger.ErrorContext(ctx, "no URI scheme declared, links cannot open the app")
		g.complete(false)
		return false, ErrURISchemesMissing
	}

	lastSeen, err := g.backend.DeviceLastSeen(ctx, meta.DeviceID)
	switch {
	case err == nil:
		g.mu.Lock()
		g.state.lastSeen = lastSeen
		g.mu.Unlock()
	case ctx.Err() != nil:
		g.complete(false)
		return false, ctx.Err()
	default:
		g.logger.DebugContext(ctx, "device not known to backend", logger.Error(err))
	}

	resp, err := g.backend.Authenticate(ctx, meta.Details())
	if err != nil {
		g.logger.ErrorContext(ctx, "authentication failed", logger.Error(err))
		g.complete(false)
		return false, err
	}

	g.mu.Lock()
	g.state.linksquaredID = resp.LinksquaredID
	g.state.hasServerIdentity = true
	pending := g.state.pendingAttributesUpdate
	if !pending {
		g.state.identifier = resp.SDKIdentifier
		g.state.attributes = resp.SDKAttributes
	}
	g.mu.Unlock()

	g.logger.InfoContext(ctx, "authenticated")

	if pending {
		g.syncInBackground()
	}

	for _, hook := range g.hooks {
		if err := hook(ctx); err != nil {
			g.logger.WarnContext(ctx, "post-authentication hook failed", logger.Error(err))
		}
	}

	g.complete(true)
	return true, nil
}

func (g *Gate) complete(ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.handshakeComplete = true
	if !ok {
		g.state.hasServerIdentity = false
	}
}

// HandshakeComplete reports whether the handshake has finished.
func (g *Gate) HandshakeComplete() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state.handshakeComplete
}

// HasServerIdentity reports whether the backend issued a session.
func (g *Gate) HasServerIdentity() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state.hasServerIdentity
}

// SessionID returns the backend session id, or "" before authentication.
func (g *Gate) SessionID() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state.linksquaredID
}

// LastSeen returns when the backend last saw the device before this launch.
func (g *Gate) LastSeen() (time.Time, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state.lastSeen, !g.state.lastSeen.IsZero()
}

// Identifier returns the user id, or nil.
func (g *Gate) Identifier() *string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return clonePtr(g.state.identifier)
}

// PushToken returns the push token, or nil.
func (g *Gate) PushToken() *string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return clonePtr(g.state.pushToken)
}

// Attributes returns a copy of the user attributes.
func (g *Gate) Attributes() map[string]any {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return maps.Clone(g.state.attributes)
}

// PendingAttributesUpdate reports whether host-set identity still has to
// reach the backend.
func (g *Gate) PendingAttributesUpdate() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state.pendingAttributesUpdate
}

// SetIdentifier sets the host's user identifier. Nil clears it.
func (g *Gate) SetIdentifier(id *string) {
	g.mu.Lock()
	g.state.identifier = clonePtr(id)
	g.mu.Unlock()
	g.identityChanged()
}

// SetPushToken sets the device's push token. Nil clears it.
func (g *Gate) SetPushToken(token *string) {
	g.mu.Lock()
	g.state.pushToken = clonePtr(token)
	g.mu.Unlock()
	g.identityChanged()
}

// SetAttributes replaces the host's user attributes.
func (g *Gate) SetAttributes(attrs map[string]any) {
	g.mu.Lock()
	g.state.attributes = maps.Clone(attrs)
	g.mu.Unlock()
	g.identityChanged()
}

func (g *Gate) identityChanged() {
	g.mu.Lock()
	g.state.pendingAttributesUpdate = true
	ready := g.state.hasServerIdentity
	g.mu.Unlock()

	if ready {
		g.syncInBackground()
	}
}

func (g *Gate) syncInBackground() {
	g.mu.RLock()
	ctx := g.ctx
	g.mu.RUnlock()
	if ctx == nil {
		return
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		if err := g.SyncAttributes(ctx); err != nil && !errors.Is(err, context.Canceled) {
			g.logger.WarnContext(ctx, "attribute sync failed", logger.Error(err))
		}
	}()
}

// SyncAttributes pushes the current identity to the backend and clears the
// pending flag on success. Syncs never overlap; each one reads the identity
// as it is when its request is built.
func (g *Gate) SyncAttributes(ctx context.Context) error {
	g.syncMu.Lock()
	defer g.syncMu.Unlock()

	g.mu.Lock()
	if !g.state.hasServerIdentity {
		g.mu.Unlock()
		return ErrNoSession
	}
	req := api.UpdateAttributesRequest{
		SDKIdentifier: clonePtr(g.state.identifier),
		SDKAttributes: maps.Clone(g.state.attributes),
		PushToken:     clonePtr(g.state.pushToken),
	}
	g.state.pendingAttributesUpdate = false
	g.mu.Unlock()

	if err := g.backend.UpdateAttributes(ctx, req); err != nil {
		g.mu.Lock()
		g.state.pendingAttributesUpdate = true
		g.mu.Unlock()
		return err
	}
	return nil
}

// Close waits for background attribute syncs. Cancel the context passed to
// Start first, or Close waits for their retries to succeed.
func (g *Gate) Close() {
	g.wg.Wait()
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
