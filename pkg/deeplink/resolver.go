package deeplink

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/linksquared/linksquared-go/pkg/api"
	"github.com/linksquared/linksquared-go/pkg/appinfo"
	"github.com/linksquared/linksquared-go/pkg/logger"
)

// Intent is what the host was launched or resumed with. Identity matters:
// a redelivered intent is the same pointer.
type Intent struct {
	URI string
}

// NewIntent returns an intent for uri. An empty uri means none.
func NewIntent(uri string) *Intent {
	return &Intent{URI: uri}
}

// Backend is the part of the api client the resolver uses.
type Backend interface {
	PayloadForDevice(ctx context.Context, details api.AppDetails) (api.DeeplinkDetails, error)
	PayloadWithLink(ctx context.Context, details api.AppDetails) (api.DeeplinkDetails, error)
}

// Linker receives the link later events are attributed to.
type Linker interface {
	SetLink(ctx context.Context, link *string) error
}

// Resolver turns intents into deeplink payloads.
type Resolver struct {
	backend  Backend
	linker   Linker
	meta     appinfo.Source
	referrer ReferrerSource
	logger   *slog.Logger

	mu          sync.Mutex
	lastHandled *Intent
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithReferrer sets the install referrer consulted for intents without a URI.
func WithReferrer(src ReferrerSource) Option {
	return func(r *Resolver) {
		r.referrer = src
	}
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver returns a resolver that fetches payloads from backend and
// registers the chosen link with linker.
func NewResolver(backend Backend, linker Linker, meta appinfo.Source, opts ...Option) *Resolver {
	r := &Resolver{
		backend: backend,
		linker:  linker,
		meta:    meta,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(logger.Component("deeplink"))
	return r
}

// Handle resolves the payload for intent. A nil intent, or one already
// handled, is resolved without an explicit link.
func (r *Resolver) Handle(ctx context.Context, intent *Intent) (api.DeeplinkDetails, error) {
	if intent != nil && r.markHandled(intent) {
		if intent.URI != "" {
			link := intent.URI
			return r.Resolve(ctx, &link)
		}
		if link := r.referrerLink(ctx); link != nil {
			return r.Resolve(ctx, link)
		}
	} else if intent != nil {
		r.logger.InfoContext(ctx, "intent already handled, looking up a deferred link")
	}
	return r.Resolve(ctx, nil)
}

// markHandled records intent and reports whether it is new.
func (r *Resolver) markHandled(intent *Intent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastHandled == intent {
		return false
	}
	r.lastHandled = intent
	return true
}

func (r *Resolver) referrerLink(ctx context.Context) *string {
	if r.referrer == nil {
		return nil
	}
	ref, err := r.referrer.InstallReferrer(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "install referrer unavailable", logger.Error(err))
		return nil
	}
	link, ok := DecodeReferrer(ref)[ReferrerKey]
	if !ok || link == "" {
		return nil
	}
	return &link
}

// Resolve asks the backend for the payload of link, or for a deferred
// payload when link is nil. The linker learns link before the call and the
// resolved link after it.
func (r *Resolver) Resolve(ctx context.Context, link *string) (api.DeeplinkDetails, error) {
	r.setLink(ctx, link)

	details := r.meta.Metadata().Details()
	var (
		result api.DeeplinkDetails
		err    error
	)
	if link != nil {
		result, err = r.backend.PayloadWithLink(ctx, details.WithURL(*link))
	} else {
		result, err = r.backend.PayloadForDevice(ctx, details)
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to resolve deeplink", logger.Link(link), logger.Error(err))
		return api.DeeplinkDetails{}, fmt.Errorf("%w: %w", ErrResolve, err)
	}

	r.setLink(ctx, result.Link)
	if result.Link == nil {
		r.logger.InfoContext(ctx, "app was not opened from a link")
	} else {
		r.logger.DebugContext(ctx, "deeplink resolved", logger.Link(result.Link))
	}
	return result, nil
}

func (r *Resolver) setLink(ctx context.Context, link *string) {
	if r.linker == nil {
		return
	}
	if err := r.linker.SetLink(ctx, link); err != nil {
		r.logger.WarnContext(ctx, "failed to attribute events to link", logger.Link(link), logger.Error(err))
	}
}
