package apitest

import (
	"encoding/json"
	"net/http"
	"path"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/linksquared/linksquared-go/pkg/api"
	"github.com/linksquared/linksquared-go/pkg/events"
)

const (
	// DefaultAPIKey is accepted unless WithAPIKey says otherwise.
	DefaultAPIKey = "ls_test_key"
	// URIScheme is returned by authenticate.
	URIScheme = "linksquared"

	notificationsPageSize = 10
)

// Backend is an in-memory SDK backend.
type Backend struct {
	mu sync.Mutex

	apiKey     string
	linkDomain string
	now        func() time.Time

	sessions map[string]string // session id -> vendor id
	lastSeen map[string]time.Time
	deferred *api.DeeplinkDetails
	links    map[string]map[string]any

	sdkIdentifier *string
	sdkAttributes map[string]any

	calls      map[string]int
	headers    map[string]http.Header
	failures   map[string]int
	rejections map[string]string
	authHold   chan struct{}

	events        []events.Event
	attributes    []api.UpdateAttributesRequest
	created       []api.GenerateLinkRequest
	notifications []api.Notification
}

// Option configures a Backend.
type Option func(*Backend)

// WithAPIKey sets the project key the backend accepts. Test-environment keys
// carry a "test_" prefix and are accepted too.
func WithAPIKey(key string) Option {
	return func(b *Backend) { b.apiKey = key }
}

// WithLinkDomain sets the root of generated links.
func WithLinkDomain(domain string) Option {
	return func(b *Backend) { b.linkDomain = domain }
}

// WithLastSeen makes the backend remember vendorID as seen at t.
func WithLastSeen(vendorID string, t time.Time) Option {
	return func(b *Backend) { b.lastSeen[vendorID] = t }
}

// WithDeferredLink makes the next device payload lookup return link.
func WithDeferredLink(link string, data map[string]any) Option {
	return func(b *Backend) {
		b.deferred = &api.DeeplinkDetails{Link: &link, Data: data}
		b.links[link] = data
	}
}

// WithLink registers the payload of link.
func WithLink(link string, data map[string]any) Option {
	return func(b *Backend) { b.links[link] = data }
}

// WithServerIdentity sets the identity authenticate returns.
func WithServerIdentity(identifier *string, attributes map[string]any) Option {
	return func(b *Backend) {
		b.sdkIdentifier = identifier
		b.sdkAttributes = attributes
	}
}

// WithNotifications seeds the device's notifications.
func WithNotifications(ns ...api.Notification) Option {
	return func(b *Backend) { b.notifications = append(b.notifications, ns...) }
}

// WithClock sets the backend's notion of now.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		if now != nil {
			b.now = now
		}
	}
}

// New creates a backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		apiKey:     DefaultAPIKey,
		linkDomain: "https://sqd.link/",
		now:        time.Now,
		sessions:   make(map[string]string),
		lastSeen:   make(map[string]time.Time),
		links:      make(map[string]map[string]any),
		calls:      make(map[string]int),
		headers:    make(map[string]http.Header),
		failures:   make(map[string]int),
		rejections: make(map[string]string),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Handler returns the backend's routes.
func (b *Backend) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(b.record)
	r.Use(b.injectFailures)
	r.Use(b.requireProjectKey)

	r.Post("/"+api.EndpointAuthenticate, b.authenticate)
	r.Get("/"+api.EndpointDeviceForVendorID, b.deviceForVendorID)

	r.Group(func(r chi.Router) {
		r.Use(b.requireSession)
		r.Post("/"+api.EndpointDataForDevice, b.dataForDevice)
		r.Post("/"+api.EndpointDataForDeviceAndURL, b.dataForDeviceAndURL)
		r.Post("/"+api.EndpointCreateLink, b.createLink)
		r.Post("/"+api.EndpointEvent, b.event)
		r.Post("/"+api.EndpointVisitorAttributes, b.visitorAttributes)
		r.Post("/"+api.EndpointNotifications, b.listNotifications)
		r.Get("/"+api.EndpointUnreadNotifications, b.unreadNotifications)
		r.Post("/"+api.EndpointMarkNotificationRead, b.markNotificationRead)
		r.Get("/"+api.EndpointAutoDisplay, b.autoDisplayNotifications)
	})

	return r
}

// Fail makes the next n calls to endpoint answer 503 without a body.
func (b *Backend) Fail(endpoint string, n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[endpoint] = n
}

// Reject makes every call to endpoint answer 422 with message.
// An empty message clears the rejection.
func (b *Backend) Reject(endpoint, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if message == "" {
		delete(b.rejections, endpoint)
		return
	}
	b.rejections[endpoint] = message
}

// HoldAuthentication stalls authenticate calls until the returned func runs.
func (b *Backend) HoldAuthentication() (release func()) {
	hold := make(chan struct{})
	b.mu.Lock()
	b.authHold = hold
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			b.authHold = nil
			b.mu.Unlock()
			close(hold)
		})
	}
}

// SetLastSeen records vendorID as seen at t.
func (b *Backend) SetLastSeen(vendorID string, t time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastSeen[vendorID] = t
}

// Calls returns how many requests reached endpoint.
func (b *Backend) Calls(endpoint string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[endpoint]
}

// LastHeader returns the headers of the latest request to endpoint.
func (b *Backend) LastHeader(endpoint string) http.Header {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.headers[endpoint].Clone()
}

// Events returns the accepted events in arrival order.
func (b *Backend) Events() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.events)
}

// EventKinds returns the kinds of the accepted events in arrival order.
func (b *Backend) EventKinds() []events.Kind {
	b.mu.Lock()
	defer b.mu.Unlock()
	kinds := make([]events.Kind, len(b.events))
	for i, e := range b.events {
		kinds[i] = e.Kind
	}
	return kinds
}

// AttributeUpdates returns the accepted attribute pushes.
func (b *Backend) AttributeUpdates() []api.UpdateAttributesRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.attributes)
}

// CreatedLinks returns the accepted link creation requests.
func (b *Backend) CreatedLinks() []api.GenerateLinkRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.created)
}

// Notifications returns the current notification state.
func (b *Backend) Notifications() []api.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.notifications)
}

func endpointOf(r *http.Request) string {
	return path.Base(r.URL.Path)
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ep := endpointOf(r)
		b.mu.Lock()
		b.calls[ep]++
		b.headers[ep] = r.Header.Clone()
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ep := endpointOf(r)
		b.mu.Lock()
		fail := b.failures[ep] > 0
		if fail {
			b.failures[ep]--
		}
		msg, rejected := b.rejections[ep]
		b.mu.Unlock()

		switch {
		case fail:
			w.WriteHeader(http.StatusServiceUnavailable)
		case rejected:
			writeError(w, http.StatusUnprocessableEntity, msg)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func (b *Backend) requireProjectKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(api.HeaderProjectKey)
		if key == "" || (key != b.apiKey && key != "test_"+b.apiKey) {
			writeError(w, http.StatusUnauthorized, "invalid project key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		_, ok := b.sessions[r.Header.Get(api.HeaderSession)]
		b.mu.Unlock()
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.ErrorMessage{Error: msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}
