package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/linksquared/linksquared-go/pkg/logger"
)

// Backend is the part of the api client the manager uses.
type Backend interface {
	Notifications(ctx context.Context, page int) ([]Notification, error)
	UnreadNotificationCount(ctx context.Context) (int, error)
	MarkNotificationRead(ctx context.Context, id int) error
	AutoDisplayNotifications(ctx context.Context) ([]Notification, error)
}

// Manager lists notifications and drives their automatic display.
type Manager struct {
	backend Backend
	logger  *slog.Logger

	mu        sync.Mutex
	presenter Presenter
	onClosed  ClosedListener
	showing   map[int]struct{}
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithPresenter sets the presenter used for automatic display.
func WithPresenter(p Presenter) ManagerOption {
	return func(m *Manager) {
		m.presenter = p
	}
}

// WithClosedListener sets the listener told when automatic display ends.
func WithClosedListener(fn ClosedListener) ManagerOption {
	return func(m *Manager) {
		m.onClosed = fn
	}
}

// WithLogger sets the logger for the Manager.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager returns a manager over backend.
func NewManager(backend Backend, opts ...ManagerOption) *Manager {
	m := &Manager{
		backend: backend,
		logger:  slog.Default(),
		showing: make(map[int]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(logger.Component("notifications"))
	return m
}

// List returns one page of notifications, newest first as sent by the backend.
func (m *Manager) List(ctx context.Context, page int) ([]Notification, error) {
	if page < 1 {
		page = 1
	}
	list, err := m.backend.Notifications(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("notifications: list page %d: %w", page, err)
	}
	return list, nil
}

// UnreadCount returns the number of unread notifications.
func (m *Manager) UnreadCount(ctx context.Context) (int, error) {
	n, err := m.backend.UnreadNotificationCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("notifications: unread count: %w", err)
	}
	return n, nil
}

// MarkRead marks notification id as read.
func (m *Manager) MarkRead(ctx context.Context, id int) error {
	if err := m.backend.MarkNotificationRead(ctx, id); err != nil {
		return fmt.Errorf("notifications: mark %d read: %w", id, err)
	}
	return nil
}

// SetPresenter replaces the presenter. nil means no screen is available.
func (m *Manager) SetPresenter(p Presenter) {
	m.mu.Lock()
	m.presenter = p
	m.mu.Unlock()
}

// SetClosedListener replaces the closed listener. Nil removes it.
func (m *Manager) SetClosedListener(fn ClosedListener) {
	m.mu.Lock()
	m.onClosed = fn
	m.mu.Unlock()
}

// DisplayAutomatic fetches the notifications flagged for automatic display
// and presents those not already showing. It returns how many were
// presented. Without a presenter the backend is not asked.
func (m *Manager) DisplayAutomatic(ctx context.Context) (int, error) {
	if m.currentPresenter() == nil {
		m.logger.DebugContext(ctx, "no presenter, skipping automatic notifications")
		return 0, nil
	}

	list, err := m.backend.AutoDisplayNotifications(ctx)
	if err != nil {
		return 0, fmt.Errorf("notifications: fetch automatic: %w", err)
	}

	shown := 0
	for _, n := range list {
		p := m.currentPresenter()
		if p == nil {
			break
		}
		if !m.claim(n.ID) {
			continue
		}

		var once sync.Once
		dismissed := func() { once.Do(func() { m.Dismiss(n.ID) }) }
		if err := p.Present(ctx, n, dismissed); err != nil {
			m.release(n.ID)
			m.logger.WarnContext(ctx, "failed to present notification",
				slog.Int("notification_id", n.ID),
				logger.Error(err),
			)
			continue
		}
		shown++
	}
	return shown, nil
}

// Dismiss marks the notification with id as closed and notifies the closed
// listener. Unknown ids are ignored.
func (m *Manager) Dismiss(id int) {
	m.mu.Lock()
	if _, ok := m.showing[id]; !ok {
		m.mu.Unlock()
		return
	}
	delete(m.showing, id)
	isLast := len(m.showing) == 0
	fn := m.onClosed
	m.mu.Unlock()

	if fn != nil {
		fn(isLast)
	}
}

// Showing returns the ids of notifications currently on screen.
func (m *Manager) Showing() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int, 0, len(m.showing))
	for id := range m.showing {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (m *Manager) currentPresenter() Presenter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.presenter
}

func (m *Manager) claim(id int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.showing[id]; ok {
		return false
	}
	m.showing[id] = struct{}{}
	return true
}

func (m *Manager) release(id int) {
	m.mu.Lock()
	delete(m.showing, id)
	m.mu.Unlock()
}
