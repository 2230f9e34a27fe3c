// Package notifications exposes the device's in-app notifications.
//
// A Manager wraps the backend's notification endpoints and hands
// notifications flagged for automatic display to a host Presenter:
//
//	m := notifications.NewManager(apiClient,
//	    notifications.WithPresenter(notifications.PresenterFunc(
//	        func(ctx context.Context, n notifications.Notification, dismissed func()) error {
//	            ui.Show(n, dismissed)
//	            return nil
//	        })),
//	    notifications.WithClosedListener(func(isLast bool) {
//	        if isLast {
//	            ui.Resume()
//	        }
//	    }),
//	)
//
//	shown, err := m.DisplayAutomatic(ctx)
//
// The presenter stands for the host's current foreground screen. It may be
// absent, in which case automatic display is skipped until SetPresenter
// provides one. A notification stays "showing" until the presenter calls
// the dismissed callback, so repeated DisplayAutomatic calls never present
// the same notification twice at once.
package notifications
