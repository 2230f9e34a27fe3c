package notifications

import "context"

// Presenter shows a notification to the user. dismissed must be called once
// the user closes it; calling it more than once is harmless.
type Presenter interface {
	Present(ctx context.Context, n Notification, dismissed func()) error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(ctx context.Context, n Notification, dismissed func()) error

// Present calls f.
func (f PresenterFunc) Present(ctx context.Context, n Notification, dismissed func()) error {
	return f(ctx, n, dismissed)
}

// NoOpPresenter accepts every notification and never shows anything.
// The notification counts as showing until its id is dismissed.
type NoOpPresenter struct{}

func (NoOpPresenter) Present(context.Context, Notification, func()) error {
	return nil
}

// ClosedListener learns that an automatically displayed notification was
// dismissed. isLast reports whether none remain on screen.
type ClosedListener func(isLast bool)
