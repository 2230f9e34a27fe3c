package lane

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/linksquared/linksquared-go/pkg/logger"
)

// backlog is how many submitted tasks may wait before submitters block.
const backlog = 64

type task struct {
	ctx    context.Context
	fn     func(context.Context) error
	result chan error
}

// Lane runs submitted tasks one at a time in FIFO order.
type Lane struct {
	tasks     chan *task
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

// New starts a lane worker and returns the lane.
func New(opts ...Option) *Lane {
	o := &options{
		name:   "lane",
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	l := &Lane{
		tasks:   make(chan *task, backlog),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		logger:  o.logger.With(logger.Component("lane"), slog.String("lane", o.name)),
	}
	go l.run()
	return l
}

func (l *Lane) run() {
	defer close(l.stopped)
	for {
		// Accepted tasks run before done is observed.
		select {
		case t := <-l.tasks:
			l.exec(t)
			continue
		default:
		}

		select {
		case t := <-l.tasks:
			l.exec(t)
		case <-l.done:
			return
		}
	}
}

func (l *Lane) exec(t *task) {
	if err := t.ctx.Err(); err != nil {
		t.result <- err
		return
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", ErrPanic, r)
			l.logger.Error("task panicked", logger.Error(err))
			t.result <- err
		}
	}()

	t.result <- t.fn(t.ctx)
}

func (l *Lane) submit(ctx context.Context, fn func(context.Context) error) (*task, error) {
	t := &task{ctx: ctx, fn: fn, result: make(chan error, 1)}

	select {
	case <-l.done:
		return nil, ErrClosed
	default:
	}

	select {
	case l.tasks <- t:
		return t, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.done:
		return nil, ErrClosed
	}
}

// Do runs fn on the lane and waits for it to finish.
func (l *Lane) Do(ctx context.Context, fn func(context.Context) error) error {
	t, err := l.submit(ctx, fn)
	if err != nil {
		return err
	}

	select {
	case err := <-t.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		select {
		case err := <-t.result:
			return err
		default:
			return ErrClosed
		}
	}
}

// Go submits fn without waiting for it to run. A failing fn is logged.
func (l *Lane) Go(ctx context.Context, fn func(context.Context) error) error {
	_, err := l.submit(ctx, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			l.logger.WarnContext(ctx, "task failed", logger.Error(err))
			return err
		}
		return nil
	})
	return err
}

// Close stops accepting work and waits until every accepted task has run.
// Tasks whose context is already done are skipped.
func (l *Lane) Close() error {
	l.closeOnce.Do(func() { close(l.done) })
	<-l.stopped
	return nil
}

// Run executes fn on l and returns its value.
func Run[T any](ctx context.Context, l *Lane, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := l.Do(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
