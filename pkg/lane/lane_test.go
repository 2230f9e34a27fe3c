package lane_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linksquared/linksquared-go/pkg/lane"
	"github.com/linksquared/linksquared-go/pkg/logger"
)

func newLane(t *testing.T) *lane.Lane {
	t.Helper()
	l := lane.New(lane.WithName(t.Name()), lane.WithLogger(logger.Discard()))
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestDoRunsInSubmissionOrder(t *testing.T) {
	t.Parallel()
	l := newLane(t)

	var (
		mu    sync.Mutex
		order []int
	)
	block := make(chan struct{})
	// Hold the worker so the following tasks queue up behind it.
	require.NoError(t, l.Go(context.Background(), func(context.Context) error {
		<-block
		return nil
	}))

	for i := range 20 {
		require.NoError(t, l.Go(context.Background(), func(context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		}))
	}
	close(block)

	require.NoError(t, l.Do(context.Background(), func(context.Context) error { return nil }))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 20)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestDoNeverOverlaps(t *testing.T) {
	t.Parallel()
	l := newLane(t)

	var active, peak atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Do(context.Background(), func(context.Context) error {
				n := active.Add(1)
				if n > peak.Load() {
					peak.Store(n)
				}
				time.Sleep(time.Millisecond)
				active.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), peak.Load())
}

func TestDoReturnsTaskError(t *testing.T) {
	t.Parallel()
	l := newLane(t)

	boom := errors.New("boom")
	err := l.Do(context.Background(), func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestDoRecoversPanic(t *testing.T) {
	t.Parallel()
	l := newLane(t)

	err := l.Do(context.Background(), func(context.Context) error { panic("bad") })
	assert.ErrorIs(t, err, lane.ErrPanic)

	// The worker survives.
	assert.NoError(t, l.Do(context.Background(), func(context.Context) error { return nil }))
}

func TestDoContextCancelledWhileQueued(t *testing.T) {
	t.Parallel()
	l := newLane(t)

	block := make(chan struct{})
	require.NoError(t, l.Go(context.Background(), func(context.Context) error {
		<-block
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	var ran atomic.Bool
	errCh := make(chan error, 1)
	go func() {
		errCh <- l.Do(ctx, func(context.Context) error {
			ran.Store(true)
			return nil
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	close(block)
	require.NoError(t, l.Do(context.Background(), func(context.Context) error { return nil }))
	assert.False(t, ran.Load(), "task with cancelled context must be skipped")
}

func TestRun(t *testing.T) {
	t.Parallel()
	l := newLane(t)

	v, err := lane.Run(context.Background(), l, func(context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)

	_, err = lane.Run(context.Background(), l, func(context.Context) (int, error) {
		return 0, errors.New("nope")
	})
	assert.EqualError(t, err, "nope")
}

func TestClose(t *testing.T) {
	t.Parallel()
	l := lane.New(lane.WithLogger(logger.Discard()))

	var ran atomic.Int32
	for range 5 {
		require.NoError(t, l.Go(context.Background(), func(context.Context) error {
			ran.Add(1)
			return nil
		}))
	}

	require.NoError(t, l.Close())
	assert.Equal(t, int32(5), ran.Load(), "accepted tasks run before close returns")

	err := l.Do(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, lane.ErrClosed)
	assert.NoError(t, l.Close(), "close is idempotent")
}
