package async_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linksquared/linksquared-go/pkg/async"
)

func TestGo(t *testing.T) {
	t.Parallel()

	t.Run("returns result", func(t *testing.T) {
		t.Parallel()
		f := async.Go(context.Background(), func(context.Context) (int, error) {
			return 42, nil
		})

		v, err := f.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 42, v)
		assert.True(t, f.IsComplete())
	})

	t.Run("returns error", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		f := async.Go(context.Background(), func(context.Context) (string, error) {
			return "", boom
		})

		_, err := f.Await(context.Background())
		assert.ErrorIs(t, err, boom)
	})

	t.Run("pre-cancelled context skips computation", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var called atomic.Bool
		f := async.Go(ctx, func(context.Context) (int, error) {
			called.Store(true)
			return 1, nil
		})

		_, err := f.Await(context.Background())
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called.Load())
	})

	t.Run("recovers panic", func(t *testing.T) {
		t.Parallel()
		f := async.Go(context.Background(), func(context.Context) (int, error) {
			panic("bad")
		})

		_, err := f.Await(context.Background())
		assert.ErrorIs(t, err, async.ErrPanic)
	})
}

func TestFutureAwaitManyWaiters(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	var runs atomic.Int32
	f := async.Go(context.Background(), func(context.Context) (bool, error) {
		runs.Add(1)
		<-release
		return true, nil
	})

	var wg sync.WaitGroup
	results := make([]bool, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := f.Await(context.Background())
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	assert.False(t, f.IsComplete())
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), runs.Load())
	for _, v := range results {
		assert.True(t, v)
	}
}

func TestFutureAwaitContextDone(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)
	f := async.Go(context.Background(), func(context.Context) (int, error) {
		<-release
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, f.IsComplete())
}

func TestResolved(t *testing.T) {
	t.Parallel()

	f := async.Resolved("done", nil)
	assert.True(t, f.IsComplete())

	v, err := f.Await(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "done", v)

	select {
	case <-f.Done():
	default:
		t.Fatal("done channel should be closed")
	}
}
