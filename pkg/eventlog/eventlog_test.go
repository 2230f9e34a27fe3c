package eventlog_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linksquared/linksquared-go/pkg/eventlog"
	"github.com/linksquared/linksquared-go/pkg/events"
	"github.com/linksquared/linksquared-go/pkg/kvstore"
	"github.com/linksquared/linksquared-go/pkg/logger"
)

// countingStore counts writes and can be told to fail them.
type countingStore struct {
	*kvstore.Memory
	puts     atomic.Int32
	failPuts atomic.Bool
}

func (s *countingStore) Put(ctx context.Context, key, value string) error {
	s.puts.Add(1)
	if s.failPuts.Load() {
		return errors.New("disk full")
	}
	return s.Memory.Put(ctx, key, value)
}

func newLog(t *testing.T, store kvstore.Store) *eventlog.Log {
	t.Helper()
	l := eventlog.New(store, eventlog.WithLogger(logger.Discard()))
	t.Cleanup(func() { _ = l.Close() })
	return l
}

var base = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func TestAppendKeepsInsertionOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l := newLog(t, kvstore.NewMemory())

	_, err := l.Append(ctx, events.New(events.Install, base))
	require.NoError(t, err)
	_, err = l.Append(ctx, events.New(events.AppOpen, base))
	require.NoError(t, err)
	_, err = l.Append(ctx, events.New(events.View, base.Add(time.Second)))
	require.NoError(t, err)

	list, err := l.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, events.Install, list[0].Kind)
	assert.Equal(t, events.AppOpen, list[1].Kind)
	assert.Equal(t, events.View, list[2].Kind)
}

func TestAppendReplacesByIdentity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l := newLog(t, kvstore.NewMemory())

	e := events.New(events.TimeSpent, base)
	_, err := l.Append(ctx, e)
	require.NoError(t, err)
	_, err = l.Append(ctx, events.New(events.AppOpen, base))
	require.NoError(t, err)

	list, err := l.Append(ctx, e.WithEngagement(30))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, events.TimeSpent, list[0].Kind, "replaced in place")
	require.True(t, list[0].HasEngagement())
	assert.Equal(t, 30, *list[0].EngagementSeconds)
}

func TestRemoveIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := &countingStore{Memory: kvstore.NewMemory()}
	l := newLog(t, store)

	e := events.New(events.View, base)
	_, err := l.Append(ctx, e)
	require.NoError(t, err)
	_, err = l.Append(ctx, events.New(events.Open, base))
	require.NoError(t, err)

	list, err := l.Remove(ctx, e)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, events.Open, list[0].Kind)

	writes := store.puts.Load()
	list, err = l.Remove(ctx, e)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, writes, store.puts.Load(), "removing an absent event writes nothing")
}

func TestReplaceAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l := newLog(t, kvstore.NewMemory())

	for i := range 3 {
		_, err := l.Append(ctx, events.New(events.View, base.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
	}

	list, err := l.ReplaceAll(ctx, func(e events.Event) events.Event {
		if e.HasLink() {
			return e
		}
		return e.WithLink("https://sqd.link/L")
	})
	require.NoError(t, err)
	require.Len(t, list, 3)

	stored, err := l.List(ctx)
	require.NoError(t, err)
	for _, e := range stored {
		require.True(t, e.HasLink())
		assert.Equal(t, "https://sqd.link/L", *e.Link)
	}
}

func TestPersistsAcrossInstances(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kvstore.NewMemory()

	first := newLog(t, store)
	_, err := first.Append(ctx, events.New(events.Install, base))
	require.NoError(t, err)

	second := newLog(t, store)
	list, err := second.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Same(events.New(events.Install, base)))
}

func TestUnreadableBlobIsEmpty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kvstore.NewMemory()
	require.NoError(t, store.Put(ctx, eventlog.DefaultKey, "{not json"))

	l := newLog(t, store)
	list, err := l.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = l.Append(ctx, events.New(events.AppOpen, base))
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestFailedWriteStillReturnsContents(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := &countingStore{Memory: kvstore.NewMemory()}
	store.failPuts.Store(true)
	l := newLog(t, store)

	list, err := l.Append(ctx, events.New(events.AppOpen, base))
	require.NoError(t, err)
	assert.Len(t, list, 1)

	stored, err := l.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored, "nothing reached storage")
}

func TestConcurrentAppendsAreSerialized(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l := newLog(t, kvstore.NewMemory())

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Append(ctx, events.New(events.View, base.Add(time.Duration(i)*time.Millisecond)))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := l.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 50, "no append lost to an interleaved write")
}

func TestCustomKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kvstore.NewMemory()
	l := eventlog.New(store, eventlog.WithKey("other"), eventlog.WithLogger(logger.Discard()))
	defer l.Close()

	_, err := l.Append(ctx, events.New(events.View, base))
	require.NoError(t, err)

	_, err = store.Get(ctx, "other")
	require.NoError(t, err)
	_, err = store.Get(ctx, eventlog.DefaultKey)
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}
