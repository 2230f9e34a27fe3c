package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linksquared/linksquared-go/pkg/api"
	"github.com/linksquared/linksquared-go/pkg/eventlog"
	"github.com/linksquared/linksquared-go/pkg/events"
	"github.com/linksquared/linksquared-go/pkg/kvstore"
	"github.com/linksquared/linksquared-go/pkg/localcache"
	"github.com/linksquared/linksquared-go/pkg/logger"
	"github.com/linksquared/linksquared-go/pkg/pipeline"
)

// fakeSender records submissions and rejects while failing is set.
type fakeSender struct {
	mu      sync.Mutex
	sent    []events.Event
	failing bool
	delay   time.Duration
	onSend  func(events.Event)
}

func (s *fakeSender) AddEvent(ctx context.Context, e events.Event) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.onSend != nil {
		s.onSend(e)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errors.New("backend unavailable")
	}
	s.sent = append(s.sent, e)
	return nil
}

func (s *fakeSender) setFailing(v bool) {
	s.mu.Lock()
	s.failing = v
	s.mu.Unlock()
}

func (s *fakeSender) Sent() []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.Event(nil), s.sent...)
}

func kinds(list []events.Event) []events.Kind {
	out := make([]events.Kind, len(list))
	for i, e := range list {
		out[i] = e.Kind
	}
	return out
}

// clock is a manually advanced time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	store    *kvstore.Memory
	log      *eventlog.Log
	cache    *localcache.Cache
	sender   *fakeSender
	clock    *clock
	sleeps   []time.Duration
	sleepsMu sync.Mutex
	lastSeen time.Time
	p        *pipeline.Pipeline
}

func newHarness(t *testing.T, store *kvstore.Memory) *harness {
	t.Helper()
	if store == nil {
		store = kvstore.NewMemory()
	}
	h := &harness{
		store:  store,
		sender: &fakeSender{},
		clock:  &clock{now: time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)},
	}
	h.log = eventlog.New(store, eventlog.WithLogger(logger.Discard()))
	t.Cleanup(func() { _ = h.log.Close() })
	h.cache = localcache.New(store)
	h.p = pipeline.New(h.log, h.cache, h.sender,
		pipeline.WithClock(h.clock.Now),
		pipeline.WithLogger(logger.Discard()),
		pipeline.WithSleeper(func(ctx context.Context, d time.Duration) error {
			h.sleepsMu.Lock()
			h.sleeps = append(h.sleeps, d)
			h.sleepsMu.Unlock()
			return ctx.Err()
		}),
		pipeline.WithLastSeen(func() (time.Time, bool) {
			return h.lastSeen, !h.lastSeen.IsZero()
		}),
	)
	return h
}

func (h *harness) queued(t *testing.T) []events.Event {
	t.Helper()
	list, err := h.log.List(context.Background())
	require.NoError(t, err)
	return list
}

func TestAppLaunchFirstInstall(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, nil)

	require.NoError(t, h.p.AppLaunch(ctx))

	assert.Equal(t, []events.Kind{events.Install, events.AppOpen}, kinds(h.queued(t)))
	opens, err := h.cache.NumberOfOpens(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, opens)
	start, ok, err := h.cache.LastStartTimestamp(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, h.clock.Now().Equal(start))
}

func TestAppLaunchReinstall(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.lastSeen = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, h.p.AppLaunch(context.Background()))
	assert.Equal(t, []events.Kind{events.Reinstall, events.AppOpen}, kinds(h.queued(t)))
}

func TestAppLaunchReactivation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name    string
		away    time.Duration
		wantRea bool
	}{
		{"six days", 6 * 24 * time.Hour, false},
		{"exactly seven days", 7 * 24 * time.Hour, true},
		{"eight days", 8 * 24 * time.Hour, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			require.NoError(t, h.p.AppLaunch(ctx))
			require.NoError(t, h.p.FlushNormal(ctx))
			require.Empty(t, h.queued(t))

			h.clock.Advance(tt.away)
			require.NoError(t, h.p.AppLaunch(ctx))

			want := []events.Kind{events.AppOpen}
			if tt.wantRea {
				want = []events.Kind{events.Reactivation, events.AppOpen}
			}
			assert.Equal(t, want, kinds(h.queued(t)))

			opens, err := h.cache.NumberOfOpens(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, opens)
		})
	}
}

func TestForegroundedFirstTime(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, nil)
	require.NoError(t, h.p.AppLaunch(ctx))

	require.NoError(t, h.p.Foregrounded(ctx, h.clock.Now()))

	assert.Equal(t, []events.Kind{events.Install, events.AppOpen}, kinds(h.sender.Sent()))
	queued := h.queued(t)
	require.Len(t, queued, 1)
	assert.Equal(t, events.TimeSpent, queued[0].Kind, "time spent waits for its session to close")
	assert.False(t, queued[0].HasEngagement())
}

func TestForegroundedClosesOutPreviousSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, nil)
	require.NoError(t, h.p.Foregrounded(ctx, h.clock.Now()))
	sessionStart := h.clock.Now()

	h.clock.Advance(90 * time.Second)
	require.NoError(t, h.p.Backgrounded(ctx, h.clock.Now()))
	h.clock.Advance(10 * time.Minute)

	require.NoError(t, h.p.Foregrounded(ctx, h.clock.Now()))

	sent := h.sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, events.TimeSpent, sent[0].Kind)
	assert.True(t, sent[0].CreatedAt.Equal(sessionStart))
	require.True(t, sent[0].HasEngagement())
	assert.Equal(t, 90, *sent[0].EngagementSeconds)

	queued := h.queued(t)
	require.Len(t, queued, 1)
	assert.Equal(t, events.TimeSpent, queued[0].Kind)
	assert.True(t, queued[0].CreatedAt.Equal(h.clock.Now()), "a new session starts")
}

func TestForegroundedFlushesEventsQueuedDuringCloseOut(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, nil)
	require.NoError(t, h.p.Foregrounded(ctx, h.clock.Now()))
	h.clock.Advance(time.Minute)
	require.NoError(t, h.p.Backgrounded(ctx, h.clock.Now()))
	h.clock.Advance(time.Minute)

	view := events.New(events.View, h.clock.Now())
	h.sender.onSend = func(e events.Event) {
		if e.Kind == events.TimeSpent {
			_, err := h.log.Append(ctx, view)
			assert.NoError(t, err)
		}
	}
	require.NoError(t, h.p.Foregrounded(ctx, h.clock.Now()))

	assert.Equal(t, []events.Kind{events.TimeSpent, events.View}, kinds(h.sender.Sent()))
	queued := h.queued(t)
	require.Len(t, queued, 1)
	assert.Equal(t, events.TimeSpent, queued[0].Kind)
}

func TestCloseOutTargetsMostRecentOpenSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, nil)
	h.sender.setFailing(true)

	older := events.New(events.TimeSpent, h.clock.Now().Add(-time.Hour))
	_, err := h.log.Append(ctx, older)
	require.NoError(t, err)
	recent := events.New(events.TimeSpent, h.clock.Now().Add(-time.Minute))
	_, err = h.log.Append(ctx, recent)
	require.NoError(t, err)

	require.NoError(t, h.cache.SetResignTimestamp(ctx, h.clock.Now()))
	require.NoError(t, h.p.Foregrounded(ctx, h.clock.Now()))

	queued := h.queued(t)
	require.Len(t, queued, 3)
	assert.False(t, queued[0].HasEngagement(), "older open session untouched")
	require.True(t, queued[1].HasEngagement())
	assert.Equal(t, 60, *queued[1].EngagementSeconds)
	assert.False(t, queued[2].HasEngagement())
}

func TestFailedSubmissionStaysQueued(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, nil)
	h.sender.setFailing(true)

	require.NoError(t, h.p.Log(ctx, events.New(events.View, h.clock.Now())))
	require.NoError(t, h.p.Log(ctx, events.New(events.Open, h.clock.Now())))

	assert.Len(t, h.queued(t), 2)
	h.sleepsMu.Lock()
	for _, d := range h.sleeps {
		assert.Equal(t, 5*time.Second, d)
	}
	assert.NotEmpty(t, h.sleeps)
	h.sleepsMu.Unlock()

	h.sender.setFailing(false)
	require.NoError(t, h.p.FlushNormal(ctx))
	assert.Empty(t, h.queued(t))
	assert.Equal(t, []events.Kind{events.View, events.Open}, kinds(h.sender.Sent()))
}

func TestBackoffCountsFailuresWithinPass(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, nil)
	h.sender.setFailing(true)

	var sleeps []time.Duration
	p := pipeline.New(h.log, h.cache, h.sender,
		pipeline.WithLogger(logger.Discard()),
		pipeline.WithBackoff(api.TieredBackoff{
			EagerAttempts:  2,
			EagerInterval:  time.Second,
			SteadyInterval: 10 * time.Second,
		}),
		pipeline.WithSleeper(func(ctx context.Context, d time.Duration) error {
			sleeps = append(sleeps, d)
			return ctx.Err()
		}),
	)

	for i := range 3 {
		_, err := h.log.Append(ctx, events.New(events.View, h.clock.Now().Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
	}
	require.NoError(t, p.FlushNormal(ctx))
	assert.Equal(t, []time.Duration{time.Second, time.Second, 10 * time.Second}, sleeps)

	sleeps = nil
	require.NoError(t, p.FlushNormal(ctx))
	require.NotEmpty(t, sleeps)
	assert.Equal(t, time.Second, sleeps[0], "each pass starts a new schedule")
	assert.Len(t, h.queued(t), 3)
}

func TestSetLinkStampsQueuedEventsBeforeSubmission(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, nil)
	h.sender.setFailing(true)

	for i := range 5 {
		require.NoError(t, h.p.Log(ctx, events.New(events.View, h.clock.Now().Add(time.Duration(i)*time.Second))))
	}
	require.Len(t, h.queued(t), 5)

	h.sender.setFailing(false)
	link := "https://sqd.link/campaign"
	require.NoError(t, h.p.SetLink(ctx, &link))

	sent := h.sender.Sent()
	require.Len(t, sent, 5)
	for _, e := range sent {
		require.True(t, e.HasLink())
		assert.Equal(t, link, *e.Link)
	}
}

func TestSetLinkKeepsExistingLinks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, nil)
	h.sender.setFailing(true)

	require.NoError(t, h.p.Log(ctx, events.New(events.View, h.clock.Now()).WithLink("https://sqd.link/own")))
	link := "https://sqd.link/new"
	require.NoError(t, h.p.SetLink(ctx, &link))

	queued := h.queued(t)
	require.Len(t, queued, 1)
	assert.Equal(t, "https://sqd.link/own", *queued[0].Link)
}

func TestLogUsesKnownLink(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, nil)

	assert.Nil(t, h.p.Link())
	require.NoError(t, h.p.SetLink(ctx, nil))
	assert.Nil(t, h.p.Link())

	link := "https://sqd.link/x"
	require.NoError(t, h.p.SetLink(ctx, &link))
	require.NoError(t, h.p.Log(ctx, events.New(events.Open, h.clock.Now())))

	sent := h.sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, link, *sent[0].Link)
	assert.Equal(t, link, *h.p.Link())
}

func TestSetLinkNilClearsAttribution(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, nil)

	old := "https://sqd.link/old"
	require.NoError(t, h.p.SetLink(ctx, &old))
	require.NoError(t, h.p.SetLink(ctx, nil))
	assert.Nil(t, h.p.Link())

	require.NoError(t, h.p.Queue(ctx, events.New(events.View, h.clock.Now())))
	queued := h.queued(t)
	require.Len(t, queued, 1)
	assert.False(t, queued[0].HasLink(), "events after an unlinked resolution carry no link")

	require.NoError(t, h.p.Log(ctx, events.New(events.Open, h.clock.Now().Add(time.Second))))
	sent := h.sender.Sent()
	require.Len(t, sent, 2)
	for _, e := range sent {
		assert.False(t, e.HasLink())
	}
}

func TestConcurrentFlushesSubmitOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, nil)
	h.sender.delay = 2 * time.Millisecond

	for i := range 10 {
		_, err := h.log.Append(ctx, events.New(events.View, h.clock.Now().Add(time.Duration(i)*time.Millisecond)))
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, h.p.FlushNormal(ctx))
		}()
	}
	wg.Wait()

	assert.Len(t, h.sender.Sent(), 10)
	assert.Empty(t, h.queued(t))
}

func TestFlushStopsOnCancel(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.sender.setFailing(true)

	_, err := h.log.Append(context.Background(), events.New(events.View, h.clock.Now()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, h.p.FlushNormal(ctx), context.Canceled)
}

func TestStateSurvivesRestart(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kvstore.NewMemory()

	first := newHarness(t, store)
	first.sender.setFailing(true)
	require.NoError(t, first.p.AppLaunch(ctx))
	require.NoError(t, first.p.FlushNormal(ctx))
	require.NoError(t, first.log.Close())

	second := newHarness(t, store)
	require.NoError(t, second.p.AppLaunch(ctx))
	require.NoError(t, second.p.FlushNormal(ctx))

	assert.Equal(t, []events.Kind{events.Install, events.AppOpen}, kinds(second.sender.Sent()),
		"the second launch shares a timestamp and kind with the first AppOpen, replacing it")
}

func TestQueueDoesNotSubmit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, nil)

	link := "https://sqd.link/q"
	require.NoError(t, h.p.SetLink(ctx, &link))
	require.NoError(t, h.p.Queue(ctx, events.New(events.View, h.clock.Now())))

	assert.Empty(t, h.sender.Sent())
	queued := h.queued(t)
	require.Len(t, queued, 1)
	assert.Equal(t, link, *queued[0].Link)
}
