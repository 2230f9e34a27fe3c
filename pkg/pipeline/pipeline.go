package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/linksquared/linksquared-go/pkg/api"
	"github.com/linksquared/linksquared-go/pkg/eventlog"
	"github.com/linksquared/linksquared-go/pkg/events"
	"github.com/linksquared/linksquared-go/pkg/localcache"
	"github.com/linksquared/linksquared-go/pkg/logger"
)

// Sender submits one event to the backend.
type Sender interface {
	AddEvent(ctx context.Context, e events.Event) error
}

// Pipeline records lifecycle events and flushes the outbox.
type Pipeline struct {
	log    *eventlog.Log
	cache  *localcache.Cache
	sender Sender

	now               func() time.Time
	sleep             api.Sleeper
	backoff           api.BackoffStrategy
	reactivationAfter time.Duration
	lastSeen          func() (time.Time, bool)
	logger            *slog.Logger

	linkMu sync.RWMutex
	link   *string

	normalMu    sync.Mutex
	timeSpentMu sync.Mutex
}

// New returns a pipeline that queues into log, keeps launch counters in
// cache and submits through sender.
func New(log *eventlog.Log, cache *localcache.Cache, sender Sender, opts ...Option) *Pipeline {
	p := &Pipeline{
		log:               log,
		cache:             cache,
		sender:            sender,
		now:               time.Now,
		sleep:             api.Sleep,
		backoff:           api.FixedBackoff{Interval: 5 * time.Second},
		reactivationAfter: 7 * 24 * time.Hour,
		lastSeen:          func() (time.Time, bool) { return time.Time{}, false },
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(logger.Component("pipeline"))
	return p
}

// AppLaunch queues the events of an app launch: Install or Reinstall on the
// first launch, Reactivation after a long absence, then AppOpen.
func (p *Pipeline) AppLaunch(ctx context.Context) error {
	now := p.now()

	opens, err := p.cache.NumberOfOpens(ctx)
	if err != nil {
		p.logger.WarnContext(ctx, "failed to read open count", logger.Error(err))
	}
	if opens == 0 {
		kind := events.Install
		if _, seen := p.lastSeen(); seen {
			kind = events.Reinstall
		}
		if err := p.add(ctx, events.New(kind, now)); err != nil {
			return err
		}
	}

	lastStart, ok, err := p.cache.LastStartTimestamp(ctx)
	if err != nil {
		p.logger.WarnContext(ctx, "failed to read last start", logger.Error(err))
	}
	if ok && now.Sub(lastStart) >= p.reactivationAfter {
		if err := p.add(ctx, events.New(events.Reactivation, now)); err != nil {
			return err
		}
	}

	if err := p.add(ctx, events.New(events.AppOpen, now)); err != nil {
		return err
	}

	if err := p.cache.SetNumberOfOpens(ctx, opens+1); err != nil {
		p.logger.ErrorContext(ctx, "failed to store open count", logger.Error(err))
	}
	if err := p.cache.SetLastStartTimestamp(ctx, now); err != nil {
		p.logger.ErrorContext(ctx, "failed to store last start", logger.Error(err))
	}
	return nil
}

// Foregrounded flushes queued events and, when the app is returning from the
// background, closes out the previous session's TimeSpent event and submits
// it. It then starts a new TimeSpent event dated at and flushes once more.
func (p *Pipeline) Foregrounded(ctx context.Context, at time.Time) error {
	resignedAt, resigned, err := p.cache.ResignTimestamp(ctx)
	if err != nil {
		p.logger.WarnContext(ctx, "failed to read resign timestamp", logger.Error(err))
	}

	if err := p.FlushNormal(ctx); err != nil {
		return err
	}

	if resigned {
		if err := p.closeOutTimeSpent(ctx, resignedAt); err != nil {
			return err
		}
		if err := p.FlushTimeSpent(ctx); err != nil {
			return err
		}
	}

	if err := p.add(ctx, events.New(events.TimeSpent, at)); err != nil {
		return err
	}
	return p.FlushNormal(ctx)
}

// Backgrounded records at as the moment the app left the foreground.
func (p *Pipeline) Backgrounded(ctx context.Context, at time.Time) error {
	return p.cache.SetResignTimestamp(ctx, at)
}

// Queue stores e for the next flush, attributing it to the known link when
// it has none.
func (p *Pipeline) Queue(ctx context.Context, e events.Event) error {
	if !e.HasLink() {
		if link := p.Link(); link != nil {
			e = e.WithLink(*link)
		}
	}
	return p.add(ctx, e)
}

// Log queues e and flushes.
func (p *Pipeline) Log(ctx context.Context, e events.Event) error {
	if err := p.Queue(ctx, e); err != nil {
		return err
	}
	return p.FlushNormal(ctx)
}

// SetLink records the link that opened the app and attributes later events
// to it. A nil link clears the attribution. A non-nil link is also stamped
// onto every queued event that has none. Either way the queue is flushed.
func (p *Pipeline) SetLink(ctx context.Context, link *string) error {
	var l *string
	if link != nil {
		v := *link
		l = &v
	}
	p.linkMu.Lock()
	p.link = l
	p.linkMu.Unlock()

	if l != nil {
		if _, err := p.log.ReplaceAll(ctx, func(e events.Event) events.Event {
			if e.HasLink() {
				return e
			}
			return e.WithLink(*l)
		}); err != nil {
			return err
		}
	}
	return p.FlushNormal(ctx)
}

// Link returns the link later events are attributed to, if known.
func (p *Pipeline) Link() *string {
	p.linkMu.RLock()
	defer p.linkMu.RUnlock()
	if p.link == nil {
		return nil
	}
	l := *p.link
	return &l
}

// FlushNormal submits every queued event except TimeSpent.
func (p *Pipeline) FlushNormal(ctx context.Context) error {
	p.normalMu.Lock()
	defer p.normalMu.Unlock()
	return p.flush(ctx, func(e events.Event) bool { return e.Kind != events.TimeSpent })
}

// FlushTimeSpent submits every queued TimeSpent event.
func (p *Pipeline) FlushTimeSpent(ctx context.Context) error {
	p.timeSpentMu.Lock()
	defer p.timeSpentMu.Unlock()
	return p.flush(ctx, func(e events.Event) bool { return e.Kind == events.TimeSpent })
}

// flush submits the matching events of one snapshot in order. A rejected
// event stays queued and the pass pauses before moving on; the pause follows
// the backoff strategy, counting rejections within the pass.
func (p *Pipeline) flush(ctx context.Context, match func(events.Event) bool) error {
	snapshot, err := p.log.List(ctx)
	if err != nil {
		return err
	}

	failures := 0
	for _, e := range snapshot {
		if !match(e) {
			continue
		}

		if err := p.sender.AddEvent(ctx, e); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.InfoContext(ctx, "event not delivered, keeping it queued",
				logger.EventKind(e.Kind.String()),
				logger.Error(err),
			)
			failures++
			if err := p.sleep(ctx, p.backoff.NextInterval(failures)); err != nil {
				return err
			}
			continue
		}

		if _, err := p.log.Remove(ctx, e); err != nil {
			return err
		}
		p.logger.DebugContext(ctx, "event delivered",
			logger.EventKind(e.Kind.String()),
			logger.Link(e.Link),
		)
	}
	return nil
}

// closeOutTimeSpent sets the engagement time of the most recent open
// TimeSpent event to the seconds between its start and resignedAt.
func (p *Pipeline) closeOutTimeSpent(ctx context.Context, resignedAt time.Time) error {
	list, err := p.log.List(ctx)
	if err != nil {
		return err
	}

	var target *events.Event
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Kind == events.TimeSpent && !list[i].HasEngagement() {
			target = &list[i]
			break
		}
	}
	if target == nil {
		return nil
	}

	seconds := int(resignedAt.Sub(target.CreatedAt) / time.Second)
	if seconds <= 0 {
		return nil
	}

	_, err = p.log.ReplaceAll(ctx, func(e events.Event) events.Event {
		if e.Same(*target) && !e.HasEngagement() {
			return e.WithEngagement(seconds)
		}
		return e
	})
	return err
}

func (p *Pipeline) add(ctx context.Context, e events.Event) error {
	if _, err := p.log.Append(ctx, e); err != nil {
		return err
	}
	p.logger.DebugContext(ctx, "event queued", logger.EventKind(e.Kind.String()))
	return nil
}
