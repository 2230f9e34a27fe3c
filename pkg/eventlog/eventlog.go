package eventlog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/linksquared/linksquared-go/pkg/events"
	"github.com/linksquared/linksquared-go/pkg/kvstore"
	"github.com/linksquared/linksquared-go/pkg/lane"
	"github.com/linksquared/linksquared-go/pkg/logger"
)

// Log is the persisted, identity-unique event outbox.
type Log struct {
	store  kvstore.Store
	lane   *lane.Lane
	key    string
	logger *slog.Logger
}

// New returns a log backed by store. Close releases its lane.
func New(store kvstore.Store, opts ...Option) *Log {
	l := &Log{
		store:  store,
		key:    DefaultKey,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With(logger.Component("eventlog"))
	l.lane = lane.New(lane.WithName("eventlog"), lane.WithLogger(l.logger))
	return l
}

// Append inserts e, or replaces the stored event with the same identity in
// place. It returns the log contents after the change.
func (l *Log) Append(ctx context.Context, e events.Event) ([]events.Event, error) {
	return lane.Run(ctx, l.lane, func(ctx context.Context) ([]events.Event, error) {
		list := l.load(ctx)
		replaced := false
		for i := range list {
			if list[i].Same(e) {
				list[i] = e
				replaced = true
				break
			}
		}
		if !replaced {
			list = append(list, e)
		}
		l.save(ctx, list)
		return list, nil
	})
}

// ReplaceAll applies fn to every stored event and persists the results.
// fn must preserve the identity of the event it is given.
func (l *Log) ReplaceAll(ctx context.Context, fn func(events.Event) events.Event) ([]events.Event, error) {
	return lane.Run(ctx, l.lane, func(ctx context.Context) ([]events.Event, error) {
		list := l.load(ctx)
		if len(list) == 0 {
			return list, nil
		}
		for i := range list {
			list[i] = fn(list[i])
		}
		l.save(ctx, list)
		return list, nil
	})
}

// Remove deletes the event with e's identity. Removing an absent event is a
// no-op and writes nothing.
func (l *Log) Remove(ctx context.Context, e events.Event) ([]events.Event, error) {
	return lane.Run(ctx, l.lane, func(ctx context.Context) ([]events.Event, error) {
		list := l.load(ctx)
		kept := list[:0]
		for _, stored := range list {
			if !stored.Same(e) {
				kept = append(kept, stored)
			}
		}
		if len(kept) == len(list) {
			return kept, nil
		}
		l.save(ctx, kept)
		return kept, nil
	})
}

// List returns the stored events in insertion order.
func (l *Log) List(ctx context.Context) ([]events.Event, error) {
	return lane.Run(ctx, l.lane, func(ctx context.Context) ([]events.Event, error) {
		return l.load(ctx), nil
	})
}

// Close waits for pending operations and stops the log's lane.
func (l *Log) Close() error {
	return l.lane.Close()
}

func (l *Log) load(ctx context.Context) []events.Event {
	raw, err := l.store.Get(ctx, l.key)
	if errors.Is(err, kvstore.ErrNotFound) || raw == "" {
		return []events.Event{}
	}
	if err != nil {
		l.logger.WarnContext(ctx, "failed to read event log, starting empty", logger.Error(err))
		return []events.Event{}
	}

	var list []events.Event
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		l.logger.WarnContext(ctx, "stored event log is unreadable, starting empty", logger.Error(err))
		return []events.Event{}
	}
	if list == nil {
		list = []events.Event{}
	}
	return list
}

func (l *Log) save(ctx context.Context, list []events.Event) {
	raw, err := json.Marshal(list)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to encode event log", logger.Error(err))
		return
	}
	if err := l.store.Put(ctx, l.key, string(raw)); err != nil {
		l.logger.ErrorContext(ctx, "failed to persist event log",
			logger.Error(err),
			logger.Count(len(list)),
		)
	}
}
