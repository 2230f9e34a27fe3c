package localcache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/linksquared/linksquared-go/pkg/kvstore"
)

// Storage keys.
const (
	KeyNumberOfOpens      = "linksquared_number_of_opens"
	KeyResignTimestamp    = "linksquared_resign_timestamp"
	KeyLastStartTimestamp = "linksquared_last_start_timestamp"
)

// Cache reads and writes the counters in a kvstore.Store.
// Missing or unparseable values read as zero or absent.
type Cache struct {
	store kvstore.Store
}

// New returns a cache over store.
func New(store kvstore.Store) *Cache {
	return &Cache{store: store}
}

// NumberOfOpens returns how many launches were recorded. It is 0 when none were.
func (c *Cache) NumberOfOpens(ctx context.Context) (int, error) {
	raw, err := c.get(ctx, KeyNumberOfOpens)
	if err != nil || raw == "" {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, nil
	}
	return n, nil
}

// SetNumberOfOpens stores the launch count.
func (c *Cache) SetNumberOfOpens(ctx context.Context, n int) error {
	return c.store.Put(ctx, KeyNumberOfOpens, strconv.Itoa(n))
}

// ResignTimestamp is the last time the app went to the background.
func (c *Cache) ResignTimestamp(ctx context.Context) (time.Time, bool, error) {
	return c.timestamp(ctx, KeyResignTimestamp)
}

// SetResignTimestamp stores when the app last left the foreground.
func (c *Cache) SetResignTimestamp(ctx context.Context, t time.Time) error {
	return c.setTimestamp(ctx, KeyResignTimestamp, t)
}

// LastStartTimestamp is the last time the app launched.
func (c *Cache) LastStartTimestamp(ctx context.Context) (time.Time, bool, error) {
	return c.timestamp(ctx, KeyLastStartTimestamp)
}

// SetLastStartTimestamp stores when the app last started.
func (c *Cache) SetLastStartTimestamp(ctx context.Context, t time.Time) error {
	return c.setTimestamp(ctx, KeyLastStartTimestamp, t)
}

func (c *Cache) get(ctx context.Context, key string) (string, error) {
	raw, err := c.store.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", nil
	}
	return raw, err
}

func (c *Cache) timestamp(ctx context.Context, key string) (time.Time, bool, error) {
	raw, err := c.get(ctx, key)
	if err != nil || raw == "" {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, nil
	}
	return t, true, nil
}

func (c *Cache) setTimestamp(ctx context.Context, key string, t time.Time) error {
	return c.store.Put(ctx, key, t.UTC().Format(time.RFC3339Nano))
}
