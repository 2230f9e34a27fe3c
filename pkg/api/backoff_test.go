package api_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/linksquared/linksquared-go/pkg/api"
)

func TestTieredBackoff(t *testing.T) {
	t.Parallel()
	b := api.DefaultBackoffStrategy()

	assert.Equal(t, 5*time.Second, b.NextInterval(1))
	assert.Equal(t, 5*time.Second, b.NextInterval(15))
	assert.Equal(t, 60*time.Second, b.NextInterval(16))
	assert.Equal(t, 60*time.Second, b.NextInterval(1000))
}

func TestFixedBackoff(t *testing.T) {
	t.Parallel()
	b := api.FixedBackoff{Interval: time.Second}
	assert.Equal(t, time.Second, b.NextInterval(1))
	assert.Equal(t, time.Second, b.NextInterval(99))
}

func TestSleep(t *testing.T) {
	t.Parallel()

	assert.NoError(t, api.Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, api.Sleep(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, api.Sleep(ctx, 0), context.Canceled)
}
