package deeplink_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linksquared/linksquared-go/pkg/deeplink"
)

func TestDecodeReferrer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		referrer string
		want     map[string]string
	}{
		{"empty", "", map[string]string{}},
		{"single", "a=b", map[string]string{"a": "b"}},
		{
			"encoded",
			"utm_source=google%20play&linksquared_link=https%3A%2F%2Fsqd.link%2Fx%3Fa%3D1",
			map[string]string{"utm_source": "google play", "linksquared_link": "https://sqd.link/x?a=1"},
		},
		{"plus is space", "q=a+b", map[string]string{"q": "a b"}},
		{"empty value", "a=", map[string]string{"a": ""}},
		{"skips pair without value", "a&b=c", map[string]string{"b": "c"}},
		{"skips pair with extra equals", "a=b=c&d=e", map[string]string{"d": "e"}},
		{"skips bad escape", "a=%zz&b=c", map[string]string{"b": "c"}},
		{"skips empty key", "=x&b=c", map[string]string{"b": "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, deeplink.DecodeReferrer(tt.referrer))
		})
	}
}

type fakeConnection struct {
	mu       sync.Mutex
	status   *deeplink.ReferrerStatus
	referrer string
	err      error
	ended    int
}

func (c *fakeConnection) Start(done func(deeplink.ReferrerStatus)) {
	if c.status == nil {
		return
	}
	go func() {
		done(*c.status)
		done(deeplink.ReferrerDisconnected)
	}()
}

func (c *fakeConnection) Referrer() (string, error) { return c.referrer, c.err }

func (c *fakeConnection) End() {
	c.mu.Lock()
	c.ended++
	c.mu.Unlock()
}

func (c *fakeConnection) Ended() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ended
}

func status(s deeplink.ReferrerStatus) *deeplink.ReferrerStatus { return &s }

func TestFetchReferrer(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		conn := &fakeConnection{status: status(deeplink.ReferrerOK), referrer: "a=b"}
		ref, err := deeplink.FetchReferrer(context.Background(), conn)
		require.NoError(t, err)
		assert.Equal(t, "a=b", ref)
		assert.Equal(t, 1, conn.Ended())
	})

	t.Run("unsupported", func(t *testing.T) {
		t.Parallel()
		conn := &fakeConnection{status: status(deeplink.ReferrerNotSupported), referrer: "a=b"}
		ref, err := deeplink.FetchReferrer(context.Background(), conn)
		require.NoError(t, err)
		assert.Empty(t, ref)
		assert.Equal(t, 1, conn.Ended())
	})

	t.Run("read failure", func(t *testing.T) {
		t.Parallel()
		conn := &fakeConnection{status: status(deeplink.ReferrerOK), err: errors.New("remote exception")}
		_, err := deeplink.FetchReferrer(context.Background(), conn)
		assert.ErrorIs(t, err, deeplink.ErrReferrerUnavailable)
		assert.Equal(t, 1, conn.Ended())
	})

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()
		conn := &fakeConnection{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := deeplink.FetchReferrer(ctx, conn)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, conn.Ended())
	})
}

func TestConnectionSource(t *testing.T) {
	t.Parallel()
	var opened []*fakeConnection
	src := deeplink.ConnectionSource(func() deeplink.ReferrerConnection {
		c := &fakeConnection{status: status(deeplink.ReferrerOK), referrer: "linksquared_link=x"}
		opened = append(opened, c)
		return c
	})

	for range 2 {
		ref, err := src.InstallReferrer(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "linksquared_link=x", ref)
	}
	require.Len(t, opened, 2)
	for _, c := range opened {
		assert.Equal(t, 1, c.Ended())
	}
}

func TestReferrerStatusString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "ok", deeplink.ReferrerOK.String())
	assert.Equal(t, "service_unavailable", deeplink.ReferrerServiceUnavailable.String())
	assert.Equal(t, "status(42)", deeplink.ReferrerStatus(42).String())
}
