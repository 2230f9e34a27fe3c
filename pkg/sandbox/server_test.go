package sandbox_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linksquared/linksquared-go/pkg/api"
	"github.com/linksquared/linksquared-go/pkg/api/apitest"
	"github.com/linksquared/linksquared-go/pkg/appinfo"
	"github.com/linksquared/linksquared-go/pkg/sandbox"
)

func start(t *testing.T, srv *sandbox.Server) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	select {
	case <-srv.Ready():
	case err := <-done:
		cancel()
		require.FailNow(t, "run returned early", "%v", err)
	case <-time.After(2 * time.Second):
		cancel()
		require.FailNow(t, "server did not start")
	}
	t.Cleanup(cancel)
	return cancel, done
}

func TestRunServesBackend(t *testing.T) {
	t.Parallel()
	srv := sandbox.New(apitest.New(), sandbox.WithAddr("127.0.0.1:0"))
	cancel, done := start(t, srv)

	assert.Contains(t, srv.URL(), "/api/v1/sdk/")

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ALIVE", string(body))

	client, err := api.New(srv.URL(), apitest.DefaultAPIKey)
	require.NoError(t, err)
	meta := appinfo.Metadata{Bundle: "io.example.app", DeviceID: "device-1", URISchemes: []string{"example"}}
	auth, err := client.Authenticate(context.Background(), meta.Details())
	require.NoError(t, err)
	assert.NotEmpty(t, auth.LinksquaredID)
	assert.Equal(t, 1, srv.Backend().Calls(api.EndpointAuthenticate))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		require.Fail(t, "run did not finish")
	}
}

func TestRunTwice(t *testing.T) {
	t.Parallel()
	srv := sandbox.New(apitest.New(), sandbox.WithAddr("127.0.0.1:0"))
	start(t, srv)

	assert.ErrorIs(t, srv.Run(context.Background()), sandbox.ErrRunning)
}

func TestRunListenFailure(t *testing.T) {
	t.Parallel()
	first := sandbox.New(apitest.New(), sandbox.WithAddr("127.0.0.1:0"))
	start(t, first)

	second := sandbox.New(apitest.New(), sandbox.WithAddr(first.Addr()))
	err := second.Run(context.Background())
	assert.ErrorIs(t, err, sandbox.ErrStart)
	assert.Empty(t, second.URL())
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()
	srv := sandbox.NewFromConfig(sandbox.Config{
		Addr:       "127.0.0.1:0",
		BasePath:   "/sdk/",
		APIKey:     "local-key",
		LinkDomain: "https://links.local/",
	})
	start(t, srv)
	assert.Contains(t, srv.URL(), "/sdk/")

	var session string
	client, err := api.New(srv.URL(), "local-key", api.WithSessionProvider(func() string { return session }))
	require.NoError(t, err)
	meta := appinfo.Metadata{Bundle: "io.example.app", DeviceID: "device-1", URISchemes: []string{"example"}}
	auth, err := client.Authenticate(context.Background(), meta.Details())
	require.NoError(t, err)
	session = auth.LinksquaredID

	link, err := client.GenerateLink(context.Background(), api.LinkParams{Title: "x"})
	require.NoError(t, err)
	assert.Contains(t, link, "https://links.local/")
}
