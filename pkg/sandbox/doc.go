// Package sandbox serves the in-memory SDK backend over HTTP for local runs.
//
// The backend is mounted under a base path that mirrors the hosted API, so a
// client pointed at URL() behaves as it would against production:
//
//	backend := apitest.New()
//	srv := sandbox.New(backend, sandbox.WithAddr("127.0.0.1:0"))
//	go srv.Run(ctx)
//	<-srv.Ready()
//	client, _ := api.New(srv.URL(), apitest.DefaultAPIKey)
//
// Run blocks until ctx is cancelled and then shuts the server down within the
// shutdown timeout. Listen failures are wrapped with ErrStart and shutdown
// failures with ErrShutdown.
package sandbox
