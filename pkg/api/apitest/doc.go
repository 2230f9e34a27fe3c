// Package apitest provides an in-memory Linksquared SDK backend.
//
// Backend implements every endpoint the api client calls, records what it
// receives and can be told to fail or stall specific endpoints. Tests mount
// its Handler on an httptest.Server; the CLI serves it for local runs.
//
//	backend := apitest.New(apitest.WithDeferredLink("https://sqd.link/promo", map[string]any{"screen": "promo"}))
//	srv := httptest.NewServer(backend.Handler())
//	defer srv.Close()
//
//	client, _ := api.New(srv.URL, apitest.DefaultAPIKey)
package apitest
