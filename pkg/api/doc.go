// Package api is the typed client for the Linksquared SDK backend.
//
// Each backend operation is a method on Client that builds one request,
// attaches the SDK header set and decodes a typed response. Requests differ
// only in their retry mode:
//
//   - Indefinite operations (authentication, attribute sync, payload lookups,
//     notifications) retry transport failures, unexpected statuses and
//     missing bodies until they succeed, the server answers with a readable
//     {"error": "..."} body, or the context is cancelled.
//   - Single-attempt operations (GenerateLink, AddEvent) report the first
//     failure to the caller, which owns the retry decision.
//
// The wait before retry k comes from a BackoffStrategy. The default
// TieredBackoff waits 5s for the first fifteen retries and 60s afterwards.
//
// A readable error body becomes a *ServerError, which matches
// ErrServerRejected with errors.Is.
//
//	client, err := api.New(api.DefaultBaseURL, apiKey,
//	    api.WithApplicationID("com.example.app"),
//	    api.WithSessionProvider(gate.SessionID),
//	)
//	resp, err := client.Authenticate(ctx, details)
package api
