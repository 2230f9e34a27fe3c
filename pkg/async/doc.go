// Package async provides a generic join handle for computations started in
// their own goroutine.
//
// A Future is obtained from Go, which runs the supplied function once and
// returns immediately. Any number of goroutines can then block on Await until
// the result is ready or their own context is done. Abandoning a wait never
// cancels the computation itself: only the context passed to Go does that.
//
// The SDK uses a Future for the authentication handshake, which must run
// exactly once while every gated operation waits for it.
//
// # Usage
//
//	handshake := async.Go(ctx, func(ctx context.Context) (bool, error) {
//	    return authenticate(ctx)
//	})
//
//	ok, err := handshake.Await(requestCtx)
//
// Panics inside the computation are recovered and reported as ErrPanic.
package async
