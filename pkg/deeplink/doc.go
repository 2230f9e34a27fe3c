// Package deeplink resolves the link that opened the app.
//
// A Resolver takes the intent the host received on launch (or on a later
// redelivery) and asks the backend for the payload behind it. The link is
// taken from the intent URI when present, otherwise from the install
// referrer's linksquared_link parameter. With neither, the backend is asked
// whether it holds a deferred link for this device.
//
// Intents are compared by pointer. Handing the same *Intent over twice means
// the host redelivered it, so its URI is not used a second time:
//
//	intent := deeplink.NewIntent("https://sqd.link/abc")
//	details, err := resolver.Handle(ctx, intent) // resolves the URI
//	details, err = resolver.Handle(ctx, intent)  // asks for a deferred link
//
// Every resolution tells the Linker about the chosen link before and after
// the backend call so that queued analytics events are attributed to it.
package deeplink
