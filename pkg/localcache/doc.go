// Package localcache keeps the small device-local counters that drive
// lifecycle events: how many times the app was opened, when it last went to
// the background and when it last started.
//
// Values live in a kvstore.Store under fixed keys, so they survive restarts
// with whatever driver the client was configured with:
//
//	cache := localcache.New(store)
//	opens, err := cache.NumberOfOpens(ctx)
//
// Missing or unparseable values read as zero or absent.
package localcache
