// Package eventlog is the durable outbox of analytics events.
//
// The log is an ordered list of events, unique by identity, persisted as one
// JSON document under a single storage key. Every operation reads the stored
// document, applies its change and writes it back on the log's lane, so no
// two read-modify-write cycles ever interleave.
//
// Storage problems never reach the caller: a document that cannot be decoded
// is treated as an empty log, and a failed write is logged while the caller
// still receives the updated contents. Only context cancellation is returned.
package eventlog
