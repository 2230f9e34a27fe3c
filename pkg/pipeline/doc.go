// Package pipeline turns app lifecycle transitions into analytics events and
// drains the event outbox to the backend.
//
// The pipeline writes every event to the eventlog before trying to send it,
// and removes it only after the backend accepted it, so a crash or failed
// request never loses an event. Flushes walk a snapshot of the log. TimeSpent
// events and all other kinds are flushed in separate passes because a
// TimeSpent event is only complete once its session has been closed out with
// an engagement time.
//
// Once the link that opened the app is known, every queued event without a
// link is attributed to it, and so is every event logged afterwards.
package pipeline
