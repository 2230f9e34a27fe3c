// Package events defines the analytics event record the SDK queues and
// submits, together with its wire encoding.
//
// An Event is identified by its kind and creation time. New truncates the
// creation time to milliseconds, the precision of the wire format, so an
// event read back from storage keeps the identity it was written with.
package events
