package kvstore

import "errors"

var (
	// ErrNotFound is returned by Get for keys that were never written.
	ErrNotFound = errors.New("kvstore: key not found")

	ErrUnknownDriver   = errors.New("kvstore: unknown storage driver")
	ErrEmptyDSN        = errors.New("kvstore: empty storage DSN")
	ErrInvalidTable    = errors.New("kvstore: invalid table name")
	ErrRedisNotReady   = errors.New("kvstore: redis did not become ready within the given time period")
	ErrInvalidRedisURL = errors.New("kvstore: failed to parse redis connection string")
	ErrCorruptFile     = errors.New("kvstore: store file is not a JSON object")
)
