// Package kvstore defines the durable key/value storage the SDK persists its
// state into, with adapters for the backends a host is likely to have.
//
// Store is deliberately small: string keys, string values, Get reports
// ErrNotFound for keys never written. Every adapter writes through before Put
// returns, so a value survives a process restart once Put has succeeded.
//
// Adapters:
//
//   - NewMemory: process-local map, for tests and ephemeral sessions.
//   - OpenFile: one JSON document on disk, replaced atomically on every write.
//   - OpenSQLite: a single-table SQLite database.
//   - NewRedis / ConnectRedis: keys under a prefix in Redis.
//   - NewPostgres / ConnectPostgres: a key/value table in PostgreSQL.
//
// Open picks an adapter from a Config, which is how the SDK builds its store
// from LINKSQUARED_STORAGE_* environment variables.
package kvstore
