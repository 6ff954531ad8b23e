// Package store wraps the Redis client behind the exact key-value protocol the
// engine depends on: plain reads, TTL-bound writes, atomic increment, atomic
// get-and-delete, and atomic compare-and-delete.
//
// # Atomicity
//
// Every operation is a single Redis command or a single Lua script. The engine
// never issues read-modify-write pairs as separate calls, so an abandoned
// request can never leave a half-applied update behind.
//
// # Failure classification
//
// Any transport or server error is wrapped in [ErrUnavailable] so callers can
// fail closed instead of mistaking a dependency outage for "not found" or
// "not blocked". A missing key is reported as [ErrNotFound], never as an
// availability failure.
//
// # What this package must NOT do
//
//   - Interpret record contents (codecs live in internal/stores).
//   - Implement retry or locking layers on top of Redis.
//   - Be imported outside the authcore module.
package store
