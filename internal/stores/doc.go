// Package stores holds the Redis record layers behind the token service:
// the single-use token records (email verification, password reset) and the
// refresh-token family registry.
//
// # Record encoding
//
// Single-use records use a compact versioned binary codec (version byte,
// purpose byte, expiry, principal id) rather than JSON, so a corrupted or
// truncated blob is rejected deterministically.
//
// # Atomicity
//
// Redemption is GETDEL: the record is removed before it is inspected, so two
// concurrent redemptions of the same token can never both succeed. Rotation
// of a refresh id is compare-and-delete on the current-id key: at most one
// concurrent caller wins.
//
// # What this package must NOT do
//
//   - Apply rate limits or issue tokens (the engine owns orchestration).
//   - Be imported outside the authcore module.
package stores
