// Package middleware exposes HTTP adapters over the authcore Engine: a bearer
// and cookie token guard, capability enforcement, double-submit CSRF checking
// for state-changing methods, an origin allowlist, and the cookie helpers for
// issuing and clearing token pairs.
//
// # Guards
//
//   - [Guard] validates the access token from the Authorization header or
//     the configured cookie and injects the result into the request context.
//   - [RequireCapability] layers under Guard and rejects callers whose role
//     does not reach the capability's minimum.
//   - [CSRF] applies double-submit verification to state-changing methods.
//   - [CORS] enforces an exact-match origin allowlist with preflight handling.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication or authorization logic itself.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access the session store (Engine handles I/O).
//   - Make security decisions beyond pass/reject from Engine methods.
package middleware
