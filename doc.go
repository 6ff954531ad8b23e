// Package authcore is an authentication and session-security core: it issues,
// validates, rotates, and revokes signed token pairs; enforces Redis-backed
// rate limits; protects state-changing requests with double-submit CSRF
// values; and manages single-use tokens for email verification and password
// reset.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build]. The engine holds no process-wide mutable state beyond
// configuration and injected dependencies; all cross-request coordination
// happens through the store's atomic primitives, so multiple processes can
// share one Redis instance.
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (TokenPair, AuthResult, Decision). Subsystems live in
// subpackages (jwt, rbac, csrf, password, middleware); internal coordination
// (store access, rate limiting, token family state, audit dispatch) lives
// under internal/ and is never exported.
//
// # What this package must NOT do
//
//   - Route HTTP requests or parse request bodies (middleware helps at the
//     boundary; routing stays with the caller).
//   - Persist principals: account storage is behind [PrincipalStore].
//   - Deliver email: outbound mail is behind [Mailer].
//
// # Failure policy
//
// Rate limiting and revocation fail closed: a store outage surfaces as
// [ErrStoreUnavailable] and the request is rejected, never silently treated
// as "not blocked" or "not revoked".
package authcore
