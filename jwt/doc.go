// Package jwt signs and verifies the access and refresh tokens issued by the
// engine. Tokens are self-contained: signature and expiry are checked locally
// with a configurable clock-skew leeway, and only revocation requires a store
// lookup (performed by the engine, not here).
//
// # Claims
//
// Both token kinds carry the principal id (sub), a unique token id (jti), and
// the rotation family id (fam). Access tokens additionally carry the role and
// verified flag so authorization never needs a user-store read. A typ claim
// pins each token to its kind: a refresh token can never pass access
// validation, and vice versa.
//
// # What this package must NOT do
//
//   - Perform I/O of any kind (no Redis, no key fetching).
//   - Track revocation or rotation state.
//   - Be aware of HTTP, cookies, or transport concerns.
package jwt
