// Package csrf implements the stateless double-submit pattern: the same
// random value travels as a script-readable cookie and as a request header or
// form field, and a state-changing request passes only when the two copies
// are byte-equal. No server-side storage is involved; the authority comes
// from the browser's same-origin cookie rules.
//
// # What this package must NOT do
//
//   - Persist anything (the pattern is stateless by definition).
//   - Decide which routes need protection (the middleware owns that).
//   - Compare values with anything other than a constant-time primitive.
package csrf
