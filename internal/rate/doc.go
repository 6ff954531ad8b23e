// Package rate provides the Redis-backed fixed-window rate limiter consulted
// before every abusable operation (login, refresh, verification and reset
// requests).
//
// # Window semantics
//
// Fixed-window counters: one Lua round trip performs INCR, arms PEXPIRE on
// the first hit of the window, and reads PTTL, so increment-and-compare is
// indivisible with respect to concurrent callers on the same key. Counters
// reset through native key expiry; there is no cleanup pass. Key layout:
//
//	rl:<action>:id:<identifier> — per-identifier counter
//	rl:<action>:ip:<address>    — per-address counter
//
// # Failure policy
//
// A Redis failure surfaces as store.ErrUnavailable and the engine fails
// closed. The limiter never converts an outage into an Allowed decision.
//
// # What this package must NOT do
//
//   - Decide which policy applies to which endpoint (that is configuration).
//   - Be imported outside the authcore module.
package rate
