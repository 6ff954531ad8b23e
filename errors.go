package authcore

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials reports a failed password verification or an
	// unknown identifier; the two are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountUnverified reports a login attempt against an account that
	// has not completed email verification while verification is required.
	ErrAccountUnverified = errors.New("account unverified")
	// ErrTokenMalformed reports a structurally invalid token or signature
	// mismatch. Never retried.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenExpired reports a token past its lifetime; the caller may
	// re-authenticate.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenRevoked reports a token whose id or family carries a
	// revocation marker.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrRefreshReuse reports presentation of a retired refresh token id.
	// The whole family is revoked as a side effect.
	ErrRefreshReuse = errors.New("refresh token reuse detected")
	// ErrRateLimited reports an exhausted attempt budget. Returned values
	// are *RateLimitedError carrying the retry-after hint.
	ErrRateLimited = errors.New("rate limited")
	// ErrCSRFRejected reports a missing or mismatched double-submit pair.
	ErrCSRFRejected = errors.New("csrf rejected")
	// ErrPermissionDenied reports a role below a capability's minimum.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrSingleUseInvalid covers every single-use redemption failure
	// (unknown, expired, already used, wrong purpose). The cases are
	// deliberately presented identically so redemption cannot be used as a
	// token-guessing oracle; audit events carry the internal kind.
	ErrSingleUseInvalid = errors.New("single-use token invalid")
	// ErrPrincipalNotFound reports an unknown principal id on an internal
	// operation (never on login, which reports ErrInvalidCredentials).
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrStoreUnavailable reports a session-store dependency failure. The
	// affected operation was rejected (fail closed), and operators can
	// distinguish "attack blocked" from "dependency down".
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrEngineNotReady reports use of an Engine that was not built.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// RateLimitedError is the concrete error returned for exhausted budgets.
// errors.Is(err, ErrRateLimited) matches it.
type RateLimitedError struct {
	Action     string
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s rate limited, retry after %s", e.Action, e.RetryAfter)
}

// Is makes RateLimitedError match ErrRateLimited.
func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}
