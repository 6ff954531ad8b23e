package rate

import (
	"context"
	"errors"
	"time"

	"github.com/Rathodpruthvi45/authcore/internal/store"
)

// ErrUnknownAction reports a Check against an action with no configured policy.
var ErrUnknownAction = errors.New("rate: unknown action")

// Action names a rate-limited operation class.
type Action string

const (
	ActionLogin             Action = "login"
	ActionRefresh           Action = "refresh"
	ActionPasswordReset     Action = "password_reset"
	ActionEmailVerification Action = "email_verification"
)

// Keying selects which counters an action maintains. The spec leaves the
// identifier-vs-address choice open, so it is policy data, not code.
type Keying uint8

const (
	// KeyIdentifier counts per account identifier.
	KeyIdentifier Keying = iota
	// KeyIP counts per originating network address.
	KeyIP
	// KeyBoth maintains both counters; either one can block.
	KeyBoth
)

// Policy is the configured budget for one action.
type Policy struct {
	MaxAttempts int
	Window      time.Duration
	Keying      Keying
}

// Decision is the outcome of a single Check call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter enforces fixed-window budgets for a set of actions against the
// shared store. It holds no mutable state beyond its policy table.
type Limiter struct {
	store    *store.Store
	policies map[Action]Policy
}

// New creates a Limiter with the given policy table.
func New(st *store.Store, policies map[Action]Policy) *Limiter {
	table := make(map[Action]Policy, len(policies))
	for action, p := range policies {
		table[action] = p
	}
	return &Limiter{store: st, policies: table}
}

// Check atomically consumes one attempt from every counter the action's
// keying selects and returns the combined decision. The first blocked counter
// wins; its remaining window becomes the retry-after hint. Store failures
// propagate wrapped in store.ErrUnavailable so callers fail closed.
func (l *Limiter) Check(ctx context.Context, action Action, identifier, ip string) (Decision, error) {
	policy, ok := l.policies[action]
	if !ok {
		return Decision{}, ErrUnknownAction
	}

	decision := Decision{Allowed: true, Remaining: policy.MaxAttempts}
	for _, key := range l.keys(action, policy, identifier, ip) {
		count, remainingWindow, err := l.store.IncrementWithTTL(ctx, key, policy.Window)
		if err != nil {
			return Decision{}, err
		}

		if count > int64(policy.MaxAttempts) {
			return Decision{
				Allowed:    false,
				Remaining:  0,
				RetryAfter: remainingWindow,
			}, nil
		}

		if left := policy.MaxAttempts - int(count); left < decision.Remaining {
			decision.Remaining = left
		}
	}

	return decision, nil
}

// Reset clears the action's counters for the identifier+address pair.
// Called after a successful login so honest users do not inherit the
// budget consumed by their own typos.
func (l *Limiter) Reset(ctx context.Context, action Action, identifier, ip string) error {
	policy, ok := l.policies[action]
	if !ok {
		return ErrUnknownAction
	}
	return l.store.Delete(ctx, l.keys(action, policy, identifier, ip)...)
}

func (l *Limiter) keys(action Action, policy Policy, identifier, ip string) []string {
	keys := make([]string, 0, 2)
	switch policy.Keying {
	case KeyIdentifier:
		if identifier != "" {
			keys = append(keys, identifierKey(action, identifier))
		}
	case KeyIP:
		if ip != "" {
			keys = append(keys, ipKey(action, ip))
		}
	case KeyBoth:
		if identifier != "" {
			keys = append(keys, identifierKey(action, identifier))
		}
		if ip != "" {
			keys = append(keys, ipKey(action, ip))
		}
	}
	return keys
}

func identifierKey(action Action, identifier string) string {
	return "rl:" + string(action) + ":id:" + identifier
}

func ipKey(action Action, ip string) string {
	return "rl:" + string(action) + ":ip:" + ip
}
