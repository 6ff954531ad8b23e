package authcore

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/Rathodpruthvi45/authcore/rbac"
)

// Config is the engine's immutable configuration. It is validated once at
// [Builder.Build] (fail fast on malformed values) and never re-validated per
// request.
type Config struct {
	Tokens    TokenConfig
	RateLimit RateLimitConfig
	CSRF      CSRFConfig
	SingleUse SingleUseConfig
	Cookies   CookieConfig
	CORS      CORSConfig
	RBAC      RBACConfig
	Security  SecurityConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls signing and lifetimes for access/refresh pairs.
type TokenConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "ed25519" (default) or "hs256"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string

	// Leeway tolerates clock skew between processes on every expiry
	// comparison. A few seconds; capped at two minutes.
	Leeway time.Duration
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateKeying selects which counters an action maintains.
type RateKeying uint8

const (
	// RateKeyIdentifier counts per account identifier.
	RateKeyIdentifier RateKeying = iota
	// RateKeyIP counts per originating network address.
	RateKeyIP
	// RateKeyBoth maintains both counters; either one can block.
	RateKeyBoth
)

// RatePolicy is the fixed-window budget for one action.
type RatePolicy struct {
	MaxAttempts int
	Window      time.Duration
	Keying      RateKeying
}

// RateLimitConfig enumerates the budget per rate-limited action. Whether a
// counter follows the identifier, the address, or both is configuration, not
// a hard-coded policy.
type RateLimitConfig struct {
	Login             RatePolicy
	Refresh           RatePolicy
	PasswordReset     RatePolicy
	EmailVerification RatePolicy
}

/*
====================================
CSRF CONFIG
====================================
*/

// CSRFConfig controls the double-submit guard.
type CSRFConfig struct {
	// ValueBytes is the entropy of issued values before base64url encoding.
	ValueBytes int
}

/*
====================================
SINGLE-USE TOKEN CONFIG
====================================
*/

// SingleUseConfig controls email-verification and password-reset tokens.
type SingleUseConfig struct {
	VerificationTTL time.Duration
	ResetTTL        time.Duration
	// KeyPrefix namespaces single-use records in the store.
	KeyPrefix string
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig names the HTTP-boundary cookies. Exact names are
// configuration, not hard-coded. The access and refresh cookies are HTTP-only;
// the CSRF cookie must stay script-readable for double submission.
type CookieConfig struct {
	AccessName  string
	RefreshName string
	CSRFName    string
	Domain      string
	Path        string
	Secure      bool
	SameSite    string // "strict" (default), "lax", or "none"
}

/*
====================================
CORS CONFIG
====================================
*/

// CORSConfig is the origin allowlist consumed by middleware.CORS. Origins
// are validated at startup.
type CORSConfig struct {
	AllowedOrigins []string
}

/*
====================================
RBAC CONFIG
====================================
*/

// RBACConfig overrides the capability table. Empty means rbac.DefaultTable.
type RBACConfig struct {
	Capabilities map[rbac.Capability]rbac.Role
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig holds cross-cutting policy switches.
type SecurityConfig struct {
	// RequireVerifiedForLogin rejects logins from unverified accounts.
	RequireVerifiedForLogin bool
	// ResetLoginCounterOnSuccess clears the login budget after success.
	ResetLoginCounterOnSuccess bool
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls async audit dispatch.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process metric collection.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the baseline configuration. Signing keys are absent
// and must be supplied before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Tokens: TokenConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: "ed25519",
			Leeway:        5 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Login:             RatePolicy{MaxAttempts: 5, Window: 15 * time.Minute, Keying: RateKeyBoth},
			Refresh:           RatePolicy{MaxAttempts: 30, Window: time.Minute, Keying: RateKeyIdentifier},
			PasswordReset:     RatePolicy{MaxAttempts: 3, Window: time.Hour, Keying: RateKeyBoth},
			EmailVerification: RatePolicy{MaxAttempts: 3, Window: time.Hour, Keying: RateKeyBoth},
		},
		CSRF: CSRFConfig{
			ValueBytes: 32,
		},
		SingleUse: SingleUseConfig{
			VerificationTTL: 24 * time.Hour,
			ResetTTL:        time.Hour,
			KeyPrefix:       "sut",
		},
		Cookies: CookieConfig{
			AccessName:  "access_token",
			RefreshName: "refresh_token",
			CSRFName:    "csrf_token",
			Path:        "/",
			Secure:      true,
			SameSite:    "strict",
		},
		RBAC: RBACConfig{
			Capabilities: rbac.DefaultTable(),
		},
		Security: SecurityConfig{
			RequireVerifiedForLogin:    false,
			ResetLoginCounterOnSuccess: true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg

	if cfg.Tokens.PrivateKey != nil {
		out.Tokens.PrivateKey = append([]byte(nil), cfg.Tokens.PrivateKey...)
	}
	if cfg.Tokens.PublicKey != nil {
		out.Tokens.PublicKey = append([]byte(nil), cfg.Tokens.PublicKey...)
	}
	if cfg.CORS.AllowedOrigins != nil {
		out.CORS.AllowedOrigins = append([]string(nil), cfg.CORS.AllowedOrigins...)
	}
	if cfg.RBAC.Capabilities != nil {
		table := make(map[rbac.Capability]rbac.Role, len(cfg.RBAC.Capabilities))
		for capability, minimum := range cfg.RBAC.Capabilities {
			table[capability] = minimum
		}
		out.RBAC.Capabilities = table
	}

	return out
}

func validateConfig(cfg Config) error {
	if cfg.Tokens.AccessTTL <= 0 || cfg.Tokens.RefreshTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if cfg.Tokens.AccessTTL >= cfg.Tokens.RefreshTTL {
		return errors.New("access TTL must be shorter than refresh TTL")
	}
	if cfg.Tokens.Leeway < 0 || cfg.Tokens.Leeway > 2*time.Minute {
		return errors.New("token leeway out of range")
	}
	switch cfg.Tokens.SigningMethod {
	case "ed25519", "hs256":
	default:
		return fmt.Errorf("unsupported signing method %q", cfg.Tokens.SigningMethod)
	}
	if len(cfg.Tokens.PrivateKey) == 0 {
		return errors.New("signing key required")
	}

	for _, policy := range []struct {
		name string
		p    RatePolicy
	}{
		{"login", cfg.RateLimit.Login},
		{"refresh", cfg.RateLimit.Refresh},
		{"password_reset", cfg.RateLimit.PasswordReset},
		{"email_verification", cfg.RateLimit.EmailVerification},
	} {
		if policy.p.MaxAttempts <= 0 {
			return fmt.Errorf("rate policy %s: max attempts must be positive", policy.name)
		}
		if policy.p.Window <= 0 {
			return fmt.Errorf("rate policy %s: window must be positive", policy.name)
		}
		if policy.p.Keying > RateKeyBoth {
			return fmt.Errorf("rate policy %s: invalid keying", policy.name)
		}
	}

	if cfg.CSRF.ValueBytes != 0 && cfg.CSRF.ValueBytes < 16 {
		return errors.New("csrf value bytes below minimum")
	}

	if cfg.SingleUse.VerificationTTL <= 0 || cfg.SingleUse.ResetTTL <= 0 {
		return errors.New("single-use token TTLs must be positive")
	}

	if cfg.Cookies.AccessName == "" || cfg.Cookies.RefreshName == "" || cfg.Cookies.CSRFName == "" {
		return errors.New("cookie names must not be empty")
	}
	switch cfg.Cookies.SameSite {
	case "", "strict", "lax", "none":
	default:
		return fmt.Errorf("unsupported samesite mode %q", cfg.Cookies.SameSite)
	}

	for _, origin := range cfg.CORS.AllowedOrigins {
		u, err := url.Parse(origin)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || u.Path != "" {
			return fmt.Errorf("invalid CORS origin %q", origin)
		}
	}

	for capability, minimum := range cfg.RBAC.Capabilities {
		if capability == "" {
			return errors.New("empty capability in rbac table")
		}
		if minimum > rbac.RoleAdmin {
			return fmt.Errorf("capability %q: unknown minimum role", capability)
		}
	}

	return nil
}
