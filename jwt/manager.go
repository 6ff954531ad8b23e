package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the signature algorithm for issued tokens.
type SigningMethod string

const (
	// MethodEd25519 signs with an Ed25519 key pair.
	MethodEd25519 SigningMethod = "ed25519"
	// MethodHS256 signs with a shared HMAC secret.
	MethodHS256 SigningMethod = "hs256"
)

// TokenKind is the value of the typ claim.
type TokenKind string

const (
	// KindAccess marks short-lived per-request tokens.
	KindAccess TokenKind = "access"
	// KindRefresh marks long-lived rotation tokens.
	KindRefresh TokenKind = "refresh"
)

var (
	// ErrTokenMalformed reports a structurally invalid token, a signature
	// mismatch, or a kind mismatch. Never retried.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenExpired reports a token past its expiry (leeway applied).
	ErrTokenExpired = errors.New("token expired")
)

// Config holds the immutable signing configuration.
type Config struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string

	// Leeway is applied to every expiry comparison to tolerate clock skew
	// between issuing and validating processes.
	Leeway time.Duration

	// MaxFutureIAT rejects tokens whose issued-at lies implausibly far in
	// the future; defaults to 10 minutes.
	MaxFutureIAT time.Duration
}

// Claims is the claim set shared by access and refresh tokens.
type Claims struct {
	Kind     TokenKind `json:"typ"`
	Role     string    `json:"role,omitempty"`
	Verified bool      `json:"vrf,omitempty"`
	FamilyID string    `json:"fam"`
	jwt.RegisteredClaims
}

// Manager signs and parses tokens. Safe for concurrent use after creation.
type Manager struct {
	config Config
}

// NewManager validates cfg and returns a Manager. Validation fails fast on
// malformed keys, absent TTLs, or an out-of-range leeway.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.AccessTTL >= cfg.RefreshTTL {
		return nil, errors.New("access TTL must be shorter than refresh TTL")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}

	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) < 32 {
			return nil, errors.New("hs256 requires a secret of at least 32 bytes")
		}
	case MethodEd25519:
		if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
			return nil, err
		}
		if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("unsupported signing method")
	}

	return &Manager{config: cfg}, nil
}

// CreateAccess mints a signed access token.
func (m *Manager) CreateAccess(principalID, role string, verified bool, jti, familyID string, now time.Time) (string, error) {
	return m.create(Claims{
		Kind:             KindAccess,
		Role:             role,
		Verified:         verified,
		FamilyID:         familyID,
		RegisteredClaims: m.registered(principalID, jti, now, m.config.AccessTTL),
	})
}

// CreateRefresh mints a signed refresh token. Refresh tokens carry no role:
// they authorize exactly one thing, minting the next pair.
func (m *Manager) CreateRefresh(principalID, jti, familyID string, now time.Time) (string, error) {
	return m.create(Claims{
		Kind:             KindRefresh,
		FamilyID:         familyID,
		RegisteredClaims: m.registered(principalID, jti, now, m.config.RefreshTTL),
	})
}

// ParseAccess verifies the signature, expiry, and kind of an access token.
func (m *Manager) ParseAccess(tokenStr string) (*Claims, error) {
	return m.parse(tokenStr, KindAccess)
}

// ParseRefresh verifies the signature, expiry, and kind of a refresh token.
func (m *Manager) ParseRefresh(tokenStr string) (*Claims, error) {
	return m.parse(tokenStr, KindRefresh)
}

// AccessTTL returns the configured access token lifetime.
func (m *Manager) AccessTTL() time.Duration { return m.config.AccessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (m *Manager) RefreshTTL() time.Duration { return m.config.RefreshTTL }

func (m *Manager) registered(principalID, jti string, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	reg := jwt.RegisteredClaims{
		Subject:   principalID,
		ID:        jti,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    m.config.Issuer,
	}
	if m.config.Audience != "" {
		reg.Audience = jwt.ClaimStrings{m.config.Audience}
	}
	return reg
}

func (m *Manager) create(claims Claims) (string, error) {
	token := jwt.NewWithClaims(m.method(), claims)

	signKey, err := m.signKey()
	if err != nil {
		return "", err
	}
	return token.SignedString(signKey)
}

func (m *Manager) parse(tokenStr string, kind TokenKind) (*Claims, error) {
	if strings.TrimSpace(tokenStr) == "" {
		return nil, ErrTokenMalformed
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method().Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != m.method().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.verifyKey()
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.Kind != kind {
		return nil, ErrTokenMalformed
	}
	if claims.Subject == "" || claims.ID == "" || claims.FamilyID == "" {
		return nil, ErrTokenMalformed
	}
	if claims.IssuedAt != nil && m.config.MaxFutureIAT > 0 {
		if claims.IssuedAt.Time.After(time.Now().Add(m.config.MaxFutureIAT)) {
			return nil, fmt.Errorf("%w: iat too far in the future", ErrTokenMalformed)
		}
	}

	return claims, nil
}

func (m *Manager) method() jwt.SigningMethod {
	switch m.config.SigningMethod {
	case MethodHS256:
		return jwt.SigningMethodHS256
	default:
		return jwt.SigningMethodEdDSA
	}
}

func (m *Manager) signKey() (interface{}, error) {
	switch m.config.SigningMethod {
	case MethodHS256:
		return m.config.PrivateKey, nil
	default:
		return parseEdPrivateKey(m.config.PrivateKey)
	}
}

func (m *Manager) verifyKey() (interface{}, error) {
	switch m.config.SigningMethod {
	case MethodHS256:
		return m.config.PrivateKey, nil
	default:
		return parseEdPublicKey(m.config.PublicKey)
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
