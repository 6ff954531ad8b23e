package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
)

const (
	// MinValueBytes is the smallest entropy the guard accepts.
	MinValueBytes = 16
	// DefaultValueBytes is the issued-token entropy when unconfigured.
	DefaultValueBytes = 32
)

// ErrInvalidLength reports a guard configured below MinValueBytes.
var ErrInvalidLength = errors.New("csrf: value length below minimum")

// Guard issues and verifies double-submit values. Stateless and safe for
// concurrent use.
type Guard struct {
	valueBytes int
}

// NewGuard creates a Guard issuing values of the given byte length before
// base64url encoding. Zero selects DefaultValueBytes.
func NewGuard(valueBytes int) (*Guard, error) {
	if valueBytes == 0 {
		valueBytes = DefaultValueBytes
	}
	if valueBytes < MinValueBytes {
		return nil, ErrInvalidLength
	}
	return &Guard{valueBytes: valueBytes}, nil
}

// Issue returns a fresh random value, base64url-encoded without padding.
func (g *Guard) Issue() (string, error) {
	buf := make([]byte, g.valueBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify reports whether the cookie copy and the submitted copy are present
// and byte-equal. The comparison is constant-time; the preceding length check
// leaks only the lengths, which the attacker already knows.
func (g *Guard) Verify(cookieValue, submittedValue string) bool {
	if cookieValue == "" || submittedValue == "" {
		return false
	}
	if len(cookieValue) != len(submittedValue) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieValue), []byte(submittedValue)) == 1
}
