package authcore

import (
	"context"
	"io"

	internalaudit "github.com/Rathodpruthvi45/authcore/internal/audit"
	internalmetrics "github.com/Rathodpruthvi45/authcore/internal/metrics"
	"github.com/Rathodpruthvi45/authcore/rbac"
)

// Principal is the read-only account view the engine consumes. It is owned by
// the external user store; the engine writes back only the verified flag (on
// verification) and the password hash (on reset), both through
// [PrincipalStore].
type Principal struct {
	ID           string
	Identifier   string // login identifier, typically the email address
	PasswordHash string
	Role         rbac.Role
	Verified     bool
}

// PrincipalStore is the boundary to the external account database.
type PrincipalStore interface {
	GetByIdentifier(ctx context.Context, identifier string) (Principal, error)
	GetByID(ctx context.Context, principalID string) (Principal, error)
	MarkVerified(ctx context.Context, principalID string) error
	UpdatePasswordHash(ctx context.Context, principalID, newHash string) error
}

// PasswordVerifier is the opaque credential primitive. Verification is
// assumed constant-time. The bundled password.Hasher satisfies it; existing
// deployments plug in their own.
type PasswordVerifier interface {
	Hash(password string) (string, error)
	Verify(password, storedHash string) (bool, error)
	// DummyVerify burns the same cost as Verify without an account, so
	// unknown identifiers are not distinguishable by response time.
	DummyVerify(password string)
}

// MailTemplate selects the outbound message for a single-use token.
type MailTemplate string

const (
	// TemplateVerifyEmail carries an email-verification link or code.
	TemplateVerifyEmail MailTemplate = "verify_email"
	// TemplateResetPassword carries a password-reset link or code.
	TemplateResetPassword MailTemplate = "reset_password"
)

// Mailer is the outbound email boundary. Dispatch is fire-and-forget from
// the engine's perspective: errors are logged, never surfaced to callers.
type Mailer interface {
	Send(ctx context.Context, to string, template MailTemplate, data map[string]string) error
}

// TokenPair is an access/refresh pair minted at login or rotation.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthResult is the outcome of a successful access-token validation.
type AuthResult struct {
	PrincipalID string
	Role        rbac.Role
	Verified    bool
	TokenID     string
	FamilyID    string
}

// AuditEvent is a structured security event emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// MetricID identifies a counter or histogram slot in the in-process metrics.
type MetricID = internalmetrics.MetricID

// Metric identifiers re-exported for snapshot consumers.
const (
	MetricLoginSuccess             = internalmetrics.MetricLoginSuccess
	MetricLoginFailure             = internalmetrics.MetricLoginFailure
	MetricLoginRateLimited         = internalmetrics.MetricLoginRateLimited
	MetricRefreshSuccess           = internalmetrics.MetricRefreshSuccess
	MetricRefreshFailure           = internalmetrics.MetricRefreshFailure
	MetricRefreshReuseDetected     = internalmetrics.MetricRefreshReuseDetected
	MetricRefreshRateLimited       = internalmetrics.MetricRefreshRateLimited
	MetricAccessValidateSuccess    = internalmetrics.MetricAccessValidateSuccess
	MetricAccessValidateRevoked    = internalmetrics.MetricAccessValidateRevoked
	MetricAccessValidateRejected   = internalmetrics.MetricAccessValidateRejected
	MetricTokenRevoked             = internalmetrics.MetricTokenRevoked
	MetricFamilyRevoked            = internalmetrics.MetricFamilyRevoked
	MetricLogout                   = internalmetrics.MetricLogout
	MetricPrincipalSessionsRevoked = internalmetrics.MetricPrincipalSessionsRevoked
	MetricCSRFRejected             = internalmetrics.MetricCSRFRejected
	MetricRateLimitHit             = internalmetrics.MetricRateLimitHit
	MetricVerificationRequest      = internalmetrics.MetricVerificationRequest
	MetricVerificationSuccess      = internalmetrics.MetricVerificationSuccess
	MetricVerificationFailure      = internalmetrics.MetricVerificationFailure
	MetricResetRequest             = internalmetrics.MetricResetRequest
	MetricResetSuccess             = internalmetrics.MetricResetSuccess
	MetricResetFailure             = internalmetrics.MetricResetFailure
	MetricStoreUnavailable         = internalmetrics.MetricStoreUnavailable
	MetricAuthorizationDenied      = internalmetrics.MetricAuthorizationDenied
	MetricValidateLatency          = internalmetrics.MetricValidateLatency
)

// Metrics holds atomic counters and the validate-latency histogram.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot
