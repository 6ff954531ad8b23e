package authcore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Rathodpruthvi45/authcore/csrf"
	internalaudit "github.com/Rathodpruthvi45/authcore/internal/audit"
	internalmetrics "github.com/Rathodpruthvi45/authcore/internal/metrics"
	"github.com/Rathodpruthvi45/authcore/internal/rate"
	"github.com/Rathodpruthvi45/authcore/internal/store"
	"github.com/Rathodpruthvi45/authcore/internal/stores"
	"github.com/Rathodpruthvi45/authcore/jwt"
	"github.com/Rathodpruthvi45/authcore/rbac"
)

// Engine is the authentication and session-security core. Construct it with
// [Builder.Build]; all methods are then safe for concurrent use. The engine
// keeps no mutable state of its own — every cross-request decision goes
// through the store's atomic operations, so independent processes sharing one
// Redis instance behave as one engine.
type Engine struct {
	config Config

	tokens     *jwt.Manager
	families   *stores.FamilyStore
	singleUse  *stores.SingleUseStore
	limiter    *rate.Limiter
	csrfGuard  *csrf.Guard
	enforcer   *rbac.Enforcer
	principals PrincipalStore
	verifier   PasswordVerifier
	mailer     Mailer
	auditor    *internalaudit.Dispatcher
	metrics    *internalmetrics.Metrics
	logger     *slog.Logger

	clock func() time.Time
	newID func() string
}

// Config returns a copy of the engine's configuration.
func (e *Engine) Config() Config {
	return cloneConfig(e.config)
}

// Metrics returns the engine's metric collector for snapshotting.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// Close flushes and stops the audit dispatcher. The engine must not be used
// after Close.
func (e *Engine) Close() {
	e.auditor.Close()
}

// Authorize evaluates a validated caller's role against a required
// capability. Pure in-process decision, no I/O.
func (e *Engine) Authorize(role rbac.Role, capability rbac.Capability) error {
	if e.enforcer.Authorize(role, capability) {
		return nil
	}
	e.metrics.Inc(internalmetrics.MetricAuthorizationDenied)
	return ErrPermissionDenied
}

// IssueCSRFToken returns a fresh double-submit value. The caller sets it both
// as the script-readable CSRF cookie and in the response body or header.
func (e *Engine) IssueCSRFToken() (string, error) {
	return e.csrfGuard.Issue()
}

// VerifyCSRFToken checks a cookie/submitted pair for a state-changing
// request. Absence of either value is a rejection.
func (e *Engine) VerifyCSRFToken(ctx context.Context, cookieValue, submittedValue string) error {
	if e.csrfGuard.Verify(cookieValue, submittedValue) {
		return nil
	}

	e.metrics.Inc(internalmetrics.MetricCSRFRejected)
	e.emit(ctx, AuditEvent{
		EventType: internalaudit.EventCSRFRejected,
		IP:        clientIPFromContext(ctx),
	})
	return ErrCSRFRejected
}

func (e *Engine) now() time.Time {
	return e.clock()
}

func (e *Engine) emit(ctx context.Context, event AuditEvent) {
	if e.auditor == nil {
		return
	}
	event.Timestamp = e.now()
	e.auditor.Emit(ctx, event)
}

func (e *Engine) warn(msg string, args ...any) {
	if e.logger == nil {
		return
	}
	e.logger.Warn(msg, args...)
}

// mapStoreErr translates internal store failures into the public fail-closed
// error. Non-store errors pass through unchanged.
func (e *Engine) mapStoreErr(ctx context.Context, op string, err error) error {
	if errors.Is(err, store.ErrUnavailable) {
		return e.storeFailure(ctx, op, err)
	}
	return err
}

func (e *Engine) storeFailure(ctx context.Context, op string, err error) error {
	e.metrics.Inc(internalmetrics.MetricStoreUnavailable)
	e.emit(ctx, AuditEvent{
		EventType: internalaudit.EventStoreUnavailable,
		Error:     err.Error(),
		Metadata:  map[string]string{"operation": op},
	})
	e.warn("session store unavailable", "operation", op, "error", err)
	return fmt.Errorf("%w: %s", ErrStoreUnavailable, op)
}
