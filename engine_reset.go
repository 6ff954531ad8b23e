package authcore

import (
	"context"
	"errors"

	internalaudit "github.com/Rathodpruthvi45/authcore/internal/audit"
	internalmetrics "github.com/Rathodpruthvi45/authcore/internal/metrics"
	"github.com/Rathodpruthvi45/authcore/internal/rate"
	"github.com/Rathodpruthvi45/authcore/internal/store"
	"github.com/Rathodpruthvi45/authcore/internal/stores"
)

// RequestPasswordReset mints a single-use reset token for the account behind
// identifier, dispatches it through the mailer, and returns the raw value.
// An unknown identifier returns an empty token and no error: the endpoint
// answers identically for existing and non-existing accounts, and the rate
// counter is charged either way.
func (e *Engine) RequestPasswordReset(ctx context.Context, identifier string) (string, error) {
	ip := clientIPFromContext(ctx)

	decision, err := e.limiter.Check(ctx, rate.ActionPasswordReset, identifier, ip)
	if err != nil {
		return "", e.mapStoreErr(ctx, "reset rate check", err)
	}
	if !decision.Allowed {
		e.metrics.Inc(internalmetrics.MetricRateLimitHit)
		return "", &RateLimitedError{Action: string(rate.ActionPasswordReset), RetryAfter: decision.RetryAfter}
	}

	e.metrics.Inc(internalmetrics.MetricResetRequest)

	principal, err := e.principals.GetByIdentifier(ctx, identifier)
	if err != nil {
		e.emit(ctx, AuditEvent{
			EventType: internalaudit.EventResetRequested,
			IP:        ip,
			Error:     "unknown identifier",
		})
		return "", nil
	}

	token, err := e.issueSingleUse(ctx, stores.PurposeResetPassword, principal.ID, e.config.SingleUse.ResetTTL)
	if err != nil {
		return "", e.mapStoreErr(ctx, "reset token issue", err)
	}

	e.mail(ctx, principal.Identifier, TemplateResetPassword, token)

	e.emit(ctx, AuditEvent{
		EventType:   internalaudit.EventResetRequested,
		PrincipalID: principal.ID,
		IP:          ip,
		Success:     true,
	})
	return token, nil
}

// ConfirmPasswordReset redeems a reset token, installs the new password, and
// revokes every session the principal holds. The redemption consumes the
// token before any validation, so probing a guessed value spends it; all
// public failures collapse into ErrSingleUseInvalid.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, tokenValue, newPassword string) error {
	record, err := e.singleUse.Redeem(ctx, tokenValue, stores.PurposeResetPassword, e.now())
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			return e.storeFailure(ctx, "reset redemption", err)
		}
		e.metrics.Inc(internalmetrics.MetricResetFailure)
		e.emit(ctx, AuditEvent{
			EventType: internalaudit.EventResetRejected,
			IP:        clientIPFromContext(ctx),
			Error:     err.Error(),
		})
		return ErrSingleUseInvalid
	}

	newHash, err := e.verifier.Hash(newPassword)
	if err != nil {
		e.metrics.Inc(internalmetrics.MetricResetFailure)
		return err
	}

	if err := e.principals.UpdatePasswordHash(ctx, record.PrincipalID, newHash); err != nil {
		e.metrics.Inc(internalmetrics.MetricResetFailure)
		return err
	}

	// Sessions opened under the old password die with it.
	if err := e.families.RevokeAllForPrincipal(ctx, record.PrincipalID, e.tokens.RefreshTTL()); err != nil {
		return e.mapStoreErr(ctx, "reset session revocation", err)
	}
	e.metrics.Inc(internalmetrics.MetricPrincipalSessionsRevoked)

	e.metrics.Inc(internalmetrics.MetricResetSuccess)
	e.emit(ctx, AuditEvent{
		EventType:   internalaudit.EventResetConfirmed,
		PrincipalID: record.PrincipalID,
		IP:          clientIPFromContext(ctx),
		Success:     true,
	})
	return nil
}
