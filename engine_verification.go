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

// RequestEmailVerification mints a single-use verification token for the
// principal, dispatches it through the mailer when one is configured, and
// returns the raw value for transports the engine does not own. Requesting
// again before redemption issues a second independent token; both stay
// redeemable until their TTLs run out.
func (e *Engine) RequestEmailVerification(ctx context.Context, principalID string) (string, error) {
	principal, err := e.principals.GetByID(ctx, principalID)
	if err != nil {
		return "", ErrPrincipalNotFound
	}

	ip := clientIPFromContext(ctx)
	decision, err := e.limiter.Check(ctx, rate.ActionEmailVerification, principal.Identifier, ip)
	if err != nil {
		return "", e.mapStoreErr(ctx, "verification rate check", err)
	}
	if !decision.Allowed {
		e.metrics.Inc(internalmetrics.MetricRateLimitHit)
		return "", &RateLimitedError{Action: string(rate.ActionEmailVerification), RetryAfter: decision.RetryAfter}
	}

	token, err := e.issueSingleUse(ctx, stores.PurposeVerifyEmail, principal.ID, e.config.SingleUse.VerificationTTL)
	if err != nil {
		return "", e.mapStoreErr(ctx, "verification token issue", err)
	}

	e.mail(ctx, principal.Identifier, TemplateVerifyEmail, token)

	e.metrics.Inc(internalmetrics.MetricVerificationRequest)
	e.emit(ctx, AuditEvent{
		EventType:   internalaudit.EventVerificationRequested,
		PrincipalID: principal.ID,
		IP:          ip,
		Success:     true,
	})
	return token, nil
}

// ConfirmEmailVerification redeems a verification token and marks the account
// verified. Every redemption failure, whatever its internal cause, surfaces
// as ErrSingleUseInvalid so the endpoint cannot be used to probe token
// validity; the audit event carries the real reason.
func (e *Engine) ConfirmEmailVerification(ctx context.Context, tokenValue string) error {
	record, err := e.singleUse.Redeem(ctx, tokenValue, stores.PurposeVerifyEmail, e.now())
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			return e.storeFailure(ctx, "verification redemption", err)
		}
		e.metrics.Inc(internalmetrics.MetricVerificationFailure)
		e.emit(ctx, AuditEvent{
			EventType: internalaudit.EventVerificationRejected,
			IP:        clientIPFromContext(ctx),
			Error:     err.Error(),
		})
		return ErrSingleUseInvalid
	}

	if err := e.principals.MarkVerified(ctx, record.PrincipalID); err != nil {
		// The token is gone either way; the caller must request another.
		e.metrics.Inc(internalmetrics.MetricVerificationFailure)
		return err
	}

	e.metrics.Inc(internalmetrics.MetricVerificationSuccess)
	e.emit(ctx, AuditEvent{
		EventType:   internalaudit.EventVerificationConfirmed,
		PrincipalID: record.PrincipalID,
		IP:          clientIPFromContext(ctx),
		Success:     true,
	})
	return nil
}
