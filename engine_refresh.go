package authcore

import (
	"context"
	"errors"

	internalaudit "github.com/Rathodpruthvi45/authcore/internal/audit"
	internalmetrics "github.com/Rathodpruthvi45/authcore/internal/metrics"
	"github.com/Rathodpruthvi45/authcore/internal/rate"
	"github.com/Rathodpruthvi45/authcore/internal/stores"
	"github.com/Rathodpruthvi45/authcore/jwt"
)

// Refresh rotates a refresh token: the presented token is retired and a new
// pair is minted under the same family. Concurrent presentations of one token
// elect exactly one winner through the store's compare-and-delete; every
// loser sees reuse.
//
// Presentation of an already-retired token under a live family is theft
// evidence. The whole family is revoked before the caller hears
// ErrRefreshReuse, so neither the holder of the stolen token nor the
// legitimate user keeps a working session.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, *AuthResult, error) {
	ip := clientIPFromContext(ctx)

	claims, err := e.tokens.ParseRefresh(refreshToken)
	if err != nil {
		e.metrics.Inc(internalmetrics.MetricRefreshFailure)
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, nil, ErrTokenExpired
		}
		return nil, nil, ErrTokenMalformed
	}

	decision, err := e.limiter.Check(ctx, rate.ActionRefresh, claims.Subject, ip)
	if err != nil {
		return nil, nil, e.mapStoreErr(ctx, "refresh rate check", err)
	}
	if !decision.Allowed {
		e.metrics.Inc(internalmetrics.MetricRefreshRateLimited)
		e.metrics.Inc(internalmetrics.MetricRateLimitHit)
		e.emit(ctx, AuditEvent{
			EventType:   internalaudit.EventRefreshRejected,
			PrincipalID: claims.Subject,
			FamilyID:    claims.FamilyID,
			IP:          ip,
			Error:       "rate limited",
		})
		return nil, nil, &RateLimitedError{Action: string(rate.ActionRefresh), RetryAfter: decision.RetryAfter}
	}

	nextRefreshID := e.newID()
	err = e.families.Rotate(ctx, claims.FamilyID, claims.ID, nextRefreshID, e.tokens.RefreshTTL())
	switch {
	case errors.Is(err, stores.ErrRefreshIDRetired):
		if rerr := e.families.RevokeFamily(ctx, claims.FamilyID, e.tokens.RefreshTTL()); rerr != nil {
			e.warn("family revocation after reuse failed", "family", claims.FamilyID, "error", rerr)
		}
		e.metrics.Inc(internalmetrics.MetricRefreshReuseDetected)
		e.metrics.Inc(internalmetrics.MetricFamilyRevoked)
		e.emit(ctx, AuditEvent{
			EventType:   internalaudit.EventRefreshReuseDetected,
			PrincipalID: claims.Subject,
			FamilyID:    claims.FamilyID,
			TokenID:     claims.ID,
			IP:          ip,
		})
		e.emit(ctx, AuditEvent{
			EventType:   internalaudit.EventFamilyRevoked,
			PrincipalID: claims.Subject,
			FamilyID:    claims.FamilyID,
		})
		return nil, nil, ErrRefreshReuse
	case errors.Is(err, stores.ErrFamilyInactive):
		e.metrics.Inc(internalmetrics.MetricRefreshFailure)
		e.emit(ctx, AuditEvent{
			EventType:   internalaudit.EventRefreshRejected,
			PrincipalID: claims.Subject,
			FamilyID:    claims.FamilyID,
			IP:          ip,
			Error:       "family inactive",
		})
		return nil, nil, ErrTokenRevoked
	case err != nil:
		return nil, nil, e.mapStoreErr(ctx, "refresh rotation", err)
	}

	principal, err := e.principals.GetByID(ctx, claims.Subject)
	if err != nil {
		// The account vanished mid-session; do not leave a rotatable
		// family behind for it.
		if rerr := e.families.RevokeFamily(ctx, claims.FamilyID, e.tokens.RefreshTTL()); rerr != nil {
			e.warn("family revocation for missing principal failed", "family", claims.FamilyID, "error", rerr)
		}
		e.metrics.Inc(internalmetrics.MetricRefreshFailure)
		return nil, nil, ErrPrincipalNotFound
	}

	now := e.now()
	accessID := e.newID()

	access, err := e.tokens.CreateAccess(principal.ID, principal.Role.String(), principal.Verified, accessID, claims.FamilyID, now)
	if err != nil {
		return nil, nil, err
	}
	refresh, err := e.tokens.CreateRefresh(principal.ID, nextRefreshID, claims.FamilyID, now)
	if err != nil {
		return nil, nil, err
	}

	e.metrics.Inc(internalmetrics.MetricRefreshSuccess)
	e.emit(ctx, AuditEvent{
		EventType:   internalaudit.EventRefreshSuccess,
		PrincipalID: principal.ID,
		FamilyID:    claims.FamilyID,
		TokenID:     accessID,
		IP:          ip,
		Success:     true,
	})

	return &TokenPair{AccessToken: access, RefreshToken: refresh},
		&AuthResult{
			PrincipalID: principal.ID,
			Role:        principal.Role,
			Verified:    principal.Verified,
			TokenID:     accessID,
			FamilyID:    claims.FamilyID,
		}, nil
}
