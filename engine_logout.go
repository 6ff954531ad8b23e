package authcore

import (
	"context"
	"errors"

	internalaudit "github.com/Rathodpruthvi45/authcore/internal/audit"
	internalmetrics "github.com/Rathodpruthvi45/authcore/internal/metrics"
	"github.com/Rathodpruthvi45/authcore/jwt"
)

// Logout revokes the presented access token and its whole refresh family, so
// neither half of the pair survives. The access token id gets a revocation
// marker for its remaining lifetime; the family marker outlives the longest
// possible refresh token.
func (e *Engine) Logout(ctx context.Context, accessToken string) error {
	claims, err := e.tokens.ParseAccess(accessToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenMalformed
	}

	remaining := claims.ExpiresAt.Time.Sub(e.now())
	if err := e.families.RevokeAccessID(ctx, claims.ID, remaining); err != nil {
		return e.mapStoreErr(ctx, "logout access revocation", err)
	}
	if err := e.families.RevokeFamily(ctx, claims.FamilyID, e.tokens.RefreshTTL()); err != nil {
		return e.mapStoreErr(ctx, "logout family revocation", err)
	}

	e.metrics.Inc(internalmetrics.MetricLogout)
	e.metrics.Inc(internalmetrics.MetricTokenRevoked)
	e.metrics.Inc(internalmetrics.MetricFamilyRevoked)
	e.emit(ctx, AuditEvent{
		EventType:   internalaudit.EventLogout,
		PrincipalID: claims.Subject,
		FamilyID:    claims.FamilyID,
		TokenID:     claims.ID,
		IP:          clientIPFromContext(ctx),
		Success:     true,
	})
	return nil
}

// RevokePrincipalSessions revokes every refresh family the principal has and
// clears the family index. Administrative lockout; also invoked internally
// after a password reset.
func (e *Engine) RevokePrincipalSessions(ctx context.Context, principalID string) error {
	if err := e.families.RevokeAllForPrincipal(ctx, principalID, e.tokens.RefreshTTL()); err != nil {
		return e.mapStoreErr(ctx, "principal session revocation", err)
	}

	e.metrics.Inc(internalmetrics.MetricPrincipalSessionsRevoked)
	e.emit(ctx, AuditEvent{
		EventType:   internalaudit.EventSessionsRevoked,
		PrincipalID: principalID,
		Success:     true,
	})
	return nil
}
