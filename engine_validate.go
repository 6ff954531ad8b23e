package authcore

import (
	"context"
	"errors"
	"time"

	internalmetrics "github.com/Rathodpruthvi45/authcore/internal/metrics"
	"github.com/Rathodpruthvi45/authcore/jwt"
	"github.com/Rathodpruthvi45/authcore/rbac"
)

// ValidateAccess verifies an access token and returns the authenticated
// caller. Signature and expiry are checked locally; the store is consulted
// once, for the token-id and family revocation markers together. A store
// failure rejects the request (fail closed) as ErrStoreUnavailable rather
// than any credential error.
func (e *Engine) ValidateAccess(ctx context.Context, accessToken string) (*AuthResult, error) {
	start := time.Now()

	claims, err := e.tokens.ParseAccess(accessToken)
	if err != nil {
		e.metrics.Inc(internalmetrics.MetricAccessValidateRejected)
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	role, err := rbac.ParseRole(claims.Role)
	if err != nil {
		// A signed token with an unknown role claim means key compromise
		// or a deployment running mismatched role tables. Reject it.
		e.metrics.Inc(internalmetrics.MetricAccessValidateRejected)
		return nil, ErrTokenMalformed
	}

	revoked, err := e.families.Revoked(ctx, claims.ID, claims.FamilyID)
	if err != nil {
		return nil, e.mapStoreErr(ctx, "access revocation check", err)
	}
	if revoked {
		e.metrics.Inc(internalmetrics.MetricAccessValidateRevoked)
		return nil, ErrTokenRevoked
	}

	e.metrics.Inc(internalmetrics.MetricAccessValidateSuccess)
	e.metrics.Observe(internalmetrics.MetricValidateLatency, time.Since(start))

	return &AuthResult{
		PrincipalID: claims.Subject,
		Role:        role,
		Verified:    claims.Verified,
		TokenID:     claims.ID,
		FamilyID:    claims.FamilyID,
	}, nil
}
