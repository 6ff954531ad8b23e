package authcore

import (
	"context"

	internalaudit "github.com/Rathodpruthvi45/authcore/internal/audit"
	internalmetrics "github.com/Rathodpruthvi45/authcore/internal/metrics"
	"github.com/Rathodpruthvi45/authcore/internal/rate"
)

// Login authenticates an identifier/password pair and, on success, mints a
// fresh token pair rooted in a new refresh family.
//
// The rate check runs before credential verification and consumes one attempt
// regardless of outcome, so a blocked caller cannot learn whether their
// password was right. Unknown identifiers burn the same hashing cost as known
// ones and report the same ErrInvalidCredentials.
func (e *Engine) Login(ctx context.Context, identifier, password string) (*TokenPair, *AuthResult, error) {
	ip := clientIPFromContext(ctx)

	decision, err := e.limiter.Check(ctx, rate.ActionLogin, identifier, ip)
	if err != nil {
		return nil, nil, e.mapStoreErr(ctx, "login rate check", err)
	}
	if !decision.Allowed {
		e.metrics.Inc(internalmetrics.MetricLoginRateLimited)
		e.metrics.Inc(internalmetrics.MetricRateLimitHit)
		e.emit(ctx, AuditEvent{
			EventType: internalaudit.EventLoginRateLimited,
			IP:        ip,
		})
		return nil, nil, &RateLimitedError{Action: string(rate.ActionLogin), RetryAfter: decision.RetryAfter}
	}

	principal, err := e.principals.GetByIdentifier(ctx, identifier)
	if err != nil {
		e.verifier.DummyVerify(password)
		e.metrics.Inc(internalmetrics.MetricLoginFailure)
		e.emit(ctx, AuditEvent{
			EventType: internalaudit.EventLoginFailure,
			IP:        ip,
			Error:     "unknown identifier",
		})
		return nil, nil, ErrInvalidCredentials
	}

	ok, err := e.verifier.Verify(password, principal.PasswordHash)
	if err != nil || !ok {
		e.metrics.Inc(internalmetrics.MetricLoginFailure)
		e.emit(ctx, AuditEvent{
			EventType:   internalaudit.EventLoginFailure,
			PrincipalID: principal.ID,
			IP:          ip,
			Error:       "password mismatch",
		})
		return nil, nil, ErrInvalidCredentials
	}

	if e.config.Security.RequireVerifiedForLogin && !principal.Verified {
		e.metrics.Inc(internalmetrics.MetricLoginFailure)
		e.emit(ctx, AuditEvent{
			EventType:   internalaudit.EventLoginFailure,
			PrincipalID: principal.ID,
			IP:          ip,
			Error:       "account unverified",
		})
		return nil, nil, ErrAccountUnverified
	}

	if e.config.Security.ResetLoginCounterOnSuccess {
		if err := e.limiter.Reset(ctx, rate.ActionLogin, identifier, ip); err != nil {
			// Best effort; a stale counter only shortens the honest
			// caller's remaining budget.
			e.warn("login counter reset failed", "error", err)
		}
	}

	pair, result, err := e.issuePair(ctx, principal)
	if err != nil {
		return nil, nil, e.mapStoreErr(ctx, "login session registration", err)
	}

	e.metrics.Inc(internalmetrics.MetricLoginSuccess)
	e.emit(ctx, AuditEvent{
		EventType:   internalaudit.EventLoginSuccess,
		PrincipalID: principal.ID,
		FamilyID:    result.FamilyID,
		TokenID:     result.TokenID,
		IP:          ip,
		Success:     true,
	})
	return pair, result, nil
}

// IssueTokens mints a pair for an already-authenticated principal, bypassing
// credential verification. For auto-login after registration or a confirmed
// password reset; never expose it on a route that has not proven identity by
// other means.
func (e *Engine) IssueTokens(ctx context.Context, principalID string) (*TokenPair, *AuthResult, error) {
	principal, err := e.principals.GetByID(ctx, principalID)
	if err != nil {
		return nil, nil, ErrPrincipalNotFound
	}

	pair, result, err := e.issuePair(ctx, principal)
	if err != nil {
		return nil, nil, e.mapStoreErr(ctx, "token issue", err)
	}

	e.emit(ctx, AuditEvent{
		EventType:   internalaudit.EventLoginSuccess,
		PrincipalID: principal.ID,
		FamilyID:    result.FamilyID,
		TokenID:     result.TokenID,
		IP:          clientIPFromContext(ctx),
		Success:     true,
		Metadata:    map[string]string{"mode": "direct_issue"},
	})
	return pair, result, nil
}

// issuePair mints an access/refresh pair under a brand-new family and
// registers the family before the tokens are returned, so a pair the caller
// holds is always rotatable.
func (e *Engine) issuePair(ctx context.Context, principal Principal) (*TokenPair, *AuthResult, error) {
	now := e.now()
	familyID := e.newID()
	accessID := e.newID()
	refreshID := e.newID()

	access, err := e.tokens.CreateAccess(principal.ID, principal.Role.String(), principal.Verified, accessID, familyID, now)
	if err != nil {
		return nil, nil, err
	}
	refresh, err := e.tokens.CreateRefresh(principal.ID, refreshID, familyID, now)
	if err != nil {
		return nil, nil, err
	}

	if err := e.families.Register(ctx, familyID, principal.ID, refreshID, e.tokens.RefreshTTL()); err != nil {
		return nil, nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh},
		&AuthResult{
			PrincipalID: principal.ID,
			Role:        principal.Role,
			Verified:    principal.Verified,
			TokenID:     accessID,
			FamilyID:    familyID,
		}, nil
}
