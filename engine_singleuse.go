package authcore

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/Rathodpruthvi45/authcore/internal/stores"
)

const singleUseValueBytes = 32

// issueSingleUse mints an opaque random token value and persists its record.
// The returned value is the only copy; the store keeps a hash.
func (e *Engine) issueSingleUse(ctx context.Context, purpose stores.Purpose, principalID string, ttl time.Duration) (string, error) {
	raw := make([]byte, singleUseValueBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	value := base64.RawURLEncoding.EncodeToString(raw)

	record := &stores.SingleUseRecord{
		Purpose:     purpose,
		PrincipalID: principalID,
		ExpiresAt:   e.now().Add(ttl).Unix(),
	}
	if err := e.singleUse.Save(ctx, value, record, ttl); err != nil {
		return "", err
	}
	return value, nil
}

// mail dispatches a single-use token through the configured mailer. Failures
// are logged only; the token already exists and can be re-requested.
func (e *Engine) mail(ctx context.Context, to string, template MailTemplate, token string) {
	if e.mailer == nil {
		return
	}
	if err := e.mailer.Send(ctx, to, template, map[string]string{"token": token}); err != nil {
		e.warn("mail dispatch failed", "template", string(template), "error", err)
	}
}
