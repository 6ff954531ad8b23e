package authcore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

type sentMail struct {
	To       string
	Template MailTemplate
	Token    string
}

func (m *recordingMailer) Send(_ context.Context, to string, template MailTemplate, data map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Template: template, Token: data["token"]})
	return nil
}

func (m *recordingMailer) last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatal("no mail dispatched")
	}
	return m.sent[len(m.sent)-1]
}

func TestEmailVerificationFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	hash, err := env.hasher.Hash(testPassword)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	env.principals.Put(Principal{
		ID:           "u2",
		Identifier:   "bob@example.com",
		PasswordHash: hash,
	})

	token, err := env.engine.RequestEmailVerification(ctx, "u2")
	if err != nil {
		t.Fatalf("RequestEmailVerification failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token value")
	}

	if err := env.engine.ConfirmEmailVerification(ctx, token); err != nil {
		t.Fatalf("ConfirmEmailVerification failed: %v", err)
	}

	p, ok := env.principals.Get("u2")
	if !ok || !p.Verified {
		t.Fatal("expected principal marked verified")
	}

	// The token is consumed; a replay fails like any other invalid value.
	if err := env.engine.ConfirmEmailVerification(ctx, token); !errors.Is(err, ErrSingleUseInvalid) {
		t.Fatalf("expected ErrSingleUseInvalid on replay, got %v", err)
	}
}

func TestEmailVerificationUnknownPrincipal(t *testing.T) {
	env := newTestEnv(t, nil)

	if _, err := env.engine.RequestEmailVerification(context.Background(), "ghost"); !errors.Is(err, ErrPrincipalNotFound) {
		t.Fatalf("expected ErrPrincipalNotFound, got %v", err)
	}
}

func TestEmailVerificationExpiredToken(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) {
		cfg.SingleUse.VerificationTTL = time.Hour
	})
	ctx := context.Background()

	token, err := env.engine.RequestEmailVerification(ctx, "u1")
	if err != nil {
		t.Fatalf("RequestEmailVerification failed: %v", err)
	}

	env.clock.Advance(2 * time.Hour)

	if err := env.engine.ConfirmEmailVerification(ctx, token); !errors.Is(err, ErrSingleUseInvalid) {
		t.Fatalf("expected ErrSingleUseInvalid for expired token, got %v", err)
	}
}

// A reset token presented to the verification endpoint fails, and the failed
// probe consumes it: it cannot be turned around and used for its real purpose.
func TestSingleUseWrongPurposeConsumes(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	resetToken, err := env.engine.RequestPasswordReset(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	if resetToken == "" {
		t.Fatal("expected a reset token")
	}

	if err := env.engine.ConfirmEmailVerification(ctx, resetToken); !errors.Is(err, ErrSingleUseInvalid) {
		t.Fatalf("expected ErrSingleUseInvalid for wrong purpose, got %v", err)
	}
	if err := env.engine.ConfirmPasswordReset(ctx, resetToken, "brand-new-password"); !errors.Is(err, ErrSingleUseInvalid) {
		t.Fatalf("expected token consumed by wrong-purpose probe, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	// An open session that must die with the old password.
	pair, _, err := env.engine.Login(ctx, "alice@example.com", testPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	token, err := env.engine.RequestPasswordReset(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}

	const newPassword = "completely-new-secret"
	if err := env.engine.ConfirmPasswordReset(ctx, token, newPassword); err != nil {
		t.Fatalf("ConfirmPasswordReset failed: %v", err)
	}

	if _, _, err := env.engine.Login(ctx, "alice@example.com", testPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still accepted: %v", err)
	}
	if _, _, err := env.engine.Login(ctx, "alice@example.com", newPassword); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}

	if _, _, err := env.engine.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected pre-reset session revoked, got %v", err)
	}
	if _, err := env.engine.ValidateAccess(ctx, pair.AccessToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected pre-reset access revoked, got %v", err)
	}
}

// Reset requests answer identically for existing and unknown identifiers.
func TestPasswordResetUnknownIdentifierSilent(t *testing.T) {
	env := newTestEnv(t, nil)

	token, err := env.engine.RequestPasswordReset(context.Background(), "ghost@example.com")
	if err != nil {
		t.Fatalf("expected silent success, got %v", err)
	}
	if token != "" {
		t.Fatalf("expected empty token for unknown identifier, got %q", token)
	}
}

func TestPasswordResetRateLimited(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) {
		cfg.RateLimit.PasswordReset = RatePolicy{MaxAttempts: 2, Window: time.Hour, Keying: RateKeyIdentifier}
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := env.engine.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
			t.Fatalf("request %d failed: %v", i+1, err)
		}
	}

	if _, err := env.engine.RequestPasswordReset(ctx, "alice@example.com"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestPasswordResetRejectsShortPassword(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	token, err := env.engine.RequestPasswordReset(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}

	if err := env.engine.ConfirmPasswordReset(ctx, token, "short"); err == nil {
		t.Fatal("expected error for too-short password")
	}

	// The token was consumed by the failed confirmation.
	if err := env.engine.ConfirmPasswordReset(ctx, token, "long-enough-password"); !errors.Is(err, ErrSingleUseInvalid) {
		t.Fatalf("expected consumed token, got %v", err)
	}
}

func TestSingleUseMailDispatch(t *testing.T) {
	mailer := &recordingMailer{}

	mr, rdb := newTestRedis(t)
	hasher := testHasher(t)
	hash, err := hasher.Hash(testPassword)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	principals := newMockPrincipalStore()
	principals.Put(Principal{ID: "u1", Identifier: "alice@example.com", PasswordHash: hash, Verified: true})

	engine, err := New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithPrincipalStore(principals).
		WithPasswordVerifier(hasher).
		WithMailer(mailer).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(func() {
		engine.Close()
		rdb.Close()
		mr.Close()
	})

	ctx := context.Background()

	token, err := engine.RequestPasswordReset(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}

	mail := mailer.last(t)
	if mail.To != "alice@example.com" || mail.Template != TemplateResetPassword {
		t.Fatalf("unexpected mail: %+v", mail)
	}
	if mail.Token != token {
		t.Fatal("mailed token differs from returned token")
	}
}
