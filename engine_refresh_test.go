package authcore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRefreshRotation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	pair, login, err := env.engine.Login(ctx, "alice@example.com", testPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// Clock must move or the rotated pair is byte-identical to the first.
	env.clock.Advance(time.Second)

	next, res, err := env.engine.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatal("expected a new refresh token")
	}
	if res.FamilyID != login.FamilyID {
		t.Fatalf("rotation changed family: %q vs %q", res.FamilyID, login.FamilyID)
	}

	// The new pair works end to end.
	if _, err := env.engine.ValidateAccess(ctx, next.AccessToken); err != nil {
		t.Fatalf("rotated access token rejected: %v", err)
	}
	env.clock.Advance(time.Second)
	if _, _, err := env.engine.Refresh(ctx, next.RefreshToken); err != nil {
		t.Fatalf("second rotation failed: %v", err)
	}
}

// Presenting a retired refresh token is reuse: the caller gets ErrRefreshReuse
// and the whole family dies, current token included.
func TestRefreshReuseRevokesFamily(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	pair, _, err := env.engine.Login(ctx, "alice@example.com", testPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	env.clock.Advance(time.Second)
	next, _, err := env.engine.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if _, _, err := env.engine.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrRefreshReuse) {
		t.Fatalf("expected ErrRefreshReuse, got %v", err)
	}

	// The legitimate holder's current tokens are gone too.
	if _, _, err := env.engine.Refresh(ctx, next.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected current refresh dead after reuse, got %v", err)
	}
	if _, err := env.engine.ValidateAccess(ctx, next.AccessToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected current access dead after reuse, got %v", err)
	}
}

func TestRefreshMalformed(t *testing.T) {
	env := newTestEnv(t, nil)

	if _, _, err := env.engine.Refresh(context.Background(), "garbage"); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
}

func TestRefreshWithAccessToken(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	pair, _, err := env.engine.Login(ctx, "alice@example.com", testPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if _, _, err := env.engine.Refresh(ctx, pair.AccessToken); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed for access token, got %v", err)
	}
}

func TestRefreshConcurrencySingleWinner(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) {
		// Enough budget that the limiter never interferes with the race.
		cfg.RateLimit.Refresh = RatePolicy{MaxAttempts: 100, Window: time.Minute, Keying: RateKeyIdentifier}
	})
	ctx := context.Background()

	pair, _, err := env.engine.Login(ctx, "alice@example.com", testPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)

	results := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, _, err := env.engine.Refresh(ctx, pair.RefreshToken)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	success := 0
	fail := 0
	for err := range results {
		if err == nil {
			success++
			continue
		}
		if errors.Is(err, ErrRefreshReuse) || errors.Is(err, ErrTokenRevoked) {
			fail++
			continue
		}
		t.Fatalf("unexpected refresh error: %v", err)
	}

	if success != 1 {
		t.Fatalf("expected exactly one refresh success, got %d", success)
	}
	if fail != n-1 {
		t.Fatalf("expected %d refresh failures, got %d", n-1, fail)
	}
}

func TestRefreshRateLimited(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) {
		cfg.RateLimit.Refresh = RatePolicy{MaxAttempts: 2, Window: time.Minute, Keying: RateKeyIdentifier}
	})
	ctx := context.Background()

	pair, _, err := env.engine.Login(ctx, "alice@example.com", testPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	token := pair.RefreshToken
	for i := 0; i < 2; i++ {
		env.clock.Advance(time.Second)
		next, _, err := env.engine.Refresh(ctx, token)
		if err != nil {
			t.Fatalf("rotation %d failed: %v", i+1, err)
		}
		token = next.RefreshToken
	}

	if _, _, err := env.engine.Refresh(ctx, token); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}
