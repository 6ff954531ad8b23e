package stores

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Rathodpruthvi45/authcore/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestFamilyStore(t *testing.T) (*miniredis.Miniredis, *FamilyStore) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, NewFamilyStore(store.New(client))
}

func TestRotateHappyPath(t *testing.T) {
	_, fs := newTestFamilyStore(t)
	ctx := context.Background()

	if err := fs.Register(ctx, "fam1", "u1", "r1", time.Hour); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := fs.Rotate(ctx, "fam1", "r1", "r2", time.Hour); err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	if err := fs.Rotate(ctx, "fam1", "r2", "r3", time.Hour); err != nil {
		t.Fatalf("second Rotate failed: %v", err)
	}

	active, err := fs.Active(ctx, "fam1")
	if err != nil {
		t.Fatalf("Active failed: %v", err)
	}
	if !active {
		t.Fatal("family should stay active across rotations")
	}
}

func TestRotateRetiredIDIsReuse(t *testing.T) {
	_, fs := newTestFamilyStore(t)
	ctx := context.Background()

	if err := fs.Register(ctx, "fam1", "u1", "r1", time.Hour); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := fs.Rotate(ctx, "fam1", "r1", "r2", time.Hour); err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}

	// r1 is retired; presenting it again under the live family is reuse.
	if err := fs.Rotate(ctx, "fam1", "r1", "r3", time.Hour); !errors.Is(err, ErrRefreshIDRetired) {
		t.Fatalf("expected ErrRefreshIDRetired, got %v", err)
	}
}

func TestRotateRevokedFamily(t *testing.T) {
	_, fs := newTestFamilyStore(t)
	ctx := context.Background()

	if err := fs.Register(ctx, "fam1", "u1", "r1", time.Hour); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := fs.RevokeFamily(ctx, "fam1", time.Hour); err != nil {
		t.Fatalf("RevokeFamily failed: %v", err)
	}

	if err := fs.Rotate(ctx, "fam1", "r1", "r2", time.Hour); !errors.Is(err, ErrFamilyInactive) {
		t.Fatalf("expected ErrFamilyInactive, got %v", err)
	}
}

func TestRotateExpiredFamily(t *testing.T) {
	mr, fs := newTestFamilyStore(t)
	ctx := context.Background()

	if err := fs.Register(ctx, "fam1", "u1", "r1", time.Minute); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if err := fs.Rotate(ctx, "fam1", "r1", "r2", time.Minute); !errors.Is(err, ErrFamilyInactive) {
		t.Fatalf("expected ErrFamilyInactive after expiry, got %v", err)
	}
}

func TestRevokedMarkers(t *testing.T) {
	_, fs := newTestFamilyStore(t)
	ctx := context.Background()

	revoked, err := fs.Revoked(ctx, "a1", "fam1")
	if err != nil {
		t.Fatalf("Revoked failed: %v", err)
	}
	if revoked {
		t.Fatal("nothing revoked yet")
	}

	if err := fs.RevokeAccessID(ctx, "a1", time.Minute); err != nil {
		t.Fatalf("RevokeAccessID failed: %v", err)
	}
	revoked, err = fs.Revoked(ctx, "a1", "fam1")
	if err != nil {
		t.Fatalf("Revoked failed: %v", err)
	}
	if !revoked {
		t.Fatal("expected access id marker to match")
	}

	// A different token in a revoked family is blocked by the family marker.
	if err := fs.RevokeFamily(ctx, "fam2", time.Hour); err != nil {
		t.Fatalf("RevokeFamily failed: %v", err)
	}
	revoked, err = fs.Revoked(ctx, "other", "fam2")
	if err != nil {
		t.Fatalf("Revoked failed: %v", err)
	}
	if !revoked {
		t.Fatal("expected family marker to match")
	}
}

func TestRevokeAccessIDExpiredNoOp(t *testing.T) {
	_, fs := newTestFamilyStore(t)

	// An already-expired token needs no marker.
	if err := fs.RevokeAccessID(context.Background(), "a1", -time.Second); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func TestRevokeAllForPrincipal(t *testing.T) {
	_, fs := newTestFamilyStore(t)
	ctx := context.Background()

	if err := fs.Register(ctx, "fam1", "u1", "r1", time.Hour); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := fs.Register(ctx, "fam2", "u1", "r2", time.Hour); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := fs.Register(ctx, "fam3", "u2", "r3", time.Hour); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := fs.RevokeAllForPrincipal(ctx, "u1", time.Hour); err != nil {
		t.Fatalf("RevokeAllForPrincipal failed: %v", err)
	}

	for _, familyID := range []string{"fam1", "fam2"} {
		active, err := fs.Active(ctx, familyID)
		if err != nil {
			t.Fatalf("Active failed: %v", err)
		}
		if active {
			t.Fatalf("family %s should be revoked", familyID)
		}
	}

	// Another principal's family is untouched.
	active, err := fs.Active(ctx, "fam3")
	if err != nil {
		t.Fatalf("Active failed: %v", err)
	}
	if !active {
		t.Fatal("fam3 should remain active")
	}
}
