package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*miniredis.Miniredis, *Store) {
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
	return mr, New(client)
}

func TestGetSetRoundTrip(t *testing.T) {
	_, st := newTestStore(t)
	ctx := context.Background()

	if _, err := st.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := st.SetWithTTL(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("SetWithTTL failed: %v", err)
	}

	data, err := st.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != "v" {
		t.Fatalf("unexpected value %q", data)
	}
}

func TestSetWithTTLRejectsNonPositive(t *testing.T) {
	_, st := newTestStore(t)

	if err := st.SetWithTTL(context.Background(), "k", []byte("v"), 0); err == nil {
		t.Fatal("expected error for zero TTL")
	}
	if err := st.SetWithTTL(context.Background(), "k", []byte("v"), -time.Second); err == nil {
		t.Fatal("expected error for negative TTL")
	}
}

func TestKeyExpiry(t *testing.T) {
	mr, st := newTestStore(t)
	ctx := context.Background()

	if err := st.SetWithTTL(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("SetWithTTL failed: %v", err)
	}

	mr.FastForward(61 * time.Second)

	if _, err := st.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected key expired, got %v", err)
	}
}

func TestIncrementWithTTL(t *testing.T) {
	mr, st := newTestStore(t)
	ctx := context.Background()

	count, remaining, err := st.IncrementWithTTL(ctx, "ctr", time.Minute)
	if err != nil {
		t.Fatalf("IncrementWithTTL failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}
	if remaining <= 0 || remaining > time.Minute {
		t.Fatalf("unexpected remaining window %v", remaining)
	}

	count, _, err = st.IncrementWithTTL(ctx, "ctr", time.Minute)
	if err != nil {
		t.Fatalf("second increment failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}

	// The TTL armed on the first hit survives subsequent increments.
	mr.FastForward(61 * time.Second)

	count, _, err = st.IncrementWithTTL(ctx, "ctr", time.Minute)
	if err != nil {
		t.Fatalf("post-expiry increment failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected fresh window, got count %d", count)
	}
}

func TestGetAndDelete(t *testing.T) {
	_, st := newTestStore(t)
	ctx := context.Background()

	if err := st.SetWithTTL(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("SetWithTTL failed: %v", err)
	}

	data, err := st.GetAndDelete(ctx, "k")
	if err != nil {
		t.Fatalf("GetAndDelete failed: %v", err)
	}
	if string(data) != "v" {
		t.Fatalf("unexpected value %q", data)
	}

	if _, err := st.GetAndDelete(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second call, got %v", err)
	}
}

func TestCompareAndDelete(t *testing.T) {
	_, st := newTestStore(t)
	ctx := context.Background()

	if err := st.SetWithTTL(ctx, "k", []byte("expected"), time.Minute); err != nil {
		t.Fatalf("SetWithTTL failed: %v", err)
	}

	won, err := st.CompareAndDelete(ctx, "k", []byte("other"))
	if err != nil {
		t.Fatalf("CompareAndDelete failed: %v", err)
	}
	if won {
		t.Fatal("mismatched value must not delete")
	}
	if _, err := st.Get(ctx, "k"); err != nil {
		t.Fatalf("key should survive a mismatch: %v", err)
	}

	won, err = st.CompareAndDelete(ctx, "k", []byte("expected"))
	if err != nil {
		t.Fatalf("CompareAndDelete failed: %v", err)
	}
	if !won {
		t.Fatal("matching value must delete")
	}

	// Second matching attempt finds nothing; no winner.
	won, err = st.CompareAndDelete(ctx, "k", []byte("expected"))
	if err != nil {
		t.Fatalf("CompareAndDelete failed: %v", err)
	}
	if won {
		t.Fatal("missing key must not report a win")
	}
}

func TestAnyExists(t *testing.T) {
	_, st := newTestStore(t)
	ctx := context.Background()

	ok, err := st.AnyExists(ctx, "a", "b")
	if err != nil {
		t.Fatalf("AnyExists failed: %v", err)
	}
	if ok {
		t.Fatal("expected no keys")
	}

	if err := st.SetWithTTL(ctx, "b", []byte{1}, time.Minute); err != nil {
		t.Fatalf("SetWithTTL failed: %v", err)
	}

	ok, err = st.AnyExists(ctx, "a", "b")
	if err != nil {
		t.Fatalf("AnyExists failed: %v", err)
	}
	if !ok {
		t.Fatal("expected at least one key present")
	}
}

func TestSetOperations(t *testing.T) {
	_, st := newTestStore(t)
	ctx := context.Background()

	if err := st.AddToSet(ctx, "s", "m1", time.Minute); err != nil {
		t.Fatalf("AddToSet failed: %v", err)
	}
	if err := st.AddToSet(ctx, "s", "m2", time.Minute); err != nil {
		t.Fatalf("AddToSet failed: %v", err)
	}

	members, err := st.SetMembers(ctx, "s")
	if err != nil {
		t.Fatalf("SetMembers failed: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %v", members)
	}

	if err := st.RemoveFromSet(ctx, "s", "m1"); err != nil {
		t.Fatalf("RemoveFromSet failed: %v", err)
	}
	members, err = st.SetMembers(ctx, "s")
	if err != nil {
		t.Fatalf("SetMembers failed: %v", err)
	}
	if len(members) != 1 || members[0] != "m2" {
		t.Fatalf("expected [m2], got %v", members)
	}
}

func TestUnavailableClassification(t *testing.T) {
	mr, st := newTestStore(t)
	mr.Close()

	if _, err := st.Get(context.Background(), "k"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if err := st.SetWithTTL(context.Background(), "k", []byte("v"), time.Minute); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
