package stores

import (
	"context"
	"errors"
	"time"

	"github.com/Rathodpruthvi45/authcore/internal/store"
)

var (
	// ErrFamilyInactive reports that a refresh family has been revoked or
	// has expired.
	ErrFamilyInactive = errors.New("refresh family inactive")
	// ErrRefreshIDRetired reports that the presented refresh token id is
	// not the family's current id. Under an active family this is reuse.
	ErrRefreshIDRetired = errors.New("refresh token id retired")
)

// FamilyStore tracks refresh-token families in Redis. Per family it keeps an
// active marker, the single currently-valid refresh token id, and an optional
// revocation marker; per principal it keeps an index of live families.
//
// Key layout (all TTL-bound, nothing grows without expiry):
//
//	fam:<familyID>      — active marker, value = principal id
//	rtid:<jti>          — current refresh id, value = family id (CAD target)
//	rvk:fam:<familyID>  — family revocation marker
//	rvk:jti:<jti>       — access token revocation marker
//	pfam:<principalID>  — set of the principal's family ids
type FamilyStore struct {
	store *store.Store
}

// NewFamilyStore creates a FamilyStore on the shared store.
func NewFamilyStore(st *store.Store) *FamilyStore {
	return &FamilyStore{store: st}
}

// Register records a new family as active with its first refresh id and adds
// it to the principal's family index.
func (f *FamilyStore) Register(ctx context.Context, familyID, principalID, refreshID string, ttl time.Duration) error {
	if err := f.store.SetWithTTL(ctx, familyKey(familyID), []byte(principalID), ttl); err != nil {
		return err
	}
	if err := f.store.SetWithTTL(ctx, refreshIDKey(refreshID), []byte(familyID), ttl); err != nil {
		return err
	}
	return f.store.AddToSet(ctx, principalFamiliesKey(principalID), familyID, ttl)
}

// Rotate retires the presented refresh id and installs nextID as the family's
// current id. The retire step is compare-and-delete, so exactly one of any
// number of concurrent calls with the same presented id can win. Losers get
// ErrRefreshIDRetired when the family is still active (reuse of a retired id)
// or ErrFamilyInactive when the family itself is gone.
func (f *FamilyStore) Rotate(ctx context.Context, familyID, presentedID, nextID string, ttl time.Duration) error {
	revoked, err := f.store.AnyExists(ctx, familyRevocationKey(familyID))
	if err != nil {
		return err
	}
	if revoked {
		return ErrFamilyInactive
	}

	won, err := f.store.CompareAndDelete(ctx, refreshIDKey(presentedID), []byte(familyID))
	if err != nil {
		return err
	}
	if !won {
		active, err := f.Active(ctx, familyID)
		if err != nil {
			return err
		}
		if active {
			return ErrRefreshIDRetired
		}
		return ErrFamilyInactive
	}

	principalID, err := f.principalOf(ctx, familyID)
	if err != nil {
		return err
	}

	if err := f.store.SetWithTTL(ctx, refreshIDKey(nextID), []byte(familyID), ttl); err != nil {
		return err
	}
	// The family stays alive as long as it keeps rotating.
	if err := f.store.SetWithTTL(ctx, familyKey(familyID), []byte(principalID), ttl); err != nil {
		return err
	}
	return nil
}

// Active reports whether the family's active marker is present.
func (f *FamilyStore) Active(ctx context.Context, familyID string) (bool, error) {
	_, err := f.store.Get(ctx, familyKey(familyID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// RevokeFamily drops the active marker and writes a revocation marker whose
// TTL matches the longest outstanding token in the family, so the marker
// outlives every token it needs to block and then expires on its own.
func (f *FamilyStore) RevokeFamily(ctx context.Context, familyID string, ttl time.Duration) error {
	if err := f.store.SetWithTTL(ctx, familyRevocationKey(familyID), []byte{1}, ttl); err != nil {
		return err
	}
	return f.store.Delete(ctx, familyKey(familyID))
}

// RevokeAccessID writes a revocation marker for one access token id with
// TTL equal to the token's remaining lifetime.
func (f *FamilyStore) RevokeAccessID(ctx context.Context, jti string, remaining time.Duration) error {
	if remaining <= 0 {
		// Already expired; signature/expiry checks reject it without us.
		return nil
	}
	return f.store.SetWithTTL(ctx, accessRevocationKey(jti), []byte{1}, remaining)
}

// Revoked reports whether the access token id or its family carries a
// revocation marker, in a single store round trip.
func (f *FamilyStore) Revoked(ctx context.Context, jti, familyID string) (bool, error) {
	return f.store.AnyExists(ctx, accessRevocationKey(jti), familyRevocationKey(familyID))
}

// RevokeAllForPrincipal revokes every family in the principal's index and
// clears the index. Used after password reset and for admin lockout.
func (f *FamilyStore) RevokeAllForPrincipal(ctx context.Context, principalID string, ttl time.Duration) error {
	families, err := f.store.SetMembers(ctx, principalFamiliesKey(principalID))
	if err != nil {
		return err
	}
	for _, familyID := range families {
		if err := f.RevokeFamily(ctx, familyID, ttl); err != nil {
			return err
		}
	}
	return f.store.Delete(ctx, principalFamiliesKey(principalID))
}

func (f *FamilyStore) principalOf(ctx context.Context, familyID string) (string, error) {
	data, err := f.store.Get(ctx, familyKey(familyID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrFamilyInactive
		}
		return "", err
	}
	return string(data), nil
}

func familyKey(familyID string) string {
	return "fam:" + familyID
}

func refreshIDKey(jti string) string {
	return "rtid:" + jti
}

func familyRevocationKey(familyID string) string {
	return "rvk:fam:" + familyID
}

func accessRevocationKey(jti string) string {
	return "rvk:jti:" + jti
}

func principalFamiliesKey(principalID string) string {
	return "pfam:" + principalID
}
