package stores

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"io"
	"time"

	"github.com/Rathodpruthvi45/authcore/internal/store"
)

const singleUseRecordVersionV1 = 1

// Purpose discriminates what a single-use token may be redeemed for.
// A reset token must never redeem as a verification token.
type Purpose uint8

const (
	PurposeVerifyEmail Purpose = iota + 1
	PurposeResetPassword
)

var (
	// ErrSingleUseNotFound covers both never-issued and already-redeemed
	// tokens; GETDEL makes the two indistinguishable on purpose.
	ErrSingleUseNotFound = errors.New("single-use token not found")
	// ErrSingleUseExpired reports a record past its expiry that the store
	// had not yet evicted.
	ErrSingleUseExpired = errors.New("single-use token expired")
	// ErrSingleUseWrongPurpose reports a purpose mismatch. The record is
	// already consumed by the time this is returned.
	ErrSingleUseWrongPurpose = errors.New("single-use token purpose mismatch")
	// ErrSingleUseCorrupt reports an undecodable record blob.
	ErrSingleUseCorrupt = errors.New("single-use token record corrupt")
)

// SingleUseRecord is the stored payload of one outstanding token.
type SingleUseRecord struct {
	Purpose     Purpose
	PrincipalID string
	ExpiresAt   int64
}

// SingleUseStore persists single-use token records keyed by the SHA-256 of
// the opaque token value, so a store dump never reveals redeemable tokens.
type SingleUseStore struct {
	store  *store.Store
	prefix string
}

// NewSingleUseStore creates a SingleUseStore with the given key prefix.
func NewSingleUseStore(st *store.Store, prefix string) *SingleUseStore {
	if prefix == "" {
		prefix = "sut"
	}
	return &SingleUseStore{store: st, prefix: prefix}
}

func (s *SingleUseStore) key(tokenValue string) string {
	sum := sha256.Sum256([]byte(tokenValue))
	return s.prefix + ":" + base64.RawURLEncoding.EncodeToString(sum[:])
}

// Save persists the record under the hashed token value with the given TTL.
func (s *SingleUseStore) Save(ctx context.Context, tokenValue string, record *SingleUseRecord, ttl time.Duration) error {
	encoded, err := encodeSingleUseRecord(record)
	if err != nil {
		return err
	}
	return s.store.SetWithTTL(ctx, s.key(tokenValue), encoded, ttl)
}

// Redeem atomically removes the record and validates it. The removal happens
// first, so expiry and purpose failures still consume the token: a guessed
// value can be probed exactly once regardless of outcome.
func (s *SingleUseStore) Redeem(ctx context.Context, tokenValue string, purpose Purpose, now time.Time) (*SingleUseRecord, error) {
	data, err := s.store.GetAndDelete(ctx, s.key(tokenValue))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSingleUseNotFound
		}
		return nil, err
	}

	record, err := decodeSingleUseRecord(data)
	if err != nil {
		return nil, err
	}
	if now.Unix() > record.ExpiresAt {
		return nil, ErrSingleUseExpired
	}
	if record.Purpose != purpose {
		return nil, ErrSingleUseWrongPurpose
	}

	return record, nil
}

func encodeSingleUseRecord(record *SingleUseRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(singleUseRecordVersionV1)
	buf.WriteByte(byte(record.Purpose))

	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}

	if len(record.PrincipalID) > 65535 {
		return nil, errors.New("single-use record principal id too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.PrincipalID))); err != nil {
		return nil, err
	}
	buf.WriteString(record.PrincipalID)

	return buf.Bytes(), nil
}

func decodeSingleUseRecord(data []byte) (*SingleUseRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil || version != singleUseRecordVersionV1 {
		return nil, ErrSingleUseCorrupt
	}

	purpose, err := reader.ReadByte()
	if err != nil {
		return nil, ErrSingleUseCorrupt
	}
	if Purpose(purpose) != PurposeVerifyEmail && Purpose(purpose) != PurposeResetPassword {
		return nil, ErrSingleUseCorrupt
	}

	record := &SingleUseRecord{Purpose: Purpose(purpose)}

	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, ErrSingleUseCorrupt
	}

	var idLen uint16
	if err := binary.Read(reader, binary.BigEndian, &idLen); err != nil {
		return nil, ErrSingleUseCorrupt
	}
	principalID := make([]byte, idLen)
	if _, err := io.ReadFull(reader, principalID); err != nil {
		return nil, ErrSingleUseCorrupt
	}
	record.PrincipalID = string(principalID)

	if reader.Len() != 0 {
		return nil, ErrSingleUseCorrupt
	}

	return record, nil
}
