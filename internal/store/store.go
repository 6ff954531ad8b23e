package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound reports that the requested key does not exist.
	ErrNotFound = errors.New("store key not found")
	// ErrUnavailable reports a Redis transport or server failure. Callers
	// treat it as a distinct failure kind and fail closed.
	ErrUnavailable = errors.New("store unavailable")
)

// compareAndDelete removes KEYS[1] only when its current value equals ARGV[1].
// Returns 1 on deletion, 0 otherwise. This is the winner election used by
// refresh rotation: at most one concurrent caller observes 1.
const compareAndDeleteScript = `
local current = redis.call("GET", KEYS[1])
if current == false then
  return 0
end
if current ~= ARGV[1] then
  return 0
end
redis.call("DEL", KEYS[1])
return 1
`

var compareAndDeleteLua = redis.NewScript(compareAndDeleteScript)

// incrementWithTTL bumps the counter and arms the window TTL on the first hit,
// returning {count, remaining window in ms} from one round trip.
const incrementWithTTLScript = `
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local remaining = redis.call("PTTL", KEYS[1])
return {count, remaining}
`

var incrementWithTTLLua = redis.NewScript(incrementWithTTLScript)

// Store exposes the atomic key-value operations shared by the rate limiter,
// the token family registry, and the single-use token records.
type Store struct {
	redis redis.UniversalClient
}

// New creates a Store backed by the given Redis client.
func New(redisClient redis.UniversalClient) *Store {
	return &Store{redis: redisClient}
}

// Get returns the raw value at key, or ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return data, nil
}

// SetWithTTL writes value at key with the given expiry. A non-positive TTL is
// rejected here rather than silently creating an immortal key.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("%w: non-positive ttl for %q", ErrUnavailable, key)
	}
	if err := s.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// IncrementWithTTL atomically increments the counter at key, arming ttl on the
// first hit of the window. It returns the new count and the remaining window.
func (s *Store) IncrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, time.Duration, error) {
	res, err := incrementWithTTLLua.Run(ctx, s.redis, []string{key}, ttl.Milliseconds()).Slice()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("%w: unexpected increment reply", ErrUnavailable)
	}

	count, ok := res[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("%w: unexpected increment count type", ErrUnavailable)
	}
	remainingMS, ok := res[1].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("%w: unexpected increment ttl type", ErrUnavailable)
	}
	if remainingMS < 0 {
		remainingMS = 0
	}

	return count, time.Duration(remainingMS) * time.Millisecond, nil
}

// GetAndDelete atomically removes key and returns its former value. Exactly
// one of two concurrent callers can receive the value; the other observes
// ErrNotFound.
func (s *Store) GetAndDelete(ctx context.Context, key string) ([]byte, error) {
	data, err := s.redis.GetDel(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return data, nil
}

// CompareAndDelete removes key only if its value equals expected. It reports
// whether this caller performed the deletion.
func (s *Store) CompareAndDelete(ctx context.Context, key string, expected []byte) (bool, error) {
	res, err := compareAndDeleteLua.Run(ctx, s.redis, []string{key}, expected).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return res == 1, nil
}

// Delete removes the given keys. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// AnyExists reports whether at least one of the given keys is present, using
// a single MGET round trip. Used by the access-token revocation check.
func (s *Store) AnyExists(ctx context.Context, keys ...string) (bool, error) {
	if len(keys) == 0 {
		return false, nil
	}
	values, err := s.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	for _, v := range values {
		if v != nil {
			return true, nil
		}
	}
	return false, nil
}

// AddToSet inserts member into the set at key and extends the set's TTL.
// Used for the principal-to-family index.
func (s *Store) AddToSet(ctx context.Context, key, member string, ttl time.Duration) error {
	if err := s.redis.SAdd(ctx, key, member).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if ttl > 0 {
		if err := s.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return nil
}

// SetMembers returns all members of the set at key. A missing set is empty.
func (s *Store) SetMembers(ctx context.Context, key string) ([]string, error) {
	members, err := s.redis.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return members, nil
}

// RemoveFromSet drops member from the set at key.
func (s *Store) RemoveFromSet(ctx context.Context, key, member string) error {
	if err := s.redis.SRem(ctx, key, member).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
