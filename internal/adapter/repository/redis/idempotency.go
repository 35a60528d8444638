package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// PendingMarker is stored under a key while its request is still running.
const PendingMarker = "processing"

const keyPrefix = "walletledger:idempotency:"

// claimScript returns the stored value of KEYS[1], or claims the key with
// ARGV[1] for ARGV[2] milliseconds and returns nil.
var claimScript = redis.NewScript(`
local existing = redis.call("GET", KEYS[1])
if existing then
	return existing
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
return false
`)

// IdempotencyStore implements usecase.IdempotencyStore on Redis. Claiming a
// key and reading a previous response happen in one script call.
type IdempotencyStore struct {
	client redis.Cmdable
	prefix string
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client, prefix: keyPrefix}
}

func (s *IdempotencyStore) key(k string) string {
	return s.prefix + k
}

// CheckAndSet returns the value stored under key when there is one.
// Otherwise it stores response, or PendingMarker when response is nil, and
// reports false.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	value := []byte(PendingMarker)
	if response != nil {
		value = response
	}

	existing, err := claimScript.Run(ctx, s.client, []string{s.key(key)}, value, ttlMillis(ttl)).Text()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil, nil
	case err != nil:
		return false, nil, err
	}
	return true, []byte(existing), nil
}

// Update stores the final response under key.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(key), response, ttl).Err()
}

// Delete releases key so the request can be retried.
func (s *IdempotencyStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

func ttlMillis(ttl time.Duration) int64 {
	if ms := ttl.Milliseconds(); ms > 0 {
		return ms
	}
	return 1
}
