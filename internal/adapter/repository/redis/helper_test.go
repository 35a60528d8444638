package redis

import (
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
)

// storeFixture is an idempotency store over a throwaway miniredis server.
type storeFixture struct {
	store  *IdempotencyStore
	client *redislib.Client
	server *miniredis.Miniredis
}

func newStoreFixture(t *testing.T) storeFixture {
	t.Helper()

	server := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return storeFixture{
		store:  NewIdempotencyStore(client),
		client: client,
		server: server,
	}
}

// key returns the raw redis key the store uses for an idempotency key.
func (f storeFixture) key(k string) string {
	return f.store.key(k)
}
