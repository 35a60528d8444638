package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestIdempotencyStore_CheckAndSetExisting(t *testing.T) {
	f := newStoreFixture(t)
	store, client := f.store, f.client
	ctx := context.Background()

	if err := client.Set(ctx, f.key("key"), "cached", time.Minute).Err(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	exists, resp, err := store.CheckAndSet(ctx, "key", nil, time.Minute)
	if err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}

	if !exists || string(resp) != "cached" {
		t.Fatalf("expected existing cached response, got exists=%v resp=%s", exists, resp)
	}
}

func TestIdempotencyStore_CheckAndSetLocksNewKey(t *testing.T) {
	f := newStoreFixture(t)
	store, client := f.store, f.client
	ctx := context.Background()

	exists, resp, err := store.CheckAndSet(ctx, "pending", nil, time.Minute)
	if err != nil || exists || resp != nil {
		t.Fatalf("unexpected result: exists=%v resp=%v err=%v", exists, resp, err)
	}

	val, err := client.Get(ctx, f.key("pending")).Result()
	if err != nil || val != PendingMarker {
		t.Fatalf("expected placeholder lock, got val=%s err=%v", val, err)
	}

	exists, resp, err = store.CheckAndSet(ctx, "pending", nil, time.Minute)
	if err != nil || !exists || string(resp) != PendingMarker {
		t.Fatalf("expected in-flight marker, got exists=%v resp=%s err=%v", exists, resp, err)
	}
}

func TestIdempotencyStore_Update(t *testing.T) {
	f := newStoreFixture(t)
	store, client := f.store, f.client
	ctx := context.Background()

	if err := store.Update(ctx, "complete", []byte("done"), time.Minute); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	val, err := client.Get(ctx, f.key("complete")).Result()
	if err != nil || val != "done" {
		t.Fatalf("expected stored response, got val=%s err=%v", val, err)
	}
}

func TestIdempotencyStore_DeleteReleasesKey(t *testing.T) {
	f := newStoreFixture(t)
	store := f.store
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, "failed", nil, time.Minute); err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}
	if err := store.Delete(ctx, "failed"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	exists, _, err := store.CheckAndSet(ctx, "failed", nil, time.Minute)
	if err != nil || exists {
		t.Fatalf("expected key to be free again, got exists=%v err=%v", exists, err)
	}
}

func TestIdempotencyStore_Expires(t *testing.T) {
	f := newStoreFixture(t)
	store := f.store
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, "ttl", []byte("body"), time.Minute); err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}
	f.server.FastForward(2 * time.Minute)

	exists, _, err := store.CheckAndSet(ctx, "ttl", nil, time.Minute)
	if err != nil || exists {
		t.Fatalf("expected expired key, got exists=%v err=%v", exists, err)
	}
}

func TestIdempotencyStore_ConcurrentClaimsHaveOneWinner(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	const callers = 16
	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			exists, _, err := f.store.CheckAndSet(ctx, "race", nil, time.Minute)
			if err != nil {
				t.Errorf("CheckAndSet failed: %v", err)
				return
			}
			if !exists {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := winners.Load(); got != 1 {
		t.Fatalf("expected exactly one claim to win, got %d", got)
	}
}

func TestTTLMillis(t *testing.T) {
	tests := []struct {
		ttl  time.Duration
		want int64
	}{
		{ttl: time.Minute, want: 60000},
		{ttl: 1500 * time.Microsecond, want: 1},
		{ttl: 0, want: 1},
		{ttl: -time.Second, want: 1},
	}

	for _, tt := range tests {
		if got := ttlMillis(tt.ttl); got != tt.want {
			t.Fatalf("ttlMillis(%s) = %d, want %d", tt.ttl, got, tt.want)
		}
	}
}
