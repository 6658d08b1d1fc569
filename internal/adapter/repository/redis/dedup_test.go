package redis

import (
	"context"
	"testing"
	"time"
)

func TestDedupStoreAcquireBlocksSecondCaller(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewDedupStore(client)
	ctx := context.Background()

	acquired, err := store.Acquire(ctx, "owner:story:print", time.Minute)
	if err != nil || !acquired {
		t.Fatalf("expected first acquire to succeed, got acquired=%v err=%v", acquired, err)
	}

	acquired, err = store.Acquire(ctx, "owner:story:print", time.Minute)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if acquired {
		t.Fatalf("expected second acquire to be blocked")
	}
}

func TestDedupStoreReleaseFreesKey(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewDedupStore(client)
	ctx := context.Background()

	if _, err := store.Acquire(ctx, "owner:story:narration", time.Minute); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	if err := store.Release(ctx, "owner:story:narration"); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	acquired, err := store.Acquire(ctx, "owner:story:narration", time.Minute)
	if err != nil || !acquired {
		t.Fatalf("expected acquire after release to succeed, got acquired=%v err=%v", acquired, err)
	}
}

func TestDedupStoreWindowExpires(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewDedupStore(client)
	ctx := context.Background()

	if _, err := store.Acquire(ctx, "owner:story:print", time.Second); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	mr.FastForward(2 * time.Second)

	acquired, err := store.Acquire(ctx, "owner:story:print", time.Second)
	if err != nil || !acquired {
		t.Fatalf("expected acquire after expiry to succeed, got acquired=%v err=%v", acquired, err)
	}
}
