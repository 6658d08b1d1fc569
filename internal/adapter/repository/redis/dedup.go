package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DedupStore implements usecase.DedupStore using Redis SetNX. One key guards
// one (owner, story, kind) combination for the duration of the window.
type DedupStore struct {
	client *redis.Client
	prefix string
}

// NewDedupStore creates a new DedupStore.
func NewDedupStore(client *redis.Client) *DedupStore {
	return &DedupStore{
		client: client,
		prefix: "dedup:",
	}
}

// Acquire claims the key for the window. False means another request holds it.
func (s *DedupStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, s.prefix+key, "held", ttl).Result()
}

// Release frees the key early so an explicit retry is not locked out.
func (s *DedupStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
