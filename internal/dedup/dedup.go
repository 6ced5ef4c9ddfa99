// Package dedup provides a TTL-keyed deduplication store used to rate-limit
// monitoring alerts. The store is injected explicitly; there is no ambient
// package-level state.
package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store answers whether a key has been seen within its TTL window.
type Store interface {
	// Once returns true the first time key is seen within ttl, false while
	// the window is still open.
	Once(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// RedisStore implements Store on top of SET NX with expiry, safe across
// multiple service instances.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing redis client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "rcn:dedup:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Once(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, s.prefix+key, 1, ttl).Result()
}

// MemoryStore is a single-process Store for tests and redis-less deployments.
type MemoryStore struct {
	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: map[string]time.Time{}, now: time.Now}
}

func (s *MemoryStore) Once(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expiry, ok := s.seen[key]; ok && now.Before(expiry) {
		return false, nil
	}

	for k, expiry := range s.seen {
		if !now.Before(expiry) {
			delete(s.seen, k)
		}
	}

	s.seen[key] = now.Add(ttl)
	return true, nil
}
