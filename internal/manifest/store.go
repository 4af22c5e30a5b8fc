package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "cineplayer:manifest:"

// Store persists fallback caches per media item.
type Store interface {
	Get(ctx context.Context, key string) (FallbackCache, bool, error)
	Set(ctx context.Context, key string, cache FallbackCache) error
}

type memoryEntry struct {
	cache     FallbackCache
	expiresAt time.Time
}

// MemoryStore keeps caches in process. A zero ttl keeps entries forever.
type MemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (FallbackCache, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return FallbackCache{}, false, nil
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return FallbackCache{}, false, nil
	}
	return entry.cache, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, cache FallbackCache) error {
	entry := memoryEntry{cache: cache}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

// RedisStore shares caches between replicas. Values are JSON encoded.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context, key string) (FallbackCache, bool, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return FallbackCache{}, false, nil
		}
		return FallbackCache{}, false, err
	}
	var cache FallbackCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return FallbackCache{}, false, err
	}
	return cache, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, cache FallbackCache) error {
	data, err := json.Marshal(cache)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisKeyPrefix+key, data, r.ttl).Err()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
