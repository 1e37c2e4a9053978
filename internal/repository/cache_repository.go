package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-timetable-ga/pkg/errors"
)

// CacheRepository stores JSON values in Redis. Without a client it keeps them in process memory.
type CacheRepository struct {
	client *redis.Client
	logger *zap.Logger
	memory *memoryCache
}

// NewCacheRepository constructs a cache repository. client may be nil.
func NewCacheRepository(client *redis.Client, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	repo := &CacheRepository{client: client, logger: logger}
	if client == nil {
		repo.memory = newMemoryCache(time.Now)
	}
	return repo
}

// Get unmarshals the cached value into dest or returns ErrCacheMiss.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	var raw []byte
	if r.client == nil {
		var ok bool
		if raw, ok = r.memory.get(key); !ok {
			return appErrors.ErrCacheMiss
		}
	} else {
		var err error
		raw, err = r.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return appErrors.ErrCacheMiss
		}
		if err != nil {
			return fmt.Errorf("redis get %s: %w", key, err)
		}
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Set marshals value and stores it for ttl.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	if r.client == nil {
		r.memory.set(key, payload, ttl)
		return nil
	}
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes a key. Missing keys are not an error.
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	if r.client == nil {
		r.memory.delete(key)
		return nil
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// Ping reports whether the backing store is reachable.
func (r *CacheRepository) Ping(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying Redis connection if present.
func (r *CacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

type memoryCache struct {
	mu    sync.RWMutex
	now   func() time.Time
	items map[string]memoryEntry
}

func newMemoryCache(now func() time.Time) *memoryCache {
	return &memoryCache{now: now, items: make(map[string]memoryEntry)}
}

func (m *memoryCache) set(key string, payload []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := memoryEntry{payload: payload}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.items[key] = entry
	m.evictLocked()
}

func (m *memoryCache) get(key string) ([]byte, bool) {
	m.mu.RLock()
	entry, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		m.delete(key)
		return nil, false
	}
	return entry.payload, true
}

func (m *memoryCache) delete(key string) {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
}

func (m *memoryCache) evictLocked() {
	now := m.now()
	for key, entry := range m.items {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			delete(m.items, key)
		}
	}
}
