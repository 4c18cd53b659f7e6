package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	catalogapp "github.com/LautaroPairuna/micaela-martinez-sub001/internal/application/catalog"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/resource"
	"github.com/redis/go-redis/v9"
)

var (
	_ catalogapp.CountCache = (*RedisCountCache)(nil)
	_ catalogapp.CountCache = (*InMemoryCountCache)(nil)
	_ catalogapp.CountCache = NoopCountCache{}
)

// DefaultCountKeyPrefix namespaces count entries in a shared Redis
const DefaultCountKeyPrefix = "counts:"

// RedisCountCache stores count matrices as JSON strings with a Redis TTL.
// Suitable when several instances serve the same admin.
type RedisCountCache struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisCountCache creates a cache on an existing client
func NewRedisCountCache(client redis.UniversalClient, keyPrefix string) *RedisCountCache {
	if keyPrefix == "" {
		keyPrefix = DefaultCountKeyPrefix
	}
	return &RedisCountCache{client: client, keyPrefix: keyPrefix}
}

// Get returns the cached matrix for key
func (c *RedisCountCache) Get(ctx context.Context, key string) (resource.CountMatrix, bool, error) {
	raw, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cached counts: %w", err)
	}
	var m resource.CountMatrix
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached counts: %w", err)
	}
	return m, true, nil
}

// Set stores m under key for ttl
func (c *RedisCountCache) Set(ctx context.Context, key string, m resource.CountMatrix, ttl time.Duration) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode counts: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache counts: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisCountCache) Close() error {
	return c.client.Close()
}

type countEntry struct {
	m         resource.CountMatrix
	expiresAt time.Time
}

// InMemoryCountCache keeps count matrices in process memory.
// Expired entries are removed lazily on read and by a periodic sweep.
type InMemoryCountCache struct {
	mu        sync.RWMutex
	entries   map[string]countEntry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryCountCache creates a cache that sweeps expired entries every interval
func NewInMemoryCountCache(sweepInterval time.Duration) *InMemoryCountCache {
	c := &InMemoryCountCache{
		entries:  make(map[string]countEntry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	if sweepInterval > 0 {
		c.wg.Add(1)
		go c.sweepLoop(sweepInterval)
	}
	return c
}

// Get returns a copy of the cached matrix for key
func (c *InMemoryCountCache) Get(_ context.Context, key string) (resource.CountMatrix, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	return cloneMatrix(e.m), true, nil
}

// Set stores a copy of m under key for ttl
func (c *InMemoryCountCache) Set(_ context.Context, key string, m resource.CountMatrix, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = countEntry{m: cloneMatrix(m), expiresAt: c.now().Add(ttl)}
	return nil
}

// Size returns the number of stored entries, expired or not
func (c *InMemoryCountCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the sweep goroutine
func (c *InMemoryCountCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

func (c *InMemoryCountCache) sweepLoop(interval time.Duration) {
	defer c.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stopChan:
			return
		}
	}
}

func (c *InMemoryCountCache) sweep() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

func cloneMatrix(m resource.CountMatrix) resource.CountMatrix {
	out := make(resource.CountMatrix, len(m))
	for id, row := range m {
		r := make(map[string]int64, len(row))
		for k, v := range row {
			r[k] = v
		}
		out[id] = r
	}
	return out
}

// NoopCountCache never stores anything
type NoopCountCache struct{}

// Get always misses
func (NoopCountCache) Get(context.Context, string) (resource.CountMatrix, bool, error) {
	return nil, false, nil
}

// Set discards m
func (NoopCountCache) Set(context.Context, string, resource.CountMatrix, time.Duration) error {
	return nil
}

// Close does nothing
func (NoopCountCache) Close() error {
	return nil
}
