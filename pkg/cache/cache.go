// Package cache stores JSON-encoded values under string keys for a bounded time.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Cache reads and writes JSON-encoded values.
type Cache interface {
	// Get decodes the value stored under key into dst. It reports false on a miss.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Close() error
}

// Options configures New.
type Options struct {
	// Kind is "none", "memory" or "redis".
	Kind     string
	RedisURL string
}

// New builds the cache selected by opts.Kind.
func New(opts Options) (Cache, error) {
	switch opts.Kind {
	case "none":
		return Nop{}, nil
	case "", "memory":
		return NewMemoryCache(), nil
	case "redis":
		return NewRedisCacheFromURL(opts.RedisURL)
	default:
		return nil, fmt.Errorf("cache: unknown kind %q", opts.Kind)
	}
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string, any) (bool, error) {
	return false, nil
}

func (Nop) Set(context.Context, string, any, time.Duration) error {
	return nil
}

func (Nop) Close() error {
	return nil
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryCache is an in-process Cache. Expired entries are dropped when read.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(entry.payload, dst); err != nil {
		return false, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	c.mu.Lock()
	c.entries[key] = memoryEntry{payload: payload, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Close() error { return nil }
