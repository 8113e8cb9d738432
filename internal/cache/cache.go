// Package cache provides memoization for pipeline results.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"
)

// ErrCacheMiss indicates a cache miss.
var ErrCacheMiss = errors.New("cache miss")

// Client defines the cache interface. Concurrent reads are safe and writes
// are idempotent: the same key always maps to the same value.
type Client interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Key derives a deterministic cache key from a document content hash and
// the configuration fingerprint. Changing any cache-relevant option changes
// the key, so results computed under a different configuration are never
// served.
func Key(contentHash, configFingerprint string) string {
	sum := sha256.Sum256([]byte(contentHash + "|" + configFingerprint))
	return "doc:" + hex.EncodeToString(sum[:])
}

// NoopClient is the disabled-cache client: get always misses and set is a
// no-op, so the pipeline behaves identically whether caching is absent or
// administratively disabled.
type NoopClient struct{}

// NewNoopClient creates a disabled cache client.
func NewNoopClient() *NoopClient {
	return &NoopClient{}
}

// Get always misses.
func (c *NoopClient) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, ErrCacheMiss
}

// Set is a no-op.
func (c *NoopClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

// Delete is a no-op.
func (c *NoopClient) Delete(ctx context.Context, key string) error {
	return nil
}

// Close is a no-op.
func (c *NoopClient) Close() error {
	return nil
}

// MemoryClient implements an in-memory cache.
type MemoryClient struct {
	mu      sync.RWMutex
	data    map[string]memoryEntry
	maxSize int
}

type memoryEntry struct {
	value     []byte
	createdAt time.Time
	expiresAt time.Time
}

// NewMemoryClient creates a new in-memory cache client.
func NewMemoryClient(maxSize int) *MemoryClient {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &MemoryClient{
		data:    make(map[string]memoryEntry),
		maxSize: maxSize,
	}
}

// Get retrieves a value from cache.
func (c *MemoryClient) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}

	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		return nil, ErrCacheMiss
	}

	// Hand out a copy so callers cannot mutate the stored entry.
	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, nil
}

// Set stores a value in cache with TTL. A zero TTL stores forever.
func (c *MemoryClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.data[key]; !exists && len(c.data) >= c.maxSize {
		c.evictOldest()
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	entry := memoryEntry{
		value:     stored,
		createdAt: time.Now(),
	}
	if ttl > 0 {
		entry.expiresAt = entry.createdAt.Add(ttl)
	}
	c.data[key] = entry

	return nil
}

// Delete removes a value from cache.
func (c *MemoryClient) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, key)
	return nil
}

// Clear removes all entries.
func (c *MemoryClient) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[string]memoryEntry)
}

// Len returns the number of live entries.
func (c *MemoryClient) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.data)
}

// Close is a no-op for memory cache.
func (c *MemoryClient) Close() error {
	return nil
}

// evictOldest removes the entry created earliest. Caller holds the lock.
func (c *MemoryClient) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.data {
		if oldestKey == "" || entry.createdAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.createdAt
		}
	}

	if oldestKey != "" {
		delete(c.data, oldestKey)
	}
}
