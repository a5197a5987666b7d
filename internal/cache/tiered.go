package cache

import (
	"context"
	"sync"
	"time"
)

// Stats tracks cache performance counters across both tiers.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
}

// TieredCache composes the remote shared tier with the local disk tier.
//
// Read policy: remote first, local on miss or remote unavailability. A value
// found locally is not pushed back to the remote tier; the next writer
// repopulates both.
//
// Write policy: best-effort remote, unconditional local. A remote write
// failure is logged inside the store and never fails the caller.
type TieredCache struct {
	remote Store // nil when the remote tier is not configured
	local  Store

	mu    sync.Mutex
	stats Stats
}

func NewTieredCache(remote Store, local Store) *TieredCache {
	return &TieredCache{
		remote: remote,
		local:  local,
	}
}

// RemoteAvailable reports whether a remote tier was configured at startup.
func (c *TieredCache) RemoteAvailable() bool {
	return c.remote != nil
}

func (c *TieredCache) Get(ctx context.Context, key string) (Entry, bool) {
	if c.remote != nil {
		if entry, ok := c.remote.Get(ctx, key); ok {
			c.recordHit()
			return entry, true
		}
	}
	if entry, ok := c.local.Get(ctx, key); ok {
		c.recordHit()
		return entry, true
	}
	c.recordMiss()
	return Entry{}, false
}

func (c *TieredCache) Set(ctx context.Context, key string, entry Entry, ttl time.Duration) {
	if c.remote != nil {
		c.remote.Set(ctx, key, entry, ttl)
	}
	c.local.Set(ctx, key, entry, ttl)
	c.mu.Lock()
	c.stats.Sets++
	c.mu.Unlock()
}

// GetLocal reads from the local tier only, for artifacts that are never
// written to the shared tier.
func (c *TieredCache) GetLocal(ctx context.Context, key string) (Entry, bool) {
	if entry, ok := c.local.Get(ctx, key); ok {
		c.recordHit()
		return entry, true
	}
	c.recordMiss()
	return Entry{}, false
}

// SetLocal writes to the local tier only. Reference data that any instance
// can regenerate independently does not need the shared tier.
func (c *TieredCache) SetLocal(ctx context.Context, key string, entry Entry, ttl time.Duration) {
	c.local.Set(ctx, key, entry, ttl)
	c.mu.Lock()
	c.stats.Sets++
	c.mu.Unlock()
}

func (c *TieredCache) Exists(ctx context.Context, key string) bool {
	if c.remote != nil && c.remote.Exists(ctx, key) {
		return true
	}
	return c.local.Exists(ctx, key)
}

func (c *TieredCache) Delete(ctx context.Context, key string) error {
	var err error
	if c.remote != nil {
		err = c.remote.Delete(ctx, key)
	}
	if lerr := c.local.Delete(ctx, key); lerr != nil {
		err = lerr
	}
	return err
}

// GetStats returns a copy of the current counters.
func (c *TieredCache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *TieredCache) recordHit() {
	c.mu.Lock()
	c.stats.Hits++
	c.mu.Unlock()
}

func (c *TieredCache) recordMiss() {
	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()
}
