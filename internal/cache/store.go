package cache

import (
	"context"
	"time"
)

// Entry is the envelope every tier persists. ExpiresAt is carried inside the
// payload as well as in the backend TTL so that freshness can be judged
// identically no matter which tier served the read.
type Entry struct {
	Data      string    `json:"data"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the entry is past its freshness window.
func (e Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Store is one backing tier of the cache. Implementations never return
// errors from reads: any backend failure is reported as a miss, and writes
// are best-effort. The one error-returning operation is Delete so explicit
// cache clears can report what they could not remove.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool)
	Set(ctx context.Context, key string, entry Entry, ttl time.Duration) bool
	Exists(ctx context.Context, key string) bool
	Delete(ctx context.Context, key string) error
}
