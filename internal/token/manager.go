// Package token owns the upstream bearer-token lifecycle: a tiered cache of
// the current token plus a distributed lock that serializes refreshes
// across concurrent stateless instances.
package token

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stockboard/marketdata-go/internal/cache"
	"github.com/stockboard/marketdata-go/internal/lock"
)

const cacheKey = "token:access"

// CachedToken is the bearer credential for the upstream market-data API.
type CachedToken struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Usable reports whether the token is still inside its safe window. The
// buffer keeps callers from sending a token that expires mid-request, and
// is applied by every reader no matter which cache tier served the value.
func (t CachedToken) Usable(now time.Time, buffer time.Duration) bool {
	return t.Value != "" && now.Before(t.ExpiresAt.Add(-buffer))
}

// Exchanger issues a fresh token from the upstream credential endpoint.
type Exchanger interface {
	Exchange(ctx context.Context) (CachedToken, error)
}

// Manager hands out a valid bearer token, refreshing it through the
// distributed lock when stale. Constructed once per process; no globals.
type Manager struct {
	cache     *cache.TieredCache
	lock      *lock.RefreshLock
	exchanger Exchanger

	buffer   time.Duration
	maxWait  time.Duration
	pollIntv time.Duration
}

func NewManager(c *cache.TieredCache, l *lock.RefreshLock, e Exchanger, buffer, maxWait, pollInterval time.Duration) *Manager {
	return &Manager{
		cache:     c,
		lock:      l,
		exchanger: e,
		buffer:    buffer,
		maxWait:   maxWait,
		pollIntv:  pollInterval,
	}
}

// GetToken returns a token that is valid for at least the expiry buffer.
//
// Fast path: a fresh cached token is returned with no lock and no network
// call. Slow path: acquire the refresh lock and exchange; if another
// instance holds the lock, wait (bounded) for it to finish and re-read the
// cache. If the cache is still stale after the wait, exchange anyway — a
// duplicate issuance is tolerated, hanging is not.
//
// A failed exchange is the one hard error this subsystem surfaces: without
// a valid token every dependent upstream call is meaningless.
func (m *Manager) GetToken(ctx context.Context) (CachedToken, error) {
	if tok, ok := m.readCache(ctx); ok {
		return tok, nil
	}

	if m.lock.Acquire(ctx) {
		defer m.lock.Release(ctx)
		return m.refresh(ctx)
	}

	// Another instance is refreshing; give it time to populate the cache.
	m.lock.WaitForRelease(ctx, m.maxWait, m.pollIntv)
	if tok, ok := m.readCache(ctx); ok {
		return tok, nil
	}

	logrus.Warn("token still stale after waiting for refresh holder, issuing duplicate exchange")
	return m.refresh(ctx)
}

func (m *Manager) refresh(ctx context.Context) (CachedToken, error) {
	tok, err := m.exchanger.Exchange(ctx)
	if err != nil {
		return CachedToken{}, err
	}
	m.writeCache(ctx, tok)
	logrus.WithField("expires_at", tok.ExpiresAt).Info("refreshed upstream access token")
	return tok, nil
}

func (m *Manager) readCache(ctx context.Context) (CachedToken, bool) {
	entry, ok := m.cache.Get(ctx, cacheKey)
	if !ok {
		return CachedToken{}, false
	}

	var tok CachedToken
	if err := json.Unmarshal([]byte(entry.Data), &tok); err != nil {
		logrus.WithError(err).Warn("corrupt cached token, forcing refresh")
		return CachedToken{}, false
	}
	if !tok.Usable(time.Now(), m.buffer) {
		return CachedToken{}, false
	}
	return tok, true
}

func (m *Manager) writeCache(ctx context.Context, tok CachedToken) {
	data, err := json.Marshal(tok)
	if err != nil {
		logrus.WithError(err).Error("failed to serialize token for cache")
		return
	}

	now := time.Now()
	m.cache.Set(ctx, cacheKey, cache.Entry{
		Data:      string(data),
		CreatedAt: now,
		ExpiresAt: tok.ExpiresAt,
	}, time.Until(tok.ExpiresAt))
}

// ClearCache drops the cached token from both tiers.
func (m *Manager) ClearCache(ctx context.Context) error {
	return m.cache.Delete(ctx, cacheKey)
}
