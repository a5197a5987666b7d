// Package lock provides the distributed mutual exclusion used to serialize
// token refreshes across stateless instances. It is built on Redis SET NX
// with a TTL; the TTL, not Release, is the real safety net against a crashed
// holder.
package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const lockKey = "marketdata:token:refresh:lock"

// RefreshLock serializes upstream token issuance. The upstream allows
// roughly one issuance per minute across the whole deployment, while the
// deployment runs an unbounded number of concurrent instances; the lock
// bounds the worst case to one extra issuance per expired TTL.
//
// Policy: when the remote store is unavailable the lock fails OPEN —
// Acquire reports success and the caller proceeds. A duplicate refresh
// under store outage is an accepted risk; blocking every caller is not.
type RefreshLock struct {
	client *redis.Client // nil means no remote store configured
	holder string
	ttl    time.Duration
}

func NewRefreshLock(client *redis.Client, ttl time.Duration) *RefreshLock {
	return &RefreshLock{
		client: client,
		holder: uuid.NewString(),
		ttl:    ttl,
	}
}

// Acquire attempts an atomic create-if-absent with TTL. It returns true if
// this instance now holds the lock, and also true whenever the remote store
// is unconfigured or unreachable (fail-open).
func (l *RefreshLock) Acquire(ctx context.Context) bool {
	if l.client == nil {
		return true
	}

	ok, err := l.client.SetNX(ctx, lockKey, l.holder, l.ttl).Result()
	if err != nil {
		logrus.WithError(err).Warn("lock store unavailable, proceeding without lock")
		return true
	}
	return ok
}

// Release deletes the lock key. Best-effort and idempotent: it is safe to
// call when the lock was never held, and a failed delete only means the TTL
// does the cleanup instead.
func (l *RefreshLock) Release(ctx context.Context) {
	if l.client == nil {
		return
	}
	if err := l.client.Del(ctx, lockKey).Err(); err != nil {
		logrus.WithError(err).Debug("lock release failed, TTL will expire it")
	}
}

// WaitForRelease polls for the lock key to disappear, returning once it is
// gone or maxWait has elapsed — the caller proceeds either way. A refresh
// attempt after the wait is idempotent: if the holder finished, the fresh
// cached token is observed and no network call happens.
func (l *RefreshLock) WaitForRelease(ctx context.Context, maxWait, pollInterval time.Duration) {
	if l.client == nil {
		return
	}

	deadline := time.Now().Add(maxWait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		n, err := l.client.Exists(ctx, lockKey).Result()
		if err != nil || n == 0 {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
