package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisStore is the remote shared tier. Every Redis failure is logged and
// converted into a miss or a dropped write: the remote tier being down must
// never fail the caller's overall operation.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "marketdata:",
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) (Entry, bool) {
	data, err := s.client.Get(ctx, s.prefix+key).Result()
	if err == redis.Nil {
		return Entry{}, false
	}
	if err != nil {
		logrus.WithError(err).WithField("key", key).Debug("remote cache get failed, treating as miss")
		return Entry{}, false
	}

	var entry Entry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("corrupt remote cache entry, treating as miss")
		return Entry{}, false
	}
	return entry, true
}

func (s *RedisStore) Set(ctx context.Context, key string, entry Entry, ttl time.Duration) bool {
	data, err := json.Marshal(entry)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Error("failed to serialize cache entry")
		return false
	}
	if err := s.client.Set(ctx, s.prefix+key, data, ttl).Err(); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("remote cache write failed")
		return false
	}
	return true
}

func (s *RedisStore) Exists(ctx context.Context, key string) bool {
	n, err := s.client.Exists(ctx, s.prefix+key).Result()
	if err != nil {
		logrus.WithError(err).WithField("key", key).Debug("remote cache exists check failed")
		return false
	}
	return n > 0
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("remote cache delete failed")
		return err
	}
	return nil
}
