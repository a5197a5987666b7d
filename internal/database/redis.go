package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/stockboard/marketdata-go/internal/config"
)

type RedisClient struct {
	Client *redis.Client
}

// NewRedisConnection dials the shared cache tier. The tier is optional: when
// no address is configured the caller gets (nil, nil) and runs local-only.
// A failed ping is also not fatal for the same reason — the service degrades
// rather than refusing to start.
func NewRedisConnection(cfg config.RemoteCacheConfig) (*RedisClient, error) {
	if cfg.Addr == "" {
		logrus.Info("Remote cache tier not configured, running local-only")
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).Warn("Remote cache tier unreachable, continuing local-only")
		_ = rdb.Close()
		return nil, nil
	}

	logrus.Info("Successfully connected to Redis")

	return &RedisClient{Client: rdb}, nil
}

func (r *RedisClient) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
		logrus.Info("Redis connection closed")
	}
}

func (r *RedisClient) HealthCheck(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}
