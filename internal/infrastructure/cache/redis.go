package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"procurement-backend/internal/config"
)

const pingTimeout = 5 * time.Second

// Open connects to the Redis instance backing idempotency and the INCR
// sequencer. The client is closed again when the first ping fails.
func Open(cfg *config.Config, log logrus.FieldLogger) (*redis.Client, error) {
	r := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
	}
	log.WithFields(logrus.Fields{"addr": cfg.RedisAddr, "db": cfg.RedisDB}).Info("redis: connected")
	return r, nil
}

// Check is a readiness probe over an open client.
func Check(r *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error { return r.Ping(ctx).Err() }
}
