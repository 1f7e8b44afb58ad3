package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"fleetbook/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter implements a fixed-window counter per key. The first INCR of
// a window creates the key and arms its expiry.
type RedisLimiter struct {
	client *redis.Client
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, errs.Wrap(err, "rate limit counter unavailable")
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, window).Err(); err != nil {
			// The key would otherwise live forever and lock the caller out
			// permanently, so surface it.
			slog.Error("failed to arm rate limit expiry", "key", key, "error", err)
			return false, errs.Wrap(err, "rate limit expiry failed")
		}
	}
	return count <= int64(limit), nil
}
