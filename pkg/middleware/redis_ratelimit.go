package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisLimiter is a fixed-window limiter shared across instances
type RedisLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
	prefix string
}

// NewRedisLimiter creates a Redis-backed limiter
func NewRedisLimiter(redisClient *redis.Client, config RateLimitConfig, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisLimiter{
		redis:  redisClient,
		config: config.normalized(),
		prefix: prefix,
	}
}

// Allow implements Limiter. The window starts at the first request for key.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)

	pipe := l.redis.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pttl := pipe.PTTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("redis error: %w", err)
	}

	ttl := pttl.Val()
	if ttl < 0 {
		// first request of the window
		if err := l.redis.PExpire(ctx, redisKey, l.config.WindowDuration).Err(); err != nil {
			return Decision{}, fmt.Errorf("redis error: %w", err)
		}
		ttl = l.config.WindowDuration
	}
	return decide(l.config, incr.Val(), time.Now().Add(ttl)), nil
}

// Reset clears the count for a key
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.redis.Del(ctx, fmt.Sprintf("%s:%s", l.prefix, key)).Err()
}
