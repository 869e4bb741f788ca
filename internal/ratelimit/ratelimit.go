package ratelimit

import (
	"context"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter implements a fixed-window counter on Redis, applied to the
// credential-facing endpoints (login, resend-verification). It fails open:
// an unreachable Redis never locks users out.
type Limiter struct {
	client *redislib.Client
	limit  int
	window time.Duration
	logger *zap.Logger
}

func New(client *redislib.Client, limit int, window time.Duration, logger *zap.Logger) *Limiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limiter{
		client: client,
		limit:  limit,
		window: window,
		logger: logger,
	}
}

// Allow reports whether another attempt is permitted for the given key
// within the current window.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.client == nil {
		return true
	}

	redisKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		l.logger.Warn("rate limit check failed, allowing request", zap.Error(err))
		return true
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			l.logger.Warn("failed to set rate limit window", zap.Error(err))
		}
	}

	return count <= int64(l.limit)
}
