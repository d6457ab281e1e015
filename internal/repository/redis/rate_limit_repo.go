package redis

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/unimart/unimart-server/internal/repository"
	"github.com/unimart/unimart-server/pkg/logger"
)

type rateLimiter struct {
	client *redis.Client
}

func NewRateLimiter(url string) (repository.RateLimiter, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return &rateLimiter{client: redis.NewClient(opts)}, nil
}

// Allow implements a fixed-window counter: INCR on a hashed key, EXPIRE
// on first hit. Backend errors fail open so Redis outages never lock
// users out of auth.
func (r *rateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	hasher := sha256.New()
	hasher.Write([]byte(key))
	hashedKey := fmt.Sprintf("rl:%x", hasher.Sum(nil))

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	count, err := r.client.Incr(ctx, hashedKey).Result()
	if err != nil {
		logger.WarnContext(ctx, "Rate limit check failed, allowing request", "error", err)
		return true, nil
	}
	if count == 1 {
		if err := r.client.Expire(ctx, hashedKey, window).Err(); err != nil {
			logger.WarnContext(ctx, "Failed to set rate limit window", "error", err)
		}
	}

	return count <= int64(limit), nil
}
