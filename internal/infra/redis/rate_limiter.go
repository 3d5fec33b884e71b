package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter is a fixed-window counter keyed by caller.
type RateLimiter struct {
	client RedisClient
	limit  int
	window time.Duration
}

func NewRateLimiter(client RedisClient, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window}
}

// Allow increments the counter for key and reports whether it is still
// within the limit for the current window.
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, r.window); err != nil {
			return false, err
		}
	}
	if count <= int64(r.limit) {
		return true, nil
	}

	// A counter left without a window would deny key forever.
	ttl, err := r.client.TTL(ctx, key)
	if err != nil {
		return false, err
	}
	if ttl < 0 {
		if err := r.client.Expire(ctx, key, r.window); err != nil {
			return false, err
		}
	}
	return false, nil
}

func PinAttemptKey(providerID string) string {
	return fmt.Sprintf("rate_limit:pin:%s", providerID)
}
