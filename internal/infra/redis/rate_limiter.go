package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter is a fixed-window counter per key.
type RateLimiter struct {
	client RedisClient
	limit  int
	window time.Duration
}

func NewRateLimiter(client RedisClient, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window}
}

func (r *RateLimiter) allow(ctx context.Context, key string) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, r.window); err != nil {
			return false, err
		}
	}
	return count <= int64(r.limit), nil
}

// AllowSender counts one inbound message for senderID.
func (r *RateLimiter) AllowSender(ctx context.Context, senderID string) (bool, error) {
	return r.allow(ctx, SenderRateKey(senderID))
}

func SenderRateKey(senderID string) string {
	return fmt.Sprintf("rate_limit:inbound:%s", senderID)
}
