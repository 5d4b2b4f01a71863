package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// SlidingWindowConfig defines configuration for the sliding window limiter.
type SlidingWindowConfig struct {
	KeyPrefix string
}

// RateLimitRepository persists rate-limit attempts in Redis sorted sets keyed
// by caller identity, scored by attempt time.
type RateLimitRepository struct {
	client *redis.Client
	cfg    SlidingWindowConfig
}

// NewRateLimitRepository constructs a repository using the provided Redis client and config.
func NewRateLimitRepository(client *redis.Client, cfg SlidingWindowConfig) *RateLimitRepository {
	return &RateLimitRepository{client: client, cfg: cfg}
}

// Allow trims the window, counts remaining attempts, and records the new one
// when under the limit. The returned duration is how long the caller should
// wait before the oldest in-window attempt ages out.
func (r *RateLimitRepository) Allow(ctx context.Context, identifier string, limit int, window time.Duration, now time.Time) (bool, time.Duration, error) {
	if limit <= 0 || window <= 0 {
		return true, 0, nil
	}

	key := r.key(identifier)
	threshold := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	pipe := r.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", threshold)
	count := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("redis trim window: %w", err)
	}

	if count.Val() >= int64(limit) {
		retry := window
		oldest, err := r.client.ZRangeWithScores(ctx, key, 0, 0).Result()
		if err == nil && len(oldest) == 1 {
			retry = time.Unix(0, int64(oldest[0].Score)).Add(window).Sub(now)
			if retry < 0 {
				retry = 0
			}
		}
		return false, retry, nil
	}

	record := r.client.TxPipeline()
	record.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: now.UnixNano()})
	record.Expire(ctx, key, window*2)
	if _, err := record.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("redis record attempt: %w", err)
	}

	return true, 0, nil
}

func (r *RateLimitRepository) key(identifier string) string {
	if r.cfg.KeyPrefix == "" {
		return identifier
	}
	return fmt.Sprintf("%s:%s", r.cfg.KeyPrefix, identifier)
}
