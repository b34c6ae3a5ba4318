package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// RateLimitResult reports the outcome of a sliding window check.
type RateLimitResult struct {
	Allowed   bool
	Remaining int64
	ResetAt   time.Time
}

// slidingWindowScript trims entries older than the window, then admits the
// request if the remaining count is under the limit.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call("ZREMRANGEBYSCORE", key, "-inf", window_start)
	local count = redis.call("ZCARD", key)
	if count < limit then
		redis.call("ZADD", key, now, now .. "-" .. math.random())
		redis.call("PEXPIRE", key, window_ms)
		return {1, limit - count - 1}
	end
	return {0, 0}
`)

// CheckRateLimit is a sliding window limiter keyed per caller, for example
// "customer:<id>" or "ip:<addr>".
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error) {
	now := time.Now()

	result, err := slidingWindowScript.Run(ctx, c.rdb, []string{c.prefixKey("ratelimit:" + key)},
		now.UnixMilli(),
		now.Add(-window).UnixMilli(),
		limit,
		window.Milliseconds(),
	).Slice()
	if err != nil {
		return nil, err
	}

	return &RateLimitResult{
		Allowed:   result[0].(int64) == 1,
		Remaining: result[1].(int64),
		ResetAt:   now.Add(window),
	}, nil
}

// SimpleRateLimit is a fixed window counter. Cheaper than the sliding window
// but coarse at window boundaries.
func (c *Client) SimpleRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	rlKey := c.prefixKey("ratelimit:" + key)

	count, err := c.rdb.Incr(ctx, rlKey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		c.rdb.Expire(ctx, rlKey, window)
	}
	return count <= limit, nil
}
