package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrKeyExists   = errors.New("idempotency key already exists")
	ErrKeyNotFound = errors.New("idempotency key not found")
)

// pendingMarker is stored while the guarded operation is still in flight.
const pendingMarker = "pending"

// SetIdempotencyKey claims a key without caching a response. The settlement
// worker uses this to skip webhook events it has already applied.
func (c *Client) SetIdempotencyKey(ctx context.Context, key string, ttl time.Duration) error {
	set, err := c.rdb.SetNX(ctx, c.idempotencyKey(key), pendingMarker, ttl).Result()
	if err != nil {
		return err
	}
	if !set {
		return ErrKeyExists
	}
	return nil
}

// GetIdempotencyKey returns the stored value, or ErrKeyNotFound.
func (c *Client) GetIdempotencyKey(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, c.idempotencyKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	return val, err
}

// CheckAndSetIdempotency claims the key and reports any cached response.
// Returns (nil, nil) when the caller won the claim and should proceed,
// (response, nil) when a completed response is cached, and ErrKeyExists when
// another request holds the key but has not finished yet.
func (c *Client) CheckAndSetIdempotency(ctx context.Context, key string, ttl time.Duration) ([]byte, error) {
	set, err := c.rdb.SetNX(ctx, c.idempotencyKey(key), pendingMarker, ttl).Result()
	if err != nil {
		return nil, err
	}
	if set {
		return nil, nil
	}

	val, err := c.rdb.Get(ctx, c.idempotencyKey(key)).Result()
	if err != nil {
		return nil, err
	}
	if val == pendingMarker {
		return nil, ErrKeyExists
	}
	return []byte(val), nil
}

// MarkIdempotencyComplete replaces the pending marker with the response to
// replay on duplicate requests.
func (c *Client) MarkIdempotencyComplete(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, c.idempotencyKey(key), response, ttl).Err()
}

// MarkIdempotencyFailed drops the claim so the request can be retried.
func (c *Client) MarkIdempotencyFailed(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, c.idempotencyKey(key)).Err()
}

func (c *Client) idempotencyKey(key string) string {
	return c.prefixKey("idempotency:" + key)
}
