package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrLockHeld is returned when another holder owns the lock.
var ErrLockHeld = errors.New("lock already held")

// Lock is a SetNX lock owned by a single token. Release is a no-op once the
// key has expired or was taken over by another owner.
type Lock struct {
	client *Client
	key    string
	token  string
}

// releaseScript deletes the key only when the caller still owns it.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`

// AcquireLock takes the named lock for at most ttl. Callers serialize on the
// key: property calendars during booking, order ids during settlement.
func (c *Client) AcquireLock(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	lockKey := c.prefixKey("lock:" + key)
	token := uuid.NewString()

	ok, err := c.rdb.SetNX(ctx, lockKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	return &Lock{client: c, key: lockKey, token: token}, nil
}

func (l *Lock) Release(ctx context.Context) error {
	_, err := l.client.rdb.Eval(ctx, releaseScript, []string{l.key}, l.token).Result()
	return err
}
