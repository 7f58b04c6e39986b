package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rankscope/rankscope/pkg/errors"
)

// ErrLockNotAcquired is returned when another holder owns the lock.
var ErrLockNotAcquired = errors.New(errors.ErrCodeConflict, "lock already held")

// releaseScript deletes the key only when the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock is a single-instance Redis lock.  The worker takes one per target
// domain so two analysis runs for the same target never execute
// concurrently.
type Lock struct {
	client *Client
	key    string
	token  string
	ttl    time.Duration
}

// NewLock prepares a lock on key with the given TTL.
func NewLock(client *Client, key string, ttl time.Duration) (*Lock, error) {
	if client == nil {
		return nil, errors.NewValidation("Lock requires a redis client")
	}
	if key == "" {
		return nil, errors.NewValidation("Lock requires a key")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Lock{
		client: client,
		key:    "lock:" + key,
		token:  uuid.NewString(),
		ttl:    ttl,
	}, nil
}

// Acquire takes the lock, returning ErrLockNotAcquired when held elsewhere.
func (l *Lock) Acquire(ctx context.Context) error {
	ok, err := l.client.Raw().SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "lock acquire failed")
	}
	if !ok {
		return ErrLockNotAcquired
	}
	return nil
}

// Release frees the lock if this instance still holds it.  Releasing an
// expired or foreign lock is a no-op.
func (l *Lock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client.Raw(), []string{l.key}, l.token).Err(); err != nil && err != redis.Nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "lock release failed")
	}
	return nil
}
