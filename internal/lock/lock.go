package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sponsorhub-backend/internal/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrNotAcquired is returned when another holder owns the lock
var ErrNotAcquired = errors.New("lock not acquired")

// Locker hands out short-lived exclusive locks keyed by name
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error)
}

// Release gives the lock back. It is a no-op once the lock has expired or been taken over.
type Release func(ctx context.Context) error

// release only deletes the key when it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisLocker struct {
	client *redis.Client
	prefix string
}

func NewRedisLocker(client *redis.Client, prefix string) Locker {
	return &redisLocker{client: client, prefix: prefix}
}

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error) {
	fullKey := l.prefix + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		logger.Error("Failed to acquire lock", "key", fullKey, "error", err)
		return nil, fmt.Errorf("failed to acquire lock %s: %w", fullKey, err)
	}
	if !ok {
		logger.Debug("Lock held by another caller", "key", fullKey)
		return nil, ErrNotAcquired
	}

	logger.Debug("Lock acquired", "key", fullKey, "ttl", ttl)
	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			logger.Warn("Failed to release lock", "key", fullKey, "error", err)
			return err
		}
		return nil
	}, nil
}

// PaymentKey names the lock that serializes payment verification for an intent
func PaymentKey(intentID int32) string {
	return fmt.Sprintf("payment:intent:%d", intentID)
}
