package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes a lock only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

func carLockKey(carID int64) string {
	return fmt.Sprintf("lock:car:%d", carID)
}

// AcquireCarLock attempts to acquire the booking lock of a car.
// On success it returns the token that releases the lock; ok is false if
// the lock is already held.
func (s *LockStore) AcquireCarLock(ctx context.Context, carID int64, ttl time.Duration) (token string, ok bool, err error) {
	token = uuid.NewString()
	ok, err = s.client.SetNX(ctx, carLockKey(carID), token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}

	return token, true, nil
}

// ReleaseCarLock releases the booking lock of a car if token still owns it.
// A lock that expired and was taken by another holder is left alone.
func (s *LockStore) ReleaseCarLock(ctx context.Context, carID int64, token string) error {
	return releaseScript.Run(ctx, s.client, []string{carLockKey(carID)}, token).Err()
}
