package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// userLockTTL bounds how long a single-flight lock can be held before Redis
// reclaims it, so a crashed holder cannot wedge a user forever.
const userLockTTL = 30 * time.Second

const lockRetryInterval = 25 * time.Millisecond

// AcquireUserLock serializes writes for a single user per §5's per-user
// serialization requirement, implemented as a Redis advisory lock on the
// Hot tier rather than an in-process mutex, so it holds across replicas of
// the store. Callers MUST fetch candidates before calling this — locks are
// only for the commit section, never held across external I/O.
func AcquireUserLock(ctx context.Context, hot *redis.Client, userID uuid.UUID) (release func(context.Context), err error) {
	key := userLockKey(userID)
	token := uuid.NewString()

	for {
		ok, err := hot.SetNX(ctx, key, token, userLockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire user lock for %s: %w", userID, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}

	release = func(releaseCtx context.Context) {
		// Only release if we still hold it: a lock whose TTL already expired
		// and was re-acquired by someone else must not be deleted out from
		// under them.
		held, err := hot.Get(releaseCtx, key).Result()
		if err == nil && held == token {
			hot.Del(releaseCtx, key)
		}
	}
	return release, nil
}

func userLockKey(userID uuid.UUID) string {
	return fmt.Sprintf("lock:user:%s", userID)
}
