package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestAcquireUserLock_MutualExclusion(t *testing.T) {
	client := newTestRedis(t)
	userID := uuid.New()

	ctx := context.Background()
	release, err := AcquireUserLock(ctx, client, userID)
	require.NoError(t, err)

	// A second acquire for the same user must block until released.
	acquired := make(chan struct{})
	go func() {
		release2, err := AcquireUserLock(ctx, client, userID)
		require.NoError(t, err)
		release2(ctx)
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire succeeded while the first lock was still held")
	case <-time.After(75 * time.Millisecond):
	}

	release(ctx)
	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("second acquire never completed after release")
	}
}
