package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockStore_CarLock(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	locks := NewLockStore(client)

	token7, ok, err := locks.AcquireCarLock(ctx, 7, 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, token7)

	_, ok, err = locks.AcquireCarLock(ctx, 7, 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "second acquire must fail while held")

	token8, ok, err := locks.AcquireCarLock(ctx, 8, 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "locks are per car")

	require.NoError(t, locks.ReleaseCarLock(ctx, 7, token7))
	_, ok, err = locks.AcquireCarLock(ctx, 7, 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(11 * time.Second)
	newToken8, ok, err := locks.AcquireCarLock(ctx, 8, 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "expired lock can be reacquired")
	assert.NotEqual(t, token8, newToken8)
}

func TestLockStore_ReleaseKeepsForeignLock(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	locks := NewLockStore(client)

	stale, ok, err := locks.AcquireCarLock(ctx, 7, 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	// The first holder outlives its TTL and another request takes the car.
	mr.FastForward(11 * time.Second)
	current, ok, err := locks.AcquireCarLock(ctx, 7, 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, locks.ReleaseCarLock(ctx, 7, stale))
	held, err := mr.Get(carLockKey(7))
	require.NoError(t, err)
	assert.Equal(t, current, held)

	_, ok, err = locks.AcquireCarLock(ctx, 7, 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, locks.ReleaseCarLock(ctx, 7, current))
	assert.False(t, mr.Exists(carLockKey(7)))
}
