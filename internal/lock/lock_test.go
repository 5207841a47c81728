package lock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/dbreview/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func redisAddr(t *testing.T) string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}

	testutil.SkipWithoutDocker(t)

	ctx := context.Background()
	container, addr, err := testutil.StartRedis(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate Redis: %v", err)
		}
	})
	return addr
}

func TestRedisLocker(t *testing.T) {
	ctx := context.Background()
	client, err := NewClient(ctx, redisAddr(t), os.Getenv("REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	defer client.Close()

	key := "dbreview:test:" + uuid.NewString()
	first := NewRedisLocker(client, key, time.Minute, zap.NewNop())
	second := NewRedisLocker(client, key, time.Minute, zap.NewNop())

	release, err := first.Acquire(ctx)
	require.NoError(t, err)

	_, err = second.Acquire(ctx)
	assert.ErrorIs(t, err, ErrLocked)

	release()
	release()

	releaseAgain, err := second.Acquire(ctx)
	require.NoError(t, err)
	releaseAgain()
}

func TestRedisLockerExpires(t *testing.T) {
	ctx := context.Background()
	client, err := NewClient(ctx, redisAddr(t), os.Getenv("REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	defer client.Close()

	key := "dbreview:test:" + uuid.NewString()
	_, err = NewRedisLocker(client, key, 100*time.Millisecond, zap.NewNop()).Acquire(ctx)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		release, err := NewRedisLocker(client, key, time.Minute, zap.NewNop()).Acquire(ctx)
		if err != nil {
			return false
		}
		release()
		return true
	}, 2*time.Second, 50*time.Millisecond)
}

func TestRedisLockerReleaseWarnings(t *testing.T) {
	ctx := context.Background()
	addr := redisAddr(t)
	client, err := NewClient(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	defer client.Close()

	core, logs := observer.New(zap.WarnLevel)
	key := "dbreview:test:" + uuid.NewString()

	release, err := NewRedisLocker(client, key, 100*time.Millisecond, zap.New(core)).Acquire(ctx)
	require.NoError(t, err)

	var other func()
	require.Eventually(t, func() bool {
		other, err = NewRedisLocker(client, key, time.Minute, zap.NewNop()).Acquire(ctx)
		return err == nil
	}, 2*time.Second, 50*time.Millisecond)

	// the expired holder must not delete the new holder's key
	release()
	require.Equal(t, 1, logs.FilterMessage("lock expired before release").Len())
	_, err = NewRedisLocker(client, key, time.Minute, zap.NewNop()).Acquire(ctx)
	assert.ErrorIs(t, err, ErrLocked)
	other()

	closing, err := NewClient(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	release, err = NewRedisLocker(closing, key, time.Minute, zap.New(core)).Acquire(ctx)
	require.NoError(t, err)
	closing.Close()
	release()
	assert.Equal(t, 1, logs.FilterMessage("failed to release lock, it stays held until expiry").Len())
}
