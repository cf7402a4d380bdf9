package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/poiesic/pdfqa/storage"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestNewLocker(t *testing.T) {
	_, client := setupTestRedis(t)

	a := NewLocker(client, "")
	b := NewLocker(client, "custom:")
	assert.Equal(t, DefaultPrefix, a.prefix)
	assert.Equal(t, "custom:", b.prefix)
	assert.NotEmpty(t, a.OwnerID())
	assert.NotEqual(t, a.OwnerID(), b.OwnerID())
}

func TestLocker_AcquireRelease(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()
	first := NewLocker(client, "")
	second := NewLocker(client, "")

	ok, err := first.Acquire(ctx, "index", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	value, err := mr.Get(DefaultPrefix + "index")
	require.NoError(t, err)
	assert.Equal(t, first.OwnerID(), value)

	ok, err = second.Acquire(ctx, "index", 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "held lock should not be acquired by another owner")

	err = second.Release(ctx, "index")
	assert.ErrorIs(t, err, storage.ErrLockNotHeld)
	assert.True(t, mr.Exists(DefaultPrefix+"index"), "foreign release must not delete the key")

	require.NoError(t, first.Release(ctx, "index"))
	assert.False(t, mr.Exists(DefaultPrefix+"index"))

	ok, err = second.Acquire(ctx, "index", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocker_Expiry(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()
	first := NewLocker(client, "")
	second := NewLocker(client, "")

	ok, err := first.Acquire(ctx, "index", 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(6 * time.Second)

	ok, err = second.Acquire(ctx, "index", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "expired lock should be reclaimable")
	assert.ErrorIs(t, first.Release(ctx, "index"), storage.ErrLockNotHeld)
}

func TestLocker_Extend(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()
	l := NewLocker(client, "")

	assert.ErrorIs(t, l.Extend(ctx, "index", time.Minute), storage.ErrLockNotHeld)

	ok, err := l.Acquire(ctx, "index", 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, l.Extend(ctx, "index", time.Minute))
	assert.Greater(t, mr.TTL(DefaultPrefix+"index"), 5*time.Second)
}

func TestLocker_WithLock(t *testing.T) {
	_, client := setupTestRedis(t)
	l := NewLocker(client, "")
	ctx := context.Background()

	ran := false
	err := storage.WithLock(ctx, l, "index", time.Minute, func(context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)

	ok, err := l.Acquire(ctx, "index", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "WithLock should release on return")
}

func TestLocker_ServerDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	l := NewLocker(client, "")
	mr.Close()

	_, err = l.Acquire(context.Background(), "index", time.Second)
	assert.Error(t, err)
	assert.Error(t, l.Ping(context.Background()))
}

func TestDial(t *testing.T) {
	mr, _ := setupTestRedis(t)

	client, err := Dial(context.Background(), mr.Addr())
	require.NoError(t, err)
	client.Close()

	_, err = Dial(context.Background(), "127.0.0.1:1")
	assert.Error(t, err)
}
