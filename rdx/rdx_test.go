package rdx

import (
	"context"
	"os"
	"testing"
	"time"

	"homecook/models"
	"homecook/store"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client, err := Connect(context.Background(), addr)
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestLocker(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()
	l := NewLocker(client)
	key := "checkout_lock:test-" + time.Now().Format("150405.000000")

	token, err := l.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	other, err := l.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, other)

	l.Release(ctx, key, token)
	token, err = l.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	l.Release(ctx, key, token)
}

func TestLockerExpiredHolderCanNotReleaseNextHolder(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()
	l := NewLocker(client)
	key := "checkout_lock:test-" + time.Now().Format("150405.000000")

	first, err := l.Acquire(ctx, key, 50*time.Millisecond)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	require.Eventually(t, func() bool {
		n, err := client.Exists(ctx, key).Result()
		return err == nil && n == 0
	}, 2*time.Second, 20*time.Millisecond)

	second, err := l.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, second)

	l.Release(ctx, key, first)
	held, err := client.Get(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, second, held)

	l.Release(ctx, key, second)
	n, err := client.Exists(ctx, key).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUserCacheEvictsOnDelete(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()
	users := store.NewMemory().Store().Users
	id := "cache-del-" + time.Now().Format("150405.000000")
	require.NoError(t, users.Insert(ctx, &models.User{ID: id, Email: id + "@example.com"}))

	cache := NewUserCache(users, client)
	_, err := cache.Get(ctx, id)
	require.NoError(t, err)

	require.NoError(t, cache.Delete(ctx, id))
	_, err = cache.Get(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUserCacheEvictsOnAddressChange(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()
	users := store.NewMemory().Store().Users
	id := "cache-" + time.Now().Format("150405.000000")
	require.NoError(t, users.Insert(ctx, &models.User{ID: id, Email: id + "@example.com", Address: models.Address{City: "Izmir"}}))

	cache := NewUserCache(users, client)
	u, err := cache.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Izmir", u.Address.City)

	cached, err := client.Exists(ctx, userKey(id)).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), cached)

	require.NoError(t, cache.UpdateAddress(ctx, id, models.Address{City: "Ankara"}))
	u, err = cache.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ankara", u.Address.City)

	client.Del(ctx, userKey(id))
}

func TestUserCacheMissingUser(t *testing.T) {
	client := testClient(t)
	cache := NewUserCache(store.NewMemory().Store().Users, client)
	_, err := cache.Get(context.Background(), "nobody-"+time.Now().Format("150405.000000"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}
