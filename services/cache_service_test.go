package services

import (
	"commerce_server/structs/tables"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheService_DisabledIsANoOp(t *testing.T) {
	env := newTestEnv(t, false)
	cs := env.sm.CacheService
	ctx := context.Background()

	assert.False(t, cs.Enabled())
	require.NoError(t, cs.Set(ctx, "k", "v", time.Minute))

	val, err := cs.Get(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, val)

	count, err := cs.IncrementRateLimit(ctx, "127.0.0.1", "general:GET:/products", time.Minute)
	require.NoError(t, err)
	assert.Zero(t, count)

	assert.Error(t, cs.Ping(ctx))
	assert.Empty(t, cs.GetConnectionStats())
	assert.NoError(t, cs.Close())
}

func TestCacheService_TokenOwner(t *testing.T) {
	env := newTestEnv(t, true)
	cs := env.sm.CacheService
	ctx := context.Background()
	jti, owner := uuid.New(), uuid.New()

	got, err := cs.GetTokenOwner(ctx, jti)
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, got)

	require.NoError(t, cs.SetTokenOwner(ctx, jti, owner, time.Minute))
	got, err = cs.GetTokenOwner(ctx, jti)
	require.NoError(t, err)
	assert.Equal(t, owner, got)

	env.redis.FastForward(2 * time.Minute)
	got, err = cs.GetTokenOwner(ctx, jti)
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, got)

	require.NoError(t, cs.SetTokenOwner(ctx, jti, owner, time.Minute))
	require.NoError(t, cs.DeleteTokens(ctx, []uuid.UUID{jti}))
	assert.False(t, env.redis.Exists(tokenKey(jti)))
}

func TestCacheService_UserRoundTripOmitsHash(t *testing.T) {
	env := newTestEnv(t, true)
	cs := env.sm.CacheService
	ctx := context.Background()
	user := &tables.User{Id: uuid.New(), Name: "Jane", Email: "jane@example.com", PasswordHash: "secret-hash"}

	require.NoError(t, cs.SetUserInCache(ctx, user))
	cached, err := cs.GetUserFromCache(ctx, user.Id)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, user.Email, cached.Email)
	assert.Empty(t, cached.PasswordHash)

	require.NoError(t, cs.InvalidateUserCache(ctx, user.Id))
	cached, err = cs.GetUserFromCache(ctx, user.Id)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestCacheService_IncrementRateLimit(t *testing.T) {
	env := newTestEnv(t, true)
	cs := env.sm.CacheService
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		count, err := cs.IncrementRateLimit(ctx, "10.0.0.1", "auth:POST:/login", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, count)
	}

	key := "ratelimit:10.0.0.1:auth:POST:/login"
	assert.Equal(t, time.Minute, env.redis.TTL(key))

	env.redis.FastForward(time.Minute + time.Second)
	count, err := cs.IncrementRateLimit(ctx, "10.0.0.1", "auth:POST:/login", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCacheService_DeletePattern(t *testing.T) {
	env := newTestEnv(t, true)
	cs := env.sm.CacheService
	ctx := context.Background()

	require.NoError(t, cs.Set(ctx, "product:id:a", "1", time.Minute))
	require.NoError(t, cs.Set(ctx, "product:id:b", "2", time.Minute))
	require.NoError(t, cs.Set(ctx, "user:c", "3", time.Minute))

	require.NoError(t, cs.DeletePattern(ctx, "product:*"))

	assert.False(t, env.redis.Exists("product:id:a"))
	assert.False(t, env.redis.Exists("product:id:b"))
	assert.True(t, env.redis.Exists("user:c"))
}

func TestHealthService(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	server := env.sm.HealthService.GetServerHealthStatus()
	assert.True(t, server.ServiceAlive)

	db, err := env.sm.HealthService.GetDatabaseHealthStatus(ctx)
	require.NoError(t, err)
	assert.True(t, db.Connected)

	cache, err := env.sm.HealthService.GetCacheHealthStatus(ctx)
	require.NoError(t, err)
	assert.True(t, cache.Connected)

	env.redis.SetError("ERR cache unavailable")
	cache, err = env.sm.HealthService.GetCacheHealthStatus(ctx)
	assert.Error(t, err)
	assert.False(t, cache.Connected)
}
