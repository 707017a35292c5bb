package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRedisRateLimiter 테스트용 Redis Rate Limiter 설정
// 주의: 실제 Redis 서버가 필요합니다 (localhost:6379)
func setupRedisRateLimiter(t *testing.T) *RedisRateLimiter {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // 테스트용 DB
	})

	limiter := NewRedisRateLimiter(client, "test:ratelimit:")

	ctx := context.Background()
	if err := limiter.Ping(ctx); err != nil {
		t.Skipf("Redis server not available: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
	})

	return limiter
}

func TestRedisRateLimiter_Allow(t *testing.T) {
	limiter := setupRedisRateLimiter(t)

	ctx := context.Background()
	key := "user:123"
	defer limiter.Reset(ctx, key)

	t.Run("첫 요청은 항상 허용", func(t *testing.T) {
		allowed, err := limiter.Allow(ctx, key, 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("한도 초과 시 거부", func(t *testing.T) {
		for i := 0; i < 4; i++ {
			allowed, err := limiter.Allow(ctx, key, 5, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed)
		}

		allowed, err := limiter.Allow(ctx, key, 5, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
	})
}

func TestRedisRateLimiter_Reset(t *testing.T) {
	limiter := setupRedisRateLimiter(t)

	ctx := context.Background()
	key := "user:reset"
	defer limiter.Reset(ctx, key)

	allowed, err := limiter.Allow(ctx, key, 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, key, 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	require.NoError(t, limiter.Reset(ctx, key))

	allowed, err = limiter.Allow(ctx, key, 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}
