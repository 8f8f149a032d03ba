package verification

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseLimiter(t *testing.T, l AttemptLimiter) {
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		allowed, err := l.Reserve(ctx, "tok")
		require.NoError(t, err)
		assert.True(t, allowed, "attempt %d", i)
	}

	allowed, err := l.Reserve(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = l.Reserve(ctx, "other")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func exerciseConcurrentReserve(t *testing.T, l AttemptLimiter) {
	const callers = 20
	var (
		wg      sync.WaitGroup
		allowed int32
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := l.Reserve(context.Background(), "tok")
			assert.NoError(t, err)
			if ok {
				atomic.AddInt32(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(3), allowed)
}

func TestMemoryLimiter(t *testing.T) {
	exerciseLimiter(t, NewMemoryLimiter(3, time.Minute))
}

func TestMemoryLimiter_ConcurrentReserve(t *testing.T) {
	exerciseConcurrentReserve(t, NewMemoryLimiter(3, time.Minute))
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	exerciseLimiter(t, NewRedisLimiter(client, 3, time.Minute))

	assert.Equal(t, time.Minute, mr.TTL("verify:attempts:tok"))

	mr.FastForward(2 * time.Minute)
	allowed, err := NewRedisLimiter(client, 3, time.Minute).Reserve(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisLimiter_ConcurrentReserve(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	exerciseConcurrentReserve(t, NewRedisLimiter(client, 3, time.Minute))
}
