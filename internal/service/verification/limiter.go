package verification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// AttemptLimiter counts code entries per token.
type AttemptLimiter interface {
	// Reserve records an attempt against key and reports whether it is
	// still inside the allowance. The count and the decision are one step,
	// so concurrent callers cannot share a slot.
	Reserve(ctx context.Context, key string) (bool, error)
}

type memoryLimiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	cache  *cache.Cache
}

// NewMemoryLimiter keeps counters in process. Counters are not shared
// between replicas.
func NewMemoryLimiter(max int, window time.Duration) AttemptLimiter {
	return &memoryLimiter{
		max:    max,
		window: window,
		cache:  cache.New(window, 2*window),
	}
}

func (l *memoryLimiter) Reserve(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n, expiresAt, found := l.cache.GetWithExpiration(key); found {
		count := n.(int) + 1
		l.cache.Set(key, count, time.Until(expiresAt))
		return count <= l.max, nil
	}
	l.cache.Set(key, 1, l.window)
	return 1 <= l.max, nil
}

type redisLimiter struct {
	client *redis.Client
	prefix string
	max    int
	window time.Duration
}

// NewRedisLimiter shares counters between replicas. The window starts at
// the first attempt.
func NewRedisLimiter(client *redis.Client, max int, window time.Duration) AttemptLimiter {
	return &redisLimiter{
		client: client,
		prefix: "verify:attempts:",
		max:    max,
		window: window,
	}
}

func (l *redisLimiter) Reserve(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Incr(ctx, l.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record attempt: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, l.prefix+key, l.window).Err(); err != nil {
			return true, fmt.Errorf("failed to set attempt window: %w", err)
		}
	}
	return n <= int64(l.max), nil
}
