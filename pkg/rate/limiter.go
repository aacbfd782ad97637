package rate

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/code-payments/presale-server/pkg/cache"
)

// Limiter limits operations based on a provided key.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// DefaultMaxLocalKeys is the number of keys a local limiter tracks when no
// explicit bound is given
const DefaultMaxLocalKeys = 100_000

type localRateLimiter struct {
	limit rate.Limit
	burst int

	sync.Mutex
	limiters cache.Cache[*rate.Limiter]
}

// NewLocalRateLimiter returns an in memory token bucket limiter per key. A
// burst less than one defaults to the per-second limit. At most maxKeys
// buckets are kept; the least recently used key is evicted and starts with a
// full bucket when seen again.
func NewLocalRateLimiter(limit rate.Limit, burst, maxKeys int) Limiter {
	if burst < 1 {
		burst = int(limit)
		if burst < 1 {
			burst = 1
		}
	}
	if maxKeys < 1 {
		maxKeys = DefaultMaxLocalKeys
	}

	return &localRateLimiter{
		limit:    limit,
		burst:    burst,
		limiters: cache.NewCache[*rate.Limiter]("rate_limiters", maxKeys),
	}
}

// Allow implements limiter.Allow.
func (l *localRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.Lock()
	limiter, ok := l.limiters.Retrieve(key)
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		if err := l.limiters.Insert(key, limiter, 1); err != nil {
			l.Unlock()
			return false, errors.Wrap(err, "error tracking rate limiter")
		}
	}
	l.Unlock()

	return limiter.Allow(), nil
}

const redisRateKeyPrefix = "presale:rate:"

type redisCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

type redisRateLimiter struct {
	client redisCounter
	limit  int64
	window time.Duration
	now    func() time.Time
}

// NewRedisRateLimiter returns a fixed window limiter shared by every process
// using the same redis deployment. At most limit operations are allowed per
// key within each window.
func NewRedisRateLimiter(client redis.Cmdable, limit int64, window time.Duration) Limiter {
	return &redisRateLimiter{
		client: client,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow implements limiter.Allow.
func (l *redisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.window <= 0 {
		return false, errors.New("window must be positive")
	}

	bucket := l.now().UnixNano() / int64(l.window)
	redisKey := redisRateKeyPrefix + key + ":" + strconv.FormatInt(bucket, 10)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, errors.Wrap(err, "error incrementing rate counter")
	}

	if count == 1 {
		// Keys outlive their window slightly so late increments don't reset it
		err = l.client.Expire(ctx, redisKey, 2*l.window).Err()
		if err != nil {
			return false, errors.Wrap(err, "error setting rate counter expiry")
		}
	}

	return count <= l.limit, nil
}

// NoLimiter never limits operations
type NoLimiter struct {
}

// Allow implements limiter.Allow.
func (n *NoLimiter) Allow(_ context.Context, _ string) (bool, error) {
	return true, nil
}
