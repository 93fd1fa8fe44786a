package rate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrRedisUnavailable wraps any Redis transport failure. Guarded
	// operations fail closed on it.
	ErrRedisUnavailable = errors.New("rate limiter redis unavailable")
)

// Limiter counts timestamped attempts in a trailing window. The zero budget
// decisions never error except on Redis failure.
type Limiter struct {
	redis redis.UniversalClient
	now   func() time.Time
}

// New creates a [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient) *Limiter {
	return &Limiter{
		redis: redisClient,
		now:   time.Now,
	}
}

// NewWithClock creates a [Limiter] with an injected clock. Test use only.
func NewWithClock(redisClient redis.UniversalClient, now func() time.Time) *Limiter {
	return &Limiter{
		redis: redisClient,
		now:   now,
	}
}

// CheckAndConsume evicts attempts older than the window, then admits the
// call if fewer than maxAttempts remain, recording a new attempt marker.
// A rejected call records nothing. The key TTL is refreshed to the window
// length either way so idle keys expire.
func (l *Limiter) CheckAndConsume(ctx context.Context, key string, maxAttempts int, window time.Duration) (bool, int, error) {
	count, err := l.evictAndCount(ctx, key, window)
	if err != nil {
		return false, 0, err
	}

	allowed := count < int64(maxAttempts)
	remaining := 0

	if allowed {
		if err := l.addAttempt(ctx, key); err != nil {
			return false, 0, err
		}
		count++
		remaining = maxAttempts - int(count)
		if remaining < 0 {
			remaining = 0
		}
	}

	if err := l.refreshTTL(ctx, key, window); err != nil {
		return false, 0, err
	}

	return allowed, remaining, nil
}

// Peek evicts and counts without recording an attempt. Used by failure-only
// policies that must not consume budget on a successful operation.
func (l *Limiter) Peek(ctx context.Context, key string, maxAttempts int, window time.Duration) (bool, int, error) {
	count, err := l.evictAndCount(ctx, key, window)
	if err != nil {
		return false, 0, err
	}
	if err := l.refreshTTL(ctx, key, window); err != nil {
		return false, 0, err
	}

	remaining := maxAttempts - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return count < int64(maxAttempts), remaining, nil
}

// RecordFailure unconditionally records an attempt marker. Paired with Peek
// by policies that only charge failed operations.
func (l *Limiter) RecordFailure(ctx context.Context, key string, window time.Duration) error {
	if err := l.addAttempt(ctx, key); err != nil {
		return err
	}
	return l.refreshTTL(ctx, key, window)
}

// Reset drops the given keys entirely.
func (l *Limiter) Reset(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := l.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (l *Limiter) evictAndCount(ctx context.Context, key string, window time.Duration) (int64, error) {
	windowStart := l.now().Add(-window).Unix()

	if err := l.redis.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10)).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	count, err := l.redis.ZCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return count, nil
}

func (l *Limiter) addAttempt(ctx context.Context, key string) error {
	now := l.now().Unix()
	member := strconv.FormatInt(now, 10) + ":" + uuid.NewString()
	if err := l.redis.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: member}).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (l *Limiter) refreshTTL(ctx context.Context, key string, window time.Duration) error {
	if err := l.redis.Expire(ctx, key, window).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
