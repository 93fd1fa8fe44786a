package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrBlacklistRedisUnavailable wraps Redis transport failures.
	ErrBlacklistRedisUnavailable = errors.New("blacklist redis unavailable")
)

// BlacklistStore keeps one presence-marker entry per blacklisted access
// token. Entries expire on their own TTL; there is no delete path.
type BlacklistStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewBlacklistStore creates a store under the given key prefix.
func NewBlacklistStore(redisClient redis.UniversalClient, prefix string) *BlacklistStore {
	if prefix == "" {
		prefix = "blacklisted_token"
	}
	return &BlacklistStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *BlacklistStore) key(token string) string {
	return s.prefix + ":" + token
}

// Add writes the entry with the given TTL. Writing an existing entry again
// simply refreshes it, which keeps the operation idempotent.
func (s *BlacklistStore) Add(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, s.key(token), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBlacklistRedisUnavailable, err)
	}
	return nil
}

// Contains reports whether the token is currently blacklisted.
func (s *BlacklistStore) Contains(ctx context.Context, token string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBlacklistRedisUnavailable, err)
	}
	return n > 0, nil
}
