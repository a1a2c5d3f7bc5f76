package revocation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one key per revoked jti. The key TTL matches the record
// expiry, so Redis prunes on its own.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisStore returns a store writing keys under prefix.
func NewRedisStore(rdb redis.UniversalClient, prefix string, opts ...Option) *RedisStore {
	o := applyOptions(opts)
	if prefix == "" {
		prefix = "as"
	}
	return &RedisStore{
		redis:  rdb,
		prefix: prefix,
		now:    o.now,
	}
}

func (s *RedisStore) key(jti string) string {
	return s.prefix + ":rv:" + jti
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := s.PutIfAbsent(ctx, jti, expiresAt)
	return err
}

// PutIfAbsent implements ConditionalStore with SET NX.
func (s *RedisStore) PutIfAbsent(ctx context.Context, jti string, expiresAt time.Time) (bool, error) {
	if jti == "" {
		return false, ErrInvalidRecord
	}
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		// SET with a non-positive TTL would store the key forever.
		return true, nil
	}

	created, err := s.redis.SetNX(ctx, s.key(jti), strconv.FormatInt(expiresAt.Unix(), 10), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return created, nil
}

// Contains implements Store.
func (s *RedisStore) Contains(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	n, err := s.redis.Exists(ctx, s.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return n > 0, nil
}

// Ping reports round-trip latency to Redis.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return time.Since(start), nil
}
