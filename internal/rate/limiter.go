package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds limiter tuning.
type Config struct {
	Prefix           string
	MaxLoginAttempts int
	LoginCooldown    time.Duration
	IPThrottle       bool
}

// Limiter counts failed logins per identifier and per IP.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "as"
	}
	return &Limiter{redis: redisClient, config: cfg}
}

// CheckLogin fails with ErrRateLimited once either counter reached the
// attempt budget.
func (l *Limiter) CheckLogin(ctx context.Context, identifier, ip string) error {
	for _, key := range l.keys(identifier, ip) {
		count, err := l.counter(ctx, key)
		if err != nil {
			return err
		}
		if count >= int64(l.config.MaxLoginAttempts) {
			return ErrRateLimited
		}
	}
	return nil
}

// IncrementLogin records one failed attempt against every counter. It
// returns ErrRateLimited when this attempt spent a budget.
func (l *Limiter) IncrementLogin(ctx context.Context, identifier, ip string) error {
	limited := false
	for _, key := range l.keys(identifier, ip) {
		count, err := l.hit(ctx, key)
		if err != nil {
			return err
		}
		limited = limited || count > int64(l.config.MaxLoginAttempts)
	}
	if limited {
		return ErrRateLimited
	}
	return nil
}

// ResetLogin clears the identifier counter after a successful login. The
// IP counter is left alone so one valid account cannot launder attempts
// against others from the same address.
func (l *Limiter) ResetLogin(ctx context.Context, identifier, _ string) error {
	if err := l.redis.Del(ctx, l.userKey(identifier)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// LoginAttempts returns the current identifier counter.
func (l *Limiter) LoginAttempts(ctx context.Context, identifier string) (int, error) {
	count, err := l.counter(ctx, l.userKey(identifier))
	return int(max(count, 0)), err
}

func (l *Limiter) keys(identifier, ip string) []string {
	keys := []string{l.userKey(identifier)}
	if l.config.IPThrottle && ip != "" {
		keys = append(keys, l.config.Prefix+":rl:ip:"+ip)
	}
	return keys
}

func (l *Limiter) userKey(identifier string) string {
	return l.config.Prefix + ":rl:u:" + strings.ToLower(strings.TrimSpace(identifier))
}

func (l *Limiter) counter(ctx context.Context, key string) (int64, error) {
	count, err := l.redis.Get(ctx, key).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return count, nil
}

// hitScript increments a counter and starts its window on the first hit,
// so a counter never exists without a TTL.
var hitScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

func (l *Limiter) hit(ctx context.Context, key string) (int64, error) {
	count, err := hitScript.Run(ctx, l.redis, []string{key}, l.config.LoginCooldown.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return count, nil
}
