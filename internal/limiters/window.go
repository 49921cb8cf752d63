package limiters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrRateLimited      = errors.New("request rate limited")
	ErrRedisUnavailable = errors.New("limiter redis unavailable")
)

// Config is shared by every request limiter in this package.
type Config struct {
	EnableIdentifierThrottle bool
	EnableIPThrottle         bool
	Window                   time.Duration
	MaxAttempts              int
}

// LimitError carries the remaining window when a request is refused.
type LimitError struct {
	RetryAfter time.Duration
}

func (e *LimitError) Error() string { return ErrRateLimited.Error() }

func (e *LimitError) Unwrap() error { return ErrRateLimited }

type fixedWindow struct {
	redis  redis.UniversalClient
	config Config
}

// windowIncr bumps a counter and arms its TTL in one round trip. A key found
// without a TTL is re-armed, so no counter can outlive its window.
// Returns {count, pttl}.
var windowIncr = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if count == 1 or ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

func (w fixedWindow) enforce(ctx context.Context, key string) error {
	res, err := windowIncr.Run(ctx, w.redis, []string{key}, w.config.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(res) != 2 {
		return fmt.Errorf("%w: unexpected script reply", ErrRedisUnavailable)
	}

	if res[0] > int64(w.config.MaxAttempts) {
		ttl := time.Duration(res[1]) * time.Millisecond
		if ttl <= 0 {
			ttl = w.config.Window
		}
		return &LimitError{RetryAfter: ttl}
	}

	return nil
}

func (w fixedWindow) check(ctx context.Context, identifierKey, ipKey, ip string) error {
	if w.config.EnableIdentifierThrottle {
		if err := w.enforce(ctx, identifierKey); err != nil {
			return err
		}
	}
	if w.config.EnableIPThrottle && ip != "" {
		if err := w.enforce(ctx, ipKey); err != nil {
			return err
		}
	}
	return nil
}

func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}
