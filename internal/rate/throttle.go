package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds throttle tuning parameters.
type Config struct {
	// Threshold is the attempt count at which the identifier is blocked.
	Threshold int
	// Window is the counter lifetime, fixed at the first attempt.
	Window time.Duration
	// Prefix namespaces the Redis keys. Empty means "al".
	Prefix string
}

// Attempt is the counter state after recording one attempt.
type Attempt struct {
	Count      int64
	RetryAfter time.Duration
}

// Throttle counts login attempts per identifier in fixed windows.
//
// Every recorded attempt increments the counter, whatever the outcome of the
// login that follows, and nothing resets it except window expiry.
type Throttle struct {
	redis  redis.UniversalClient
	config Config
}

// INCR and the first-hit EXPIRE run as one script so a counter can never be
// left without a TTL. Returns {count, pttl}.
var incrWithTTL = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {count, redis.call("PTTL", KEYS[1])}
`)

// New creates a [Throttle] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Throttle {
	if cfg.Prefix == "" {
		cfg.Prefix = "al"
	}
	return &Throttle{
		redis:  redisClient,
		config: cfg,
	}
}

// RecordAttempt atomically increments the counter for identifier, creating
// it with the window TTL when absent. An existing counter keeps its TTL.
func (t *Throttle) RecordAttempt(ctx context.Context, identifier string) (Attempt, error) {
	res, err := incrWithTTL.Run(ctx, t.redis, []string{t.key(identifier)}, t.config.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return Attempt{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(res) != 2 {
		return Attempt{}, fmt.Errorf("%w: unexpected script reply", ErrRedisUnavailable)
	}

	retryAfter := time.Duration(res[1]) * time.Millisecond
	if retryAfter <= 0 {
		retryAfter = t.config.Window
	}

	return Attempt{Count: res[0], RetryAfter: retryAfter}, nil
}

// Blocked reports whether count has reached the threshold.
func (t *Throttle) Blocked(count int64) bool {
	return count >= int64(t.config.Threshold)
}

// Attempts returns the current counter for identifier. Missing keys return zero.
func (t *Throttle) Attempts(ctx context.Context, identifier string) (int64, error) {
	count, err := t.redis.Get(ctx, t.key(identifier)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return count, nil
}

// Clear drops the counter for identifier. Login never calls it; operators
// reach it through the --unlock-login command.
func (t *Throttle) Clear(ctx context.Context, identifier string) error {
	if err := t.redis.Del(ctx, t.key(identifier)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (t *Throttle) key(identifier string) string {
	return t.config.Prefix + ":" + strings.ToLower(strings.TrimSpace(identifier))
}
