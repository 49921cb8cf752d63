package limiters

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// PasswordResetLimiter bounds reset-link requests per email and per client IP,
// and reset confirmations per uid and per client IP.
type PasswordResetLimiter struct {
	window fixedWindow
}

func NewPasswordResetLimiter(redisClient redis.UniversalClient, cfg Config) *PasswordResetLimiter {
	return &PasswordResetLimiter{window: fixedWindow{redis: redisClient, config: cfg}}
}

func (l *PasswordResetLimiter) CheckRequest(ctx context.Context, email, ip string) error {
	if l == nil {
		return nil
	}
	return l.window.check(ctx,
		"apri:"+normalizeIdentifier(email),
		"aprip:"+ip,
		ip,
	)
}

func (l *PasswordResetLimiter) CheckConfirm(ctx context.Context, uid, ip string) error {
	if l == nil {
		return nil
	}
	return l.window.check(ctx,
		"aprc:"+uid,
		"aprcip:"+ip,
		ip,
	)
}
