package limiters

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// VerificationResendLimiter bounds how often a confirmation email can be
// re-sent to one address or requested from one client IP.
type VerificationResendLimiter struct {
	window fixedWindow
}

func NewVerificationResendLimiter(redisClient redis.UniversalClient, cfg Config) *VerificationResendLimiter {
	return &VerificationResendLimiter{window: fixedWindow{redis: redisClient, config: cfg}}
}

func (l *VerificationResendLimiter) CheckResend(ctx context.Context, email, ip string) error {
	if l == nil {
		return nil
	}
	return l.window.check(ctx,
		"aevr:"+normalizeIdentifier(email),
		"aevrip:"+ip,
		ip,
	)
}
