package limiters

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RegistrationLimiter bounds sign-up attempts per email and per client IP.
type RegistrationLimiter struct {
	window fixedWindow
}

func NewRegistrationLimiter(redisClient redis.UniversalClient, cfg Config) *RegistrationLimiter {
	return &RegistrationLimiter{window: fixedWindow{redis: redisClient, config: cfg}}
}

func (l *RegistrationLimiter) CheckRequest(ctx context.Context, email, ip string) error {
	if l == nil {
		return nil
	}
	return l.window.check(ctx,
		"aca:"+normalizeIdentifier(email),
		"acaip:"+ip,
		ip,
	)
}
