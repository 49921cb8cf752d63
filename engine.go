package mailAuth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/MrEthical07/mailAuth/internal/dispatch"
	"github.com/MrEthical07/mailAuth/internal/flows"
	"github.com/MrEthical07/mailAuth/internal/limiters"
	"github.com/MrEthical07/mailAuth/internal/rate"
	"github.com/MrEthical07/mailAuth/internal/stores"
	"github.com/MrEthical07/mailAuth/jwt"
	"github.com/MrEthical07/mailAuth/password"
)

// Engine runs every authentication workflow. Build one with [New] and share
// it; all methods are safe for concurrent use.
type Engine struct {
	config              Config
	users               UserStore
	tokens              TokenStore
	throttle            *rate.Throttle
	resetStore          *stores.PasswordResetStore
	resetLimiter        *limiters.PasswordResetLimiter
	resendLimiter       *limiters.VerificationResendLimiter
	registrationLimiter *limiters.RegistrationLimiter
	audit               *dispatch.Dispatcher[AuditEvent]
	mail                *dispatch.Dispatcher[MailMessage]
	mailSender          MailSender
	metrics             *Metrics
	passwordHash        *password.Argon2
	policy              password.Policy
	jwtManager          *jwt.Manager
	dummyHash           string
	logger              zerolog.Logger
	now                 func() time.Time
	flows               flows.Deps
}

// Close drains the mail and audit queues. Messages queued before Close are
// still delivered.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.mail.Close()
	e.audit.Close()
}

// AuditDropped returns how many audit events were discarded on a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MailDropped returns how many emails were discarded on a full buffer.
func (e *Engine) MailDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.mail.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of every counter.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, d)
}

func (e *Engine) ready() bool {
	return e != nil && e.users != nil && e.tokens != nil && e.jwtManager != nil && e.passwordHash != nil
}

// issueSession mints an access/refresh pair and records the refresh token as
// outstanding so it can be blacklisted later.
func (e *Engine) issueSession(ctx context.Context, userID, email string) (*SessionTokens, error) {
	access, accessClaims, err := e.jwtManager.CreateAccess(userID, email)
	if err != nil {
		return nil, err
	}
	refresh, refreshClaims, err := e.jwtManager.CreateRefresh(userID, email)
	if err != nil {
		return nil, err
	}

	if err := e.tokens.SaveOutstanding(ctx, OutstandingToken{
		JTI:       refreshClaims.ID,
		UserID:    userID,
		Token:     refresh,
		CreatedAt: refreshClaims.IssuedAt.Time,
		ExpiresAt: refreshClaims.ExpiresAt.Time,
	}); err != nil {
		return nil, storeError(err)
	}

	e.metricInc(MetricSessionCreated)
	return &SessionTokens{
		Access:           access,
		Refresh:          refresh,
		RefreshJTI:       refreshClaims.ID,
		AccessExpiresAt:  accessClaims.ExpiresAt.Time,
		RefreshExpiresAt: refreshClaims.ExpiresAt.Time,
	}, nil
}

// storeError passes through the store's own sentinels and wraps anything
// else as ErrStoreUnavailable.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrDuplicateEmail),
		errors.Is(err, ErrTokenNotFound),
		errors.Is(err, ErrTokenAlreadyRevoked),
		errors.Is(err, ErrStoreUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}

// limiterError maps request limiter failures to the public error types.
func limiterError(err error) error {
	if err == nil {
		return nil
	}
	var limitErr *limiters.LimitError
	if errors.As(err, &limitErr) {
		return &RateLimitError{Err: ErrRateLimited, RetryAfter: limitErr.RetryAfter}
	}
	return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
}

func (e *Engine) warn(msg string, err error) {
	e.logger.Warn().Err(err).Msg(msg)
}

// Action token purposes.
const (
	purposeEmailVerification = "email_verification"
	purposePasswordReset     = "password_reset"
)
