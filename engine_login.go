package mailAuth

import (
	"context"
	"errors"
	"fmt"
	"time"

	internalflows "github.com/MrEthical07/mailAuth/internal/flows"
)

// Login checks the throttle, then the credentials, then the account state,
// and issues a session.
//
// Every well-formed request counts toward the per-email throttle whatever its
// outcome; a correct password does not reset the counter.
func (e *Engine) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	req.Email = normalizeEmail(req.Email)
	if err := validateShape(req); err != nil {
		e.metricInc(MetricLoginFailure)
		return nil, err
	}

	start := time.Now()
	res, err := internalflows.RunLogin(ctx, internalflows.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		RememberMe: req.RememberMe,
	}, e.flows.Login)
	e.metricObserve(MetricLoginLatency, time.Since(start))
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Access:  res.AccessToken,
		Refresh: res.RefreshToken,
		UserID:  res.UserID,
		Email:   res.Email,
	}, nil
}

// LoginAttempts returns the throttle counter for email in the current window.
func (e *Engine) LoginAttempts(ctx context.Context, email string) (int64, error) {
	if !e.ready() {
		return 0, ErrEngineNotReady
	}
	count, err := e.throttle.Attempts(ctx, normalizeEmail(email))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return count, nil
}

// UnlockLogin clears the throttle counter for email. Login itself never
// clears it.
func (e *Engine) UnlockLogin(ctx context.Context, email string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if err := e.throttle.Clear(ctx, normalizeEmail(email)); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	e.emitAudit(ctx, auditEventLoginUnlocked, true, "", nil, func() map[string]string {
		return map[string]string{"identifier": normalizeEmail(email)}
	})
	return nil
}

func (e *Engine) loginFlowDeps() internalflows.LoginDeps {
	return internalflows.LoginDeps{
		UpgradeOnLogin:      e.config.Password.UpgradeOnLogin,
		DummyHash:           e.dummyHash,
		ClientIPFromContext: ClientIPFromContext,
		Now:                 e.now,
		RecordAttempt: func(ctx context.Context, identifier string) (int64, time.Duration, error) {
			attempt, err := e.throttle.RecordAttempt(ctx, identifier)
			if err != nil {
				e.logger.Error().Err(err).Msg("login throttle unavailable")
				return 0, 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}
			return attempt.Count, attempt.RetryAfter, nil
		},
		Blocked: e.throttle.Blocked,
		GetUserByEmail: func(ctx context.Context, email string) (internalflows.LoginUser, error) {
			u, err := e.users.GetUserByEmail(ctx, email)
			if err != nil {
				return internalflows.LoginUser{}, storeError(err)
			}
			return internalflows.LoginUser{
				UserID:       u.ID,
				Email:        u.Email,
				PasswordHash: u.PasswordHash,
				IsActive:     u.IsActive,
				IsVerified:   u.IsVerified,
			}, nil
		},
		IsUserNotFound: func(err error) bool {
			return errors.Is(err, ErrUserNotFound)
		},
		UpdatePasswordHash: func(ctx context.Context, userID, hash string) error {
			return storeError(e.users.UpdatePasswordHash(ctx, userID, hash))
		},
		TouchLastLogin: func(ctx context.Context, userID string, at time.Time, rememberMe *bool) error {
			return storeError(e.users.TouchLastLogin(ctx, userID, at, rememberMe))
		},
		VerifyPassword:       e.passwordHash.Verify,
		PasswordNeedsUpgrade: e.passwordHash.NeedsUpgrade,
		HashPassword:         e.passwordHash.Hash,
		IssueSession: func(ctx context.Context, u internalflows.LoginUser) (string, string, error) {
			tokens, err := e.issueSession(ctx, u.UserID, u.Email)
			if err != nil {
				return "", "", err
			}
			return tokens.Access, tokens.Refresh, nil
		},
		MetricInc: func(id int) {
			e.metricInc(MetricID(id))
		},
		EmitAudit:     e.emitAudit,
		EmitRateLimit: e.emitRateLimit,
		Warn:          e.warn,
		Metrics: internalflows.LoginMetrics{
			LoginSuccess:     int(MetricLoginSuccess),
			LoginFailure:     int(MetricLoginFailure),
			LoginForbidden:   int(MetricLoginForbidden),
			LoginRateLimited: int(MetricLoginRateLimited),
		},
		Events: internalflows.LoginEvents{
			LoginSuccess:     auditEventLoginSuccess,
			LoginFailure:     auditEventLoginFailure,
			LoginRateLimited: auditEventLoginRateLimited,
		},
		Errors: internalflows.LoginErrors{
			EngineNotReady:     ErrEngineNotReady,
			InvalidCredentials: ErrInvalidCredentials,
			AccountInactive:    ErrAccountInactive,
			AccountUnverified:  ErrAccountUnverified,
			RateLimited: func(retryAfter time.Duration) error {
				return &RateLimitError{Err: ErrLoginRateLimited, RetryAfter: retryAfter}
			},
		},
	}
}
