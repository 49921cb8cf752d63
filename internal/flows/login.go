package flows

import (
	"context"
	"time"
)

// LoginUser is the flow-local view of an account.
type LoginUser struct {
	UserID       string
	Email        string
	PasswordHash string
	IsActive     bool
	IsVerified   bool
}

// LoginInput is an already shape-validated login request.
type LoginInput struct {
	Email      string
	Password   string
	RememberMe *bool
}

// LoginResult is the flow-local login response shape.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	Email        string
}

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	LoginSuccess     int
	LoginFailure     int
	LoginForbidden   int
	LoginRateLimited int
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	LoginSuccess     string
	LoginFailure     string
	LoginRateLimited string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	EngineNotReady     error
	InvalidCredentials error
	AccountInactive    error
	AccountUnverified  error
	// RateLimited builds the host's throttle error for the remaining window.
	RateLimited func(retryAfter time.Duration) error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	UpgradeOnLogin bool
	// DummyHash is verified against when the email is unknown so both
	// branches cost one hash computation.
	DummyHash string

	ClientIPFromContext func(context.Context) string
	Now                 func() time.Time

	RecordAttempt func(context.Context, string) (int64, time.Duration, error)
	Blocked       func(int64) bool

	GetUserByEmail     func(context.Context, string) (LoginUser, error)
	IsUserNotFound     func(error) bool
	UpdatePasswordHash func(context.Context, string, string) error
	TouchLastLogin     func(context.Context, string, time.Time, *bool) error

	VerifyPassword       func(string, string) (bool, error)
	PasswordNeedsUpgrade func(string) (bool, error)
	HashPassword         func(string) (string, error)

	IssueSession func(context.Context, LoginUser) (string, string, error)

	MetricInc     func(int)
	EmitAudit     func(context.Context, string, bool, string, error, func() map[string]string)
	EmitRateLimit func(context.Context, string, func() map[string]string)
	Warn          func(string, error)

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

func normalizeLoginDeps(deps *LoginDeps) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, error, func() map[string]string) {}
	}
	if deps.EmitRateLimit == nil {
		deps.EmitRateLimit = func(context.Context, string, func() map[string]string) {}
	}
	if deps.Warn == nil {
		deps.Warn = func(string, error) {}
	}
	if deps.IsUserNotFound == nil {
		deps.IsUserNotFound = func(error) bool { return false }
	}
}

// RunLogin executes the login sequence:
// throttle, credentials, active check, verified check, session issue.
//
// The throttle counter is incremented before the credentials are looked at,
// so every request counts toward the limit whatever its outcome.
func RunLogin(ctx context.Context, in LoginInput, deps LoginDeps) (*LoginResult, error) {
	normalizeLoginDeps(&deps)
	if deps.RecordAttempt == nil ||
		deps.Blocked == nil ||
		deps.GetUserByEmail == nil ||
		deps.VerifyPassword == nil ||
		deps.IssueSession == nil ||
		deps.Errors.RateLimited == nil {
		return nil, deps.Errors.EngineNotReady
	}

	count, retryAfter, err := deps.RecordAttempt(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if deps.Blocked(count) {
		limitErr := deps.Errors.RateLimited(retryAfter)
		deps.MetricInc(deps.Metrics.LoginRateLimited)
		deps.EmitAudit(ctx, deps.Events.LoginRateLimited, false, "", limitErr, func() map[string]string {
			return map[string]string{
				"identifier": in.Email,
			}
		})
		deps.EmitRateLimit(ctx, "login", func() map[string]string {
			return map[string]string{
				"identifier": in.Email,
			}
		})
		return nil, limitErr
	}

	user, err := deps.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if !deps.IsUserNotFound(err) {
			return nil, err
		}
		if deps.DummyHash != "" {
			_, _ = deps.VerifyPassword(in.Password, deps.DummyHash)
		}
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, "", deps.Errors.InvalidCredentials, func() map[string]string {
			return map[string]string{
				"identifier": in.Email,
				"reason":     "unknown_email",
			}
		})
		return nil, deps.Errors.InvalidCredentials
	}

	ok, err := deps.VerifyPassword(in.Password, user.PasswordHash)
	if err != nil {
		deps.Warn("stored password hash could not be verified", err)
		ok = false
	}
	if !ok {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, user.UserID, deps.Errors.InvalidCredentials, nil)
		return nil, deps.Errors.InvalidCredentials
	}

	if !user.IsActive {
		deps.MetricInc(deps.Metrics.LoginForbidden)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, user.UserID, deps.Errors.AccountInactive, nil)
		return nil, deps.Errors.AccountInactive
	}
	if !user.IsVerified {
		deps.MetricInc(deps.Metrics.LoginForbidden)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, user.UserID, deps.Errors.AccountUnverified, nil)
		return nil, deps.Errors.AccountUnverified
	}

	if deps.UpgradeOnLogin && deps.PasswordNeedsUpgrade != nil && deps.HashPassword != nil && deps.UpdatePasswordHash != nil {
		if needs, err := deps.PasswordNeedsUpgrade(user.PasswordHash); err == nil && needs {
			if upgraded, err := deps.HashPassword(in.Password); err == nil {
				if err := deps.UpdatePasswordHash(ctx, user.UserID, upgraded); err != nil {
					deps.Warn("password rehash on login failed", err)
				}
			}
		}
	}

	access, refresh, err := deps.IssueSession(ctx, user)
	if err != nil {
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, user.UserID, err, nil)
		return nil, err
	}

	if deps.TouchLastLogin != nil {
		if err := deps.TouchLastLogin(ctx, user.UserID, deps.Now(), in.RememberMe); err != nil {
			deps.Warn("last_login update failed", err)
		}
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, user.UserID, nil, nil)

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		UserID:       user.UserID,
		Email:        user.Email,
	}, nil
}
