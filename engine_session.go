package mailAuth

import (
	"context"
	"errors"
	"fmt"
)

// Logout blacklists refreshToken. The token must belong to userID.
//
// Access tokens minted from the same session keep working until they expire;
// only the refresh token is revoked.
func (e *Engine) Logout(ctx context.Context, userID, refreshToken string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if refreshToken == "" {
		return messageError("Refresh token is required")
	}

	claims, err := e.jwtManager.ParseRefresh(refreshToken)
	if err != nil {
		return e.logoutFailed(ctx, userID, ErrTokenInvalid)
	}
	if claims.UserID != userID {
		return e.logoutFailed(ctx, userID, ErrTokenInvalid)
	}

	if err := e.blacklist(ctx, claims.ID); err != nil {
		return e.logoutFailed(ctx, userID, err)
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, userID, nil, nil)
	return nil
}

func (e *Engine) logoutFailed(ctx context.Context, userID string, err error) error {
	e.metricInc(MetricLogoutFailure)
	e.emitAudit(ctx, auditEventLogout, false, userID, err, nil)
	return err
}

// RevokeRefreshToken blacklists a refresh token regardless of its owner.
// It returns ErrTokenInvalid, ErrTokenNotFound or ErrTokenAlreadyRevoked.
func (e *Engine) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	claims, err := e.jwtManager.ParseRefresh(refreshToken)
	if err != nil {
		return ErrTokenInvalid
	}
	return e.blacklist(ctx, claims.ID)
}

func (e *Engine) blacklist(ctx context.Context, jti string) error {
	if _, err := e.tokens.GetOutstanding(ctx, jti); err != nil {
		return storeError(err)
	}
	return storeError(e.tokens.Blacklist(ctx, jti, e.now()))
}

// VerifyRefreshToken reports whether refreshToken is well signed, unexpired
// and not blacklisted. Only a store failure produces an error.
func (e *Engine) VerifyRefreshToken(ctx context.Context, refreshToken string) (bool, error) {
	if !e.ready() {
		return false, ErrEngineNotReady
	}

	claims, err := e.jwtManager.ParseRefresh(refreshToken)
	if err != nil {
		return false, nil
	}

	revoked, err := e.tokens.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return false, storeError(err)
	}
	return !revoked, nil
}

// RefreshAccess mints a new access token from a live refresh token. The
// refresh token itself is not rotated.
func (e *Engine) RefreshAccess(ctx context.Context, refreshToken string) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}

	claims, err := e.jwtManager.ParseRefresh(refreshToken)
	if err != nil {
		e.emitAudit(ctx, auditEventTokenRefresh, false, "", ErrTokenInvalid, nil)
		return "", ErrTokenInvalid
	}

	revoked, err := e.tokens.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return "", storeError(err)
	}
	if revoked {
		e.emitAudit(ctx, auditEventTokenRefresh, false, claims.UserID, ErrTokenRevoked, nil)
		return "", ErrTokenRevoked
	}

	access, _, err := e.jwtManager.CreateAccess(claims.UserID, claims.Email)
	if err != nil {
		return "", err
	}

	e.metricInc(MetricTokenRefreshed)
	e.emitAudit(ctx, auditEventTokenRefresh, true, claims.UserID, nil, nil)
	return access, nil
}

// Authenticate resolves an access token to an active user. The token is
// checked statelessly; the user row is loaded so deactivation takes effect
// immediately.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (*AuthResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if accessToken == "" {
		return nil, ErrUnauthorized
	}

	claims, err := e.jwtManager.ParseAccess(accessToken)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	user, err := e.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, storeError(err)
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	return &AuthResult{
		UserID: user.ID,
		Email:  user.Email,
		User:   user,
	}, nil
}

// FlushExpiredTokens deletes outstanding and blacklisted refresh tokens whose
// expiry has passed and returns how many outstanding rows went.
func (e *Engine) FlushExpiredTokens(ctx context.Context) (int64, error) {
	if !e.ready() {
		return 0, ErrEngineNotReady
	}

	n, err := e.tokens.FlushExpired(ctx, e.now())
	if err != nil {
		return 0, fmt.Errorf("flush expired tokens: %w", storeError(err))
	}

	e.emitAudit(ctx, auditEventExpiredTokensFlushed, true, "", nil, func() map[string]string {
		return map[string]string{
			"count": fmt.Sprint(n),
		}
	})
	return n, nil
}
