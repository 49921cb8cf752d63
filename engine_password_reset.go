package mailAuth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/mailAuth/internal"
	internalflows "github.com/MrEthical07/mailAuth/internal/flows"
	"github.com/MrEthical07/mailAuth/internal/stores"
)

var errResetUnknownEmail = fmt.Errorf("%w: reset requested for unknown email", ErrUserNotFound)

// RequestPasswordReset emails a single-use reset link to a registered address.
// The link is <base>/reset-password/<uid>/<token>/.
func (e *Engine) RequestPasswordReset(ctx context.Context, req EmailRequest) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	req.Email = normalizeEmail(req.Email)
	if err := validateShape(req); err != nil {
		return err
	}

	err := internalflows.RunRequestPasswordReset(ctx, req.Email, e.flows.PasswordReset)
	if errors.Is(err, errResetUnknownEmail) {
		return fieldError("email", "User with this email does not exist")
	}
	return err
}

// ConfirmPasswordReset sets a new password from a reset link. Each link works
// once, and stops working as soon as the password changes by any route.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, uid, token string, req PasswordResetConfirmRequest) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if err := validateShape(req); err != nil {
		return err
	}
	return internalflows.RunConfirmPasswordReset(ctx, uid, token, req.NewPassword, req.ConfirmNewPassword, e.flows.PasswordReset)
}

func (e *Engine) passwordResetFlowDeps() internalflows.PasswordResetDeps {
	cfg := e.config

	return internalflows.PasswordResetDeps{
		ResetTTL:            cfg.PasswordReset.ResetTTL,
		MaxAttempts:         cfg.PasswordReset.MaxAttempts,
		ClientIPFromContext: ClientIPFromContext,
		Now:                 e.now,
		CheckRequestLimiter: func(ctx context.Context, email, ip string) error {
			return limiterError(e.resetLimiter.CheckRequest(ctx, email, ip))
		},
		CheckConfirmLimiter: func(ctx context.Context, uid, ip string) error {
			return limiterError(e.resetLimiter.CheckConfirm(ctx, uid, ip))
		},
		GetUserByEmail: func(ctx context.Context, email string) (internalflows.PasswordResetUser, error) {
			u, err := e.users.GetUserByEmail(ctx, email)
			if err != nil {
				return internalflows.PasswordResetUser{}, storeError(err)
			}
			return internalflows.PasswordResetUser{UserID: u.ID, Email: u.Email, Name: u.Name, PasswordHash: u.PasswordHash}, nil
		},
		GetUserByID: func(ctx context.Context, userID string) (internalflows.PasswordResetUser, error) {
			u, err := e.users.GetUserByID(ctx, userID)
			if err != nil {
				return internalflows.PasswordResetUser{}, storeError(err)
			}
			return internalflows.PasswordResetUser{UserID: u.ID, Email: u.Email, Name: u.Name, PasswordHash: u.PasswordHash}, nil
		},
		IsUserNotFound: func(err error) bool {
			return errors.Is(err, ErrUserNotFound)
		},
		HashPassword: e.passwordHash.Hash,
		UpdatePasswordHash: func(ctx context.Context, userID, hash string) error {
			return storeError(e.users.UpdatePasswordHash(ctx, userID, hash))
		},
		ValidateNewPassword: func(newPassword, confirm string) error {
			return e.checkPasswordPair(newPassword, confirm, "The passwords do not match", "new_password")
		},
		CheckAgainstUser: func(newPassword string, user internalflows.PasswordResetUser) error {
			return e.checkPasswordPair(newPassword, newPassword, "", "new_password", userAttributes(user.Email, user.Name)...)
		},
		CreateResetToken: func(userID string, ttl time.Duration) (string, string, error) {
			token, claims, err := e.jwtManager.CreateAction(userID, purposePasswordReset, ttl)
			if err != nil {
				return "", "", err
			}
			return token, claims.ID, nil
		},
		DecodeResetToken: func(token string) internalflows.ResetToken {
			res := e.jwtManager.DecodeAction(token, purposePasswordReset)
			return internalflows.ResetToken{Valid: res.OK(), UserID: res.UserID, JTI: res.JTI}
		},
		EncodeUID: internal.EncodeUID,
		DecodeUID: internal.DecodeUID,
		SaveResetRecord: func(ctx context.Context, jti string, record internalflows.PasswordResetRecord, ttl time.Duration) error {
			err := e.resetStore.Save(ctx, jti, &stores.PasswordResetRecord{
				UserID:      record.UserID,
				TokenHash:   record.TokenHash,
				Fingerprint: record.Fingerprint,
				ExpiresAt:   record.ExpiresAt,
			}, ttl)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}
			return nil
		},
		ConsumeResetRecord: func(ctx context.Context, jti, userID string, tokenHash [32]byte, maxAttempts int) (internalflows.PasswordResetRecord, error) {
			record, err := e.resetStore.Consume(ctx, jti, userID, tokenHash, maxAttempts)
			if err != nil {
				if errors.Is(err, stores.ErrResetRedisUnavailable) {
					return internalflows.PasswordResetRecord{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
				}
				return internalflows.PasswordResetRecord{}, err
			}
			return internalflows.PasswordResetRecord{
				UserID:      record.UserID,
				TokenHash:   record.TokenHash,
				Fingerprint: record.Fingerprint,
				ExpiresAt:   record.ExpiresAt,
			}, nil
		},
		RestoreResetRecord: func(ctx context.Context, jti string, record internalflows.PasswordResetRecord, ttl time.Duration) error {
			return e.resetStore.Save(ctx, jti, &stores.PasswordResetRecord{
				UserID:      record.UserID,
				TokenHash:   record.TokenHash,
				Fingerprint: record.Fingerprint,
				ExpiresAt:   record.ExpiresAt,
			}, ttl)
		},
		IsRecordRejected: func(err error) bool {
			return errors.Is(err, stores.ErrResetNotFound) ||
				errors.Is(err, stores.ErrResetSecretMismatch) ||
				errors.Is(err, stores.ErrResetAttemptsExceeded)
		},
		SendResetMail: func(ctx context.Context, email, uid, token string) {
			e.queueMail(ctx, passwordResetMail(email, e.passwordResetLink(ctx, uid, token)))
		},
		MetricInc: func(id int) {
			e.metricInc(MetricID(id))
		},
		EmitAudit:     e.emitAudit,
		EmitRateLimit: e.emitRateLimit,
		Metrics: internalflows.PasswordResetMetrics{
			PasswordResetRequest:        int(MetricPasswordResetRequest),
			PasswordResetConfirmSuccess: int(MetricPasswordResetConfirmSuccess),
			PasswordResetConfirmFailure: int(MetricPasswordResetConfirmFailure),
			PasswordResetReplay:         int(MetricPasswordResetReplay),
		},
		Events: internalflows.PasswordResetEvents{
			PasswordResetRequest: auditEventPasswordResetRequest,
			PasswordResetConfirm: auditEventPasswordResetConfirm,
			PasswordResetReplay:  auditEventPasswordResetReplay,
		},
		Errors: internalflows.PasswordResetErrors{
			EngineNotReady:       ErrEngineNotReady,
			UnknownEmail:         errResetUnknownEmail,
			InvalidUID:           ErrInvalidUID,
			PasswordResetInvalid: ErrPasswordResetInvalid,
		},
	}
}
