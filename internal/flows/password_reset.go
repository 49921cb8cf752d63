package flows

import (
	"context"
	"crypto/sha256"
	"time"
)

// PasswordResetUser is the flow-local view of an account.
type PasswordResetUser struct {
	UserID       string
	Email        string
	Name         string
	PasswordHash string
}

// PasswordResetRecord is the single-use server-side half of a reset link.
type PasswordResetRecord struct {
	UserID      string
	TokenHash   [32]byte
	Fingerprint [32]byte
	ExpiresAt   int64
}

// ResetToken is a decoded reset token. Valid is false for expired, tampered
// and wrong-purpose tokens alike.
type ResetToken struct {
	Valid  bool
	UserID string
	JTI    string
}

type PasswordResetMetrics struct {
	PasswordResetRequest        int
	PasswordResetConfirmSuccess int
	PasswordResetConfirmFailure int
	PasswordResetReplay         int
}

type PasswordResetEvents struct {
	PasswordResetRequest string
	PasswordResetConfirm string
	PasswordResetReplay  string
}

type PasswordResetErrors struct {
	EngineNotReady       error
	UnknownEmail         error
	InvalidUID           error
	PasswordResetInvalid error
}

type PasswordResetDeps struct {
	ResetTTL    time.Duration
	MaxAttempts int

	ClientIPFromContext func(context.Context) string
	Now                 func() time.Time

	CheckRequestLimiter func(context.Context, string, string) error
	CheckConfirmLimiter func(context.Context, string, string) error

	GetUserByEmail     func(context.Context, string) (PasswordResetUser, error)
	GetUserByID        func(context.Context, string) (PasswordResetUser, error)
	IsUserNotFound     func(error) bool
	HashPassword       func(string) (string, error)
	UpdatePasswordHash func(context.Context, string, string) error

	// ValidateNewPassword applies the mismatch rule and the strength policy.
	ValidateNewPassword func(newPassword, confirm string) error
	// CheckAgainstUser rejects a new password that resembles the account's
	// own attributes. It runs once the uid has resolved to a user.
	CheckAgainstUser func(newPassword string, user PasswordResetUser) error

	CreateResetToken   func(userID string, ttl time.Duration) (token string, jti string, err error)
	DecodeResetToken   func(token string) ResetToken
	EncodeUID          func(userID string) string
	DecodeUID          func(uid string) (string, error)
	SaveResetRecord    func(context.Context, string, PasswordResetRecord, time.Duration) error
	ConsumeResetRecord func(context.Context, string, string, [32]byte, int) (PasswordResetRecord, error)
	// RestoreResetRecord puts a consumed record back when the password
	// could not be written, so the link stays usable.
	RestoreResetRecord func(context.Context, string, PasswordResetRecord, time.Duration) error
	// IsRecordRejected reports consume errors that mean "no usable record"
	// as opposed to backend failures.
	IsRecordRejected func(error) bool

	SendResetMail func(ctx context.Context, email, uid, token string)

	MetricInc     func(int)
	EmitAudit     func(context.Context, string, bool, string, error, func() map[string]string)
	EmitRateLimit func(context.Context, string, func() map[string]string)

	Metrics PasswordResetMetrics
	Events  PasswordResetEvents
	Errors  PasswordResetErrors
}

func normalizePasswordResetDeps(deps *PasswordResetDeps) {
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
	if deps.IsUserNotFound == nil {
		deps.IsUserNotFound = func(error) bool { return false }
	}
	if deps.IsRecordRejected == nil {
		deps.IsRecordRejected = func(error) bool { return false }
	}
	if deps.CheckRequestLimiter == nil {
		deps.CheckRequestLimiter = func(context.Context, string, string) error { return nil }
	}
	if deps.CheckConfirmLimiter == nil {
		deps.CheckConfirmLimiter = func(context.Context, string, string) error { return nil }
	}
}

// PasswordFingerprint digests a stored password hash. A reset record is only
// honoured while the account still has the hash it was issued against.
func PasswordFingerprint(passwordHash string) [32]byte {
	return sha256.Sum256([]byte("mailauth:reset:" + passwordHash))
}

// RunRequestPasswordReset issues a reset token for email, registers its
// single-use record and queues the reset mail.
func RunRequestPasswordReset(ctx context.Context, email string, deps PasswordResetDeps) error {
	normalizePasswordResetDeps(&deps)
	if deps.GetUserByEmail == nil ||
		deps.CreateResetToken == nil ||
		deps.SaveResetRecord == nil ||
		deps.EncodeUID == nil ||
		deps.SendResetMail == nil {
		return deps.Errors.EngineNotReady
	}

	ip := deps.ClientIPFromContext(ctx)
	if err := deps.CheckRequestLimiter(ctx, email, ip); err != nil {
		deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, false, "", err, func() map[string]string {
			return map[string]string{
				"identifier": email,
			}
		})
		deps.EmitRateLimit(ctx, "password_reset_request", func() map[string]string {
			return map[string]string{
				"identifier": email,
			}
		})
		return err
	}

	user, err := deps.GetUserByEmail(ctx, email)
	if err != nil {
		if deps.IsUserNotFound(err) {
			deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, false, "", deps.Errors.UnknownEmail, func() map[string]string {
				return map[string]string{
					"identifier": email,
				}
			})
			return deps.Errors.UnknownEmail
		}
		return err
	}

	token, jti, err := deps.CreateResetToken(user.UserID, deps.ResetTTL)
	if err != nil {
		return err
	}

	record := PasswordResetRecord{
		UserID:      user.UserID,
		TokenHash:   sha256.Sum256([]byte(token)),
		Fingerprint: PasswordFingerprint(user.PasswordHash),
		ExpiresAt:   deps.Now().Add(deps.ResetTTL).Unix(),
	}
	if err := deps.SaveResetRecord(ctx, jti, record, deps.ResetTTL); err != nil {
		return err
	}

	deps.SendResetMail(ctx, user.Email, deps.EncodeUID(user.UserID), token)

	deps.MetricInc(deps.Metrics.PasswordResetRequest)
	deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, true, user.UserID, nil, nil)
	return nil
}

// RunConfirmPasswordReset validates the new password, resolves uid, consumes
// the reset record and rewrites the hash. Checks run in that order.
func RunConfirmPasswordReset(ctx context.Context, uid, token, newPassword, confirm string, deps PasswordResetDeps) error {
	normalizePasswordResetDeps(&deps)
	if deps.GetUserByID == nil ||
		deps.ValidateNewPassword == nil ||
		deps.DecodeResetToken == nil ||
		deps.DecodeUID == nil ||
		deps.ConsumeResetRecord == nil ||
		deps.HashPassword == nil ||
		deps.UpdatePasswordHash == nil {
		return deps.Errors.EngineNotReady
	}

	if err := deps.ValidateNewPassword(newPassword, confirm); err != nil {
		deps.MetricInc(deps.Metrics.PasswordResetConfirmFailure)
		deps.EmitAudit(ctx, deps.Events.PasswordResetConfirm, false, "", err, nil)
		return err
	}

	if err := deps.CheckConfirmLimiter(ctx, uid, deps.ClientIPFromContext(ctx)); err != nil {
		deps.EmitRateLimit(ctx, "password_reset_confirm", nil)
		return err
	}

	userID, err := deps.DecodeUID(uid)
	if err != nil {
		return failReset(ctx, deps, "", deps.Errors.InvalidUID)
	}
	user, err := deps.GetUserByID(ctx, userID)
	if err != nil {
		if deps.IsUserNotFound(err) {
			return failReset(ctx, deps, "", deps.Errors.InvalidUID)
		}
		return err
	}

	if deps.CheckAgainstUser != nil {
		if err := deps.CheckAgainstUser(newPassword, user); err != nil {
			deps.MetricInc(deps.Metrics.PasswordResetConfirmFailure)
			deps.EmitAudit(ctx, deps.Events.PasswordResetConfirm, false, user.UserID, err, nil)
			return err
		}
	}

	decoded := deps.DecodeResetToken(token)
	if !decoded.Valid || decoded.UserID != user.UserID || decoded.JTI == "" {
		return failReset(ctx, deps, user.UserID, deps.Errors.PasswordResetInvalid)
	}

	record, err := deps.ConsumeResetRecord(ctx, decoded.JTI, user.UserID, sha256.Sum256([]byte(token)), deps.MaxAttempts)
	if err != nil {
		if deps.IsRecordRejected(err) {
			deps.MetricInc(deps.Metrics.PasswordResetReplay)
			deps.EmitAudit(ctx, deps.Events.PasswordResetReplay, false, user.UserID, deps.Errors.PasswordResetInvalid, nil)
			return failReset(ctx, deps, user.UserID, deps.Errors.PasswordResetInvalid)
		}
		return err
	}
	if record.Fingerprint != PasswordFingerprint(user.PasswordHash) {
		return failReset(ctx, deps, user.UserID, deps.Errors.PasswordResetInvalid)
	}

	hash, err := deps.HashPassword(newPassword)
	if err == nil {
		err = deps.UpdatePasswordHash(ctx, user.UserID, hash)
	}
	if err != nil {
		restoreResetRecord(ctx, deps, decoded.JTI, record)
		return err
	}

	deps.MetricInc(deps.Metrics.PasswordResetConfirmSuccess)
	deps.EmitAudit(ctx, deps.Events.PasswordResetConfirm, true, user.UserID, nil, nil)
	return nil
}

func restoreResetRecord(ctx context.Context, deps PasswordResetDeps, jti string, record PasswordResetRecord) {
	if deps.RestoreResetRecord == nil {
		return
	}
	ttl := time.Unix(record.ExpiresAt, 0).Sub(deps.Now())
	if ttl <= 0 {
		return
	}
	// Best effort: the original error is what the caller needs to see.
	_ = deps.RestoreResetRecord(ctx, jti, record, ttl)
}

func failReset(ctx context.Context, deps PasswordResetDeps, userID string, err error) error {
	deps.MetricInc(deps.Metrics.PasswordResetConfirmFailure)
	deps.EmitAudit(ctx, deps.Events.PasswordResetConfirm, false, userID, err, nil)
	return err
}
