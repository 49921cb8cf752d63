package mailAuth

import (
	"context"
	"time"
)

// Gender is the optional profile gender. The empty value means unset.
type Gender string

const (
	GenderUnset  Gender = ""
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Valid reports whether g is one of the accepted values.
func (g Gender) Valid() bool {
	switch g {
	case GenderUnset, GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// UserRecord is the account as returned by a [UserStore].
type UserRecord struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	IsVerified   bool
	RememberMe   bool
	IsStaff      bool
	IsSuperuser  bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUserInput is passed to [UserStore.CreateUser]. Email is already
// normalized and PasswordHash already computed.
type CreateUserInput struct {
	Email        string
	Name         string
	PasswordHash string
	RememberMe   bool
	IsActive     bool
	IsVerified   bool
	IsStaff      bool
	IsSuperuser  bool
}

// ProfileRecord is the profile view of an account.
type ProfileRecord struct {
	UserID string `json:"-"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Bio    string `json:"bio"`
	Gender Gender `json:"gender"`
	Avatar string `json:"avatar"`
}

// ProfileUpdate changes the non-nil fields only.
type ProfileUpdate struct {
	Name   *string `json:"name"   validate:"omitempty,max=255"`
	Bio    *string `json:"bio"    validate:"omitempty,max=200"`
	Gender *Gender `json:"gender"`
	Avatar *string `json:"avatar" validate:"omitempty,max=255"`
}

// OutstandingToken records an issued refresh token.
type OutstandingToken struct {
	JTI       string
	UserID    string
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// UserStore persists accounts and profiles.
//
// Implementations return [ErrUserNotFound] for missing users,
// [ErrDuplicateEmail] when the email unique index rejects a write, and wrap
// every other backend failure with [ErrStoreUnavailable].
type UserStore interface {
	CreateUser(ctx context.Context, input CreateUserInput) (UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
	GetUserByID(ctx context.Context, userID string) (UserRecord, error)
	UpdatePasswordHash(ctx context.Context, userID, hash string) error
	MarkVerified(ctx context.Context, userID string) error
	TouchLastLogin(ctx context.Context, userID string, at time.Time, rememberMe *bool) error
	GetProfile(ctx context.Context, userID string) (ProfileRecord, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (ProfileRecord, error)
}

// TokenStore is the refresh-token denylist.
//
// Blacklist returns [ErrTokenNotFound] when jti was never recorded and
// [ErrTokenAlreadyRevoked] on a second call for the same jti.
type TokenStore interface {
	SaveOutstanding(ctx context.Context, token OutstandingToken) error
	GetOutstanding(ctx context.Context, jti string) (OutstandingToken, error)
	Blacklist(ctx context.Context, jti string, at time.Time) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	FlushExpired(ctx context.Context, now time.Time) (int64, error)
}

// RegisterRequest is the registration body.
type RegisterRequest struct {
	Email           string `json:"email"            validate:"required,email,max=255"`
	Name            string `json:"name"             validate:"max=255"`
	Password        string `json:"password"         validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
	RememberMe      bool   `json:"remember_me"`
}

// RegisterResult is returned by [Engine.Register].
type RegisterResult struct {
	Access                    string `json:"access"`
	Refresh                   string `json:"refresh"`
	Message                   string `json:"msg"`
	EmailVerificationRequired bool   `json:"email_verification_required"`
	UserID                    string `json:"user_id"`
}

// LoginRequest is the login body. A nil RememberMe leaves the stored preference alone.
type LoginRequest struct {
	Email      string `json:"email"       validate:"required,email,max=255"`
	Password   string `json:"password"    validate:"required"`
	RememberMe *bool  `json:"remember_me"`
}

// LoginResult is returned by [Engine.Login].
type LoginResult struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
}

// SessionTokens is an access/refresh pair.
type SessionTokens struct {
	Access           string
	Refresh          string
	RefreshJTI       string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// ChangePasswordRequest is the change-password body.
type ChangePasswordRequest struct {
	OldPassword        string `json:"old_password"         validate:"required"`
	NewPassword        string `json:"new_password"         validate:"required"`
	ConfirmNewPassword string `json:"confirm_new_password" validate:"required"`
}

// PasswordResetConfirmRequest is the body of a reset confirmation.
type PasswordResetConfirmRequest struct {
	NewPassword        string `json:"new_password"         validate:"required"`
	ConfirmNewPassword string `json:"confirm_new_password" validate:"required"`
}

// AuthResult identifies the caller behind a valid access token.
type AuthResult struct {
	UserID string
	Email  string
	User   UserRecord
}

// EmailRequest is the body of a resend-confirmation or reset-request call.
type EmailRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}
