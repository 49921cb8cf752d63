package mailAuth

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateEmail is returned when an account with the same normalized email exists.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrUserNotFound is returned by stores when no user matches.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned by Login for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountInactive is returned by Login and Authenticate for inactive accounts.
	ErrAccountInactive = errors.New("account is not active")
	// ErrAccountUnverified is returned by Login before the email has been confirmed.
	ErrAccountUnverified = errors.New("email not verified")
	// ErrAlreadyVerified is returned by ConfirmEmail for an already confirmed account.
	ErrAlreadyVerified = errors.New("email already verified")
	// ErrActivationLinkInvalid covers expired, tampered and wrong-purpose verification tokens.
	ErrActivationLinkInvalid = errors.New("activation link is invalid or expired")
	// ErrActivationUserNotFound is returned when a valid verification token names no user.
	ErrActivationUserNotFound = errors.New("activation link is invalid")
	// ErrLoginRateLimited matches login throttle rejections.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrRateLimited matches request limiter rejections on registration, resend and reset.
	ErrRateLimited = errors.New("request rate limited")
	// ErrInvalidUID is returned by ConfirmPasswordReset when the uid segment cannot be resolved.
	ErrInvalidUID = errors.New("invalid user identifier")
	// ErrPasswordResetInvalid covers expired, tampered, mismatched and replayed reset links.
	ErrPasswordResetInvalid = errors.New("invalid or expired reset token")
	// ErrTokenInvalid is returned for malformed, expired or wrong-type session tokens.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenNotFound is returned when a refresh token has no outstanding record.
	ErrTokenNotFound = errors.New("token not found")
	// ErrTokenAlreadyRevoked is returned when blacklisting an already blacklisted token.
	ErrTokenAlreadyRevoked = errors.New("token already revoked")
	// ErrTokenRevoked is returned by RefreshAccess for a blacklisted refresh token.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrUnauthorized is returned by Authenticate when no usable credentials are present.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrStoreUnavailable wraps failures of the relational store.
	ErrStoreUnavailable = errors.New("credential store unavailable")
	// ErrRedisUnavailable wraps failures of the throttle, limiters and reset records.
	ErrRedisUnavailable = errors.New("redis unavailable")
	// ErrEngineNotReady is returned by a zero or partially built Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// FieldErrors maps a request field to its messages.
type FieldErrors map[string][]string

// Add appends msg under field.
func (f FieldErrors) Add(field, msg string) {
	f[field] = append(f[field], msg)
}

// ValidationError carries field-level messages, or a single non-field
// Message such as a password/confirmation mismatch.
type ValidationError struct {
	Fields  FieldErrors
	Message string
	// cause is a second sentinel the error matches, e.g. ErrDuplicateEmail.
	cause error
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return "validation failed: " + e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() []error {
	if e.cause != nil {
		return []error{ErrValidation, e.cause}
	}
	return []error{ErrValidation}
}

func fieldError(field, msg string) *ValidationError {
	return &ValidationError{Fields: FieldErrors{field: {msg}}}
}

func messageError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func duplicateEmailError() *ValidationError {
	return &ValidationError{
		Fields: FieldErrors{"email": {"Email already registered"}},
		cause:  ErrDuplicateEmail,
	}
}

// RateLimitError is returned when a throttle or limiter refuses a request.
// Err is ErrLoginRateLimited or ErrRateLimited.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%v: retry after %s", e.Err, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error { return e.Err }
