package mailAuth

import (
	"context"
	"errors"
	"strings"
)

const registerSuccessMessage = "You registered successfully!"

// Register creates an inactive, unverified account, issues a session for it
// and queues the verification email.
//
// Checks run in order: request shape, registration limiter, password
// confirmation, password policy, email uniqueness. The first failure wins.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := validateShape(req); err != nil {
		e.metricInc(MetricRegisterRejected)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", err, nil)
		return nil, err
	}

	email, name := req.Email, req.Name

	if err := e.registrationLimiter.CheckRequest(ctx, email, ClientIPFromContext(ctx)); err != nil {
		err = limiterError(err)
		if errors.Is(err, ErrRateLimited) {
			e.metricInc(MetricRegisterRateLimited)
			e.emitRateLimit(ctx, "register", func() map[string]string {
				return map[string]string{
					"identifier": email,
				}
			})
		}
		return nil, err
	}

	if err := e.checkPasswordPair(req.Password, req.ConfirmPassword, "The passwords do not match", "password", userAttributes(email, name)...); err != nil {
		e.metricInc(MetricRegisterRejected)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", err, func() map[string]string {
			return map[string]string{
				"identifier": email,
			}
		})
		return nil, err
	}

	if _, err := e.users.GetUserByEmail(ctx, email); err == nil {
		return nil, e.registerDuplicate(ctx, email)
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, storeError(err)
	}

	hash, err := e.passwordHash.Hash(req.Password)
	if err != nil {
		return nil, fieldError("password", err.Error())
	}

	user, err := e.users.CreateUser(ctx, CreateUserInput{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		RememberMe:   req.RememberMe,
	})
	if err != nil {
		// Lost a race against a concurrent registration.
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, e.registerDuplicate(ctx, email)
		}
		return nil, storeError(err)
	}

	tokens, err := e.issueSession(ctx, user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	if err := e.sendVerificationMail(ctx, user, false); err != nil {
		e.warn("verification email not queued", err)
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, user.ID, nil, nil)

	return &RegisterResult{
		Access:                    tokens.Access,
		Refresh:                   tokens.Refresh,
		Message:                   registerSuccessMessage,
		EmailVerificationRequired: !user.IsVerified,
		UserID:                    user.ID,
	}, nil
}

func (e *Engine) registerDuplicate(ctx context.Context, email string) error {
	err := duplicateEmailError()
	e.metricInc(MetricRegisterDuplicate)
	e.emitAudit(ctx, auditEventRegisterDuplicate, false, "", err, func() map[string]string {
		return map[string]string{
			"identifier": email,
		}
	})
	return err
}

// CreateSuperuser creates an active, verified staff account with superuser
// rights. It skips the password policy and the verification email.
func (e *Engine) CreateSuperuser(ctx context.Context, email, name, pw string) (UserRecord, error) {
	if !e.ready() {
		return UserRecord{}, ErrEngineNotReady
	}
	email, name = normalizeEmail(email), strings.TrimSpace(name)
	if err := validateShape(RegisterRequest{Email: email, Name: name, Password: pw, ConfirmPassword: pw}); err != nil {
		return UserRecord{}, err
	}

	hash, err := e.passwordHash.Hash(pw)
	if err != nil {
		return UserRecord{}, fieldError("password", err.Error())
	}

	user, err := e.users.CreateUser(ctx, CreateUserInput{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		IsActive:     true,
		IsVerified:   true,
		IsStaff:      true,
		IsSuperuser:  true,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return UserRecord{}, duplicateEmailError()
		}
		return UserRecord{}, storeError(err)
	}

	e.emitAudit(ctx, auditEventSuperuserCreated, true, user.ID, nil, nil)
	return user, nil
}
