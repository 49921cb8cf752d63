package mailAuth

import (
	"context"
	"errors"
)

const activationSuccessMessage = "Account activated successfully!"

// ConfirmEmail activates the account named by a verification token and
// returns the success message.
//
// Expired and tampered tokens both yield ErrActivationLinkInvalid, so a
// caller cannot tell them apart.
func (e *Engine) ConfirmEmail(ctx context.Context, token string) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}

	res := e.jwtManager.DecodeAction(token, purposeEmailVerification)
	if !res.OK() {
		return "", e.verificationFailed(ctx, "", ErrActivationLinkInvalid, res.Status.String())
	}

	user, err := e.users.GetUserByID(ctx, res.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", e.verificationFailed(ctx, res.UserID, ErrActivationUserNotFound, "user_not_found")
		}
		return "", storeError(err)
	}
	if user.IsVerified {
		return "", e.verificationFailed(ctx, user.ID, ErrAlreadyVerified, "already_verified")
	}

	if err := e.users.MarkVerified(ctx, user.ID); err != nil {
		return "", storeError(err)
	}

	e.metricInc(MetricEmailVerificationSuccess)
	e.emitAudit(ctx, auditEventEmailVerification, true, user.ID, nil, nil)
	return activationSuccessMessage, nil
}

func (e *Engine) verificationFailed(ctx context.Context, userID string, err error, reason string) error {
	e.metricInc(MetricEmailVerificationFailure)
	e.emitAudit(ctx, auditEventEmailVerification, false, userID, err, func() map[string]string {
		return map[string]string{
			"reason": reason,
		}
	})
	return err
}

// ResendConfirmEmail queues a fresh verification email for an unverified
// account. Earlier links stay valid until they expire.
func (e *Engine) ResendConfirmEmail(ctx context.Context, req EmailRequest) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	email := normalizeEmail(req.Email)
	if err := validateShape(EmailRequest{Email: email}); err != nil {
		return err
	}

	if err := e.resendLimiter.CheckResend(ctx, email, ClientIPFromContext(ctx)); err != nil {
		err = limiterError(err)
		if errors.Is(err, ErrRateLimited) {
			e.emitRateLimit(ctx, "verification_resend", func() map[string]string {
				return map[string]string{
					"identifier": email,
				}
			})
		}
		return err
	}

	user, err := e.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return fieldError("email", "User with this email does not exist")
		}
		return storeError(err)
	}
	if user.IsVerified {
		return fieldError("email", "Email is already verified")
	}

	if err := e.sendVerificationMail(ctx, user, true); err != nil {
		return err
	}

	e.metricInc(MetricEmailVerificationResent)
	e.emitAudit(ctx, auditEventVerificationResend, true, user.ID, nil, nil)
	return nil
}

func (e *Engine) sendVerificationMail(ctx context.Context, user UserRecord, resend bool) error {
	token, _, err := e.jwtManager.CreateAction(user.ID, purposeEmailVerification, e.config.EmailVerification.VerificationTTL)
	if err != nil {
		return err
	}
	e.queueMail(ctx, verificationMail(user.Email, e.confirmEmailLink(ctx, token), resend))
	return nil
}
