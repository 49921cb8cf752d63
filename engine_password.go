package mailAuth

import (
	"context"
)

// ChangePassword replaces the password of an authenticated user after
// checking the current one. Existing sessions stay valid.
func (e *Engine) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if err := validateShape(req); err != nil {
		return err
	}

	user, err := e.users.GetUserByID(ctx, userID)
	if err != nil {
		return storeError(err)
	}

	ok, err := e.passwordHash.Verify(req.OldPassword, user.PasswordHash)
	if err != nil {
		e.warn("stored password hash could not be verified", err)
	}
	if err != nil || !ok {
		verr := fieldError("old_password", "Incorrect current password")
		e.metricInc(MetricPasswordChangeInvalidOld)
		e.emitAudit(ctx, auditEventPasswordChangeInvalid, false, userID, verr, nil)
		return verr
	}

	if err := e.checkPasswordPair(
		req.NewPassword,
		req.ConfirmNewPassword,
		"The new passwords do not match",
		"new_password",
		userAttributes(user.Email, user.Name)...,
	); err != nil {
		return err
	}

	hash, err := e.passwordHash.Hash(req.NewPassword)
	if err != nil {
		return fieldError("new_password", err.Error())
	}
	if err := e.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return storeError(err)
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, userID, nil, nil)
	return nil
}
