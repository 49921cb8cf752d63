package mailAuth

import "context"

// Profile returns the profile of userID.
func (e *Engine) Profile(ctx context.Context, userID string) (ProfileRecord, error) {
	if !e.ready() {
		return ProfileRecord{}, ErrEngineNotReady
	}
	p, err := e.users.GetProfile(ctx, userID)
	if err != nil {
		return ProfileRecord{}, storeError(err)
	}
	return p, nil
}

// UpdateProfile applies the non-nil fields of update and returns the result.
func (e *Engine) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (ProfileRecord, error) {
	if !e.ready() {
		return ProfileRecord{}, ErrEngineNotReady
	}
	if err := validateProfileUpdate(update); err != nil {
		return ProfileRecord{}, err
	}

	p, err := e.users.UpdateProfile(ctx, userID, update)
	if err != nil {
		return ProfileRecord{}, storeError(err)
	}

	e.emitAudit(ctx, auditEventProfileUpdate, true, userID, nil, nil)
	return p, nil
}
