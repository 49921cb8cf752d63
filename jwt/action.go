package jwt

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// ActionStatus is the outcome of decoding an action token.
type ActionStatus int

const (
	ActionInvalid ActionStatus = iota
	ActionOK
	ActionExpired
)

func (s ActionStatus) String() string {
	switch s {
	case ActionOK:
		return "ok"
	case ActionExpired:
		return "expired"
	default:
		return "invalid"
	}
}

// ActionResult is returned by [Manager.DecodeAction]. UserID and JTI are only
// set when Status is ActionOK.
type ActionResult struct {
	Status    ActionStatus
	UserID    string
	JTI       string
	ExpiresAt int64
}

// OK reports whether the token was valid.
func (r ActionResult) OK() bool { return r.Status == ActionOK }

// DecodeAction checks signature, expiry, token_type and purpose of an action
// token. A token only reports ActionExpired when its signature is intact, so
// tampered tokens are always ActionInvalid.
func (m *Manager) DecodeAction(token, purpose string) ActionResult {
	claims, err := m.parse(token)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return ActionResult{Status: ActionExpired}
	default:
		return ActionResult{Status: ActionInvalid}
	}

	if claims.TokenType != TypeAction || claims.Purpose != purpose || claims.ID == "" {
		return ActionResult{Status: ActionInvalid}
	}

	res := ActionResult{
		Status: ActionOK,
		UserID: claims.UserID,
		JTI:    claims.ID,
	}
	if claims.ExpiresAt != nil {
		res.ExpiresAt = claims.ExpiresAt.Unix()
	}
	return res
}
