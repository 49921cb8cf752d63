package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MrEthical07/mailAuth"
	"github.com/MrEthical07/mailAuth/middleware"
)

const (
	msgResent          = "The activation email has been sent again successfully"
	msgResetLinkSent   = "Reset Password's Link Sent, Please Check Your Email BOX."
	msgPasswordChanged = "password changed successfully"
	msgPasswordReset   = "password reset successfully"
	msgLoggedOut       = "You Logout Successfully"
)

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// bind decodes the JSON body into dst. An empty body leaves dst zero so the
// engine reports the missing fields.
func (h *handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": msgMalformedBody})
		return false
	}
	return true
}

func (h *handler) register(c *gin.Context) {
	var req mailAuth.RegisterRequest
	if !h.bind(c, &req) {
		return
	}

	res, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *handler) confirmEmail(c *gin.Context) {
	msg, err := h.svc.ConfirmEmail(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (h *handler) resendConfirmEmail(c *gin.Context) {
	var req mailAuth.EmailRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.svc.ResendConfirmEmail(c.Request.Context(), req); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msgResent})
}

func (h *handler) login(c *gin.Context) {
	var req mailAuth.LoginRequest
	if !h.bind(c, &req) {
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handler) profile(c *gin.Context) {
	caller, ok := middleware.AuthResultFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
		return
	}

	p, err := h.svc.Profile(c.Request.Context(), caller.UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handler) updateProfile(c *gin.Context) {
	caller, ok := middleware.AuthResultFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
		return
	}

	var update mailAuth.ProfileUpdate
	if !h.bind(c, &update) {
		return
	}

	p, err := h.svc.UpdateProfile(c.Request.Context(), caller.UserID, update)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handler) changePassword(c *gin.Context) {
	caller, ok := middleware.AuthResultFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
		return
	}

	var req mailAuth.ChangePasswordRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), caller.UserID, req); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": msgPasswordChanged})
}

func (h *handler) requestPasswordReset(c *gin.Context) {
	var req mailAuth.EmailRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.svc.RequestPasswordReset(c.Request.Context(), req); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": msgResetLinkSent})
}

func (h *handler) confirmPasswordReset(c *gin.Context) {
	var req mailAuth.PasswordResetConfirmRequest
	if !h.bind(c, &req) {
		return
	}

	err := h.svc.ConfirmPasswordReset(c.Request.Context(), c.Param("uid"), c.Param("token"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": msgPasswordReset})
}

// logout answers every revoke failure with a bare 400. Only the missing
// token case carries a message.
func (h *handler) logout(c *gin.Context) {
	caller, ok := middleware.AuthResultFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
		return
	}

	var req logoutRequest
	if !h.bind(c, &req) {
		return
	}

	err := h.svc.Logout(c.Request.Context(), caller.UserID, req.RefreshToken)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"msg": msgLoggedOut})
		return
	}

	var verr *mailAuth.ValidationError
	switch {
	case errors.As(err, &verr):
		h.writeError(c, err)
	case errors.Is(err, mailAuth.ErrStoreUnavailable), errors.Is(err, mailAuth.ErrEngineNotReady):
		h.writeError(c, err)
	default:
		c.Status(http.StatusBadRequest)
	}
}

func (h *handler) refresh(c *gin.Context) {
	var req refreshRequest
	if !h.bind(c, &req) {
		return
	}
	if req.Refresh == "" {
		c.JSON(http.StatusBadRequest, gin.H{"refresh": []string{"This field is required."}})
		return
	}

	access, err := h.svc.RefreshAccess(c.Request.Context(), req.Refresh)
	if err != nil {
		if errors.Is(err, mailAuth.ErrTokenInvalid) || errors.Is(err, mailAuth.ErrTokenRevoked) {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Token is invalid or expired", "code": "token_not_valid"})
			return
		}
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": access})
}
