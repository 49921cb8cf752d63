package httpapi

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MrEthical07/mailAuth"
)

const (
	msgLoginFailed        = "Login failed, email or password is not valid!"
	msgLoginThrottled     = "Too many failed attempts. Try again later or reset your password."
	msgThrottled          = "Too many requests. Try again later."
	msgUnavailable        = "Service temporarily unavailable"
	msgInternal           = "Internal server error"
	msgMalformedBody      = "Malformed JSON body."
	msgActivationInvalid  = "Activation link is invalid or expired!"
	msgActivationNotFound = "Activation link is invalid!"
	msgAlreadyVerified    = "You are already verified"
	msgInvalidUID         = "Invalid user identifier"
	msgResetInvalid       = "Invalid or expired token"
)

// writeError maps an engine error to its status and body. Backend failures
// are logged and answered without detail.
func (h *handler) writeError(c *gin.Context, err error) {
	var verr *mailAuth.ValidationError
	if errors.As(err, &verr) {
		if verr.Message != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
			return
		}
		c.JSON(http.StatusBadRequest, verr.Fields)
		return
	}

	var limited *mailAuth.RateLimitError
	if errors.As(err, &limited) {
		retryAfter := retrySeconds(limited.RetryAfter)
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		msg := msgThrottled
		if errors.Is(err, mailAuth.ErrLoginRateLimited) {
			msg = msgLoginThrottled
		}
		c.JSON(http.StatusTooManyRequests, gin.H{"error": msg, "retry_after": retryAfter})
		return
	}

	switch {
	case errors.Is(err, mailAuth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"errors": msgLoginFailed})
	case errors.Is(err, mailAuth.ErrAccountInactive):
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is not active"})
	case errors.Is(err, mailAuth.ErrAccountUnverified):
		c.JSON(http.StatusForbidden, gin.H{"error": "Email not verified"})
	case errors.Is(err, mailAuth.ErrActivationUserNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": msgActivationNotFound})
	case errors.Is(err, mailAuth.ErrActivationLinkInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": msgActivationInvalid})
	case errors.Is(err, mailAuth.ErrAlreadyVerified):
		c.JSON(http.StatusBadRequest, gin.H{"message": msgAlreadyVerified})
	case errors.Is(err, mailAuth.ErrInvalidUID):
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidUID})
	case errors.Is(err, mailAuth.ErrPasswordResetInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": msgResetInvalid})
	case errors.Is(err, mailAuth.ErrTokenInvalid),
		errors.Is(err, mailAuth.ErrTokenRevoked),
		errors.Is(err, mailAuth.ErrTokenNotFound),
		errors.Is(err, mailAuth.ErrTokenAlreadyRevoked):
		c.Status(http.StatusBadRequest)
	case errors.Is(err, mailAuth.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	case errors.Is(err, mailAuth.ErrStoreUnavailable),
		errors.Is(err, mailAuth.ErrRedisUnavailable),
		errors.Is(err, mailAuth.ErrEngineNotReady):
		_ = c.Error(err)
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("backend unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": msgUnavailable})
	default:
		_ = c.Error(err)
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
	}
}

func retrySeconds(d time.Duration) int {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}
