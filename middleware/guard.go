package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	mailAuth "github.com/MrEthical07/mailAuth"
)

const (
	detailMissingCredentials = "Authentication credentials were not provided."
	detailInvalidToken       = "Given token not valid for any token type"
	detailInactiveUser       = "User is inactive"

	authResultKey = "mailauth.auth_result"
)

// Authenticator resolves an access token to its caller. *mailAuth.Engine
// implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*mailAuth.AuthResult, error)
}

// Guard rejects requests that do not carry a valid "Bearer <access>" header.
// Backend failures answer 503 so an outage is not reported as bad credentials.
func Guard(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Service unavailable"})
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detailMissingCredentials})
			return
		}

		res, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, mailAuth.ErrAccountInactive):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detailInactiveUser, "code": "user_inactive"})
			case errors.Is(err, mailAuth.ErrStoreUnavailable), errors.Is(err, mailAuth.ErrEngineNotReady):
				_ = c.Error(err)
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Service unavailable"})
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detailInvalidToken, "code": "token_not_valid"})
			}
			return
		}

		c.Set(authResultKey, res)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), authResultContextKey{}, res))
		c.Next()
	}
}

type authResultContextKey struct{}

// AuthResultFromContext returns the caller stored by [Guard]. It accepts a
// *gin.Context or the request context of a guarded request.
func AuthResultFromContext(ctx context.Context) (*mailAuth.AuthResult, bool) {
	if ctx == nil {
		return nil, false
	}
	if gc, ok := ctx.(*gin.Context); ok {
		if v, exists := gc.Get(authResultKey); exists {
			res, ok := v.(*mailAuth.AuthResult)
			return res, ok
		}
		if gc.Request == nil {
			return nil, false
		}
		ctx = gc.Request.Context()
	}
	res, ok := ctx.Value(authResultContextKey{}).(*mailAuth.AuthResult)
	return res, ok
}

func bearerToken(value string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(value), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}

	return token, true
}
