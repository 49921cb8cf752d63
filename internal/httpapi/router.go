package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/MrEthical07/mailAuth"
	"github.com/MrEthical07/mailAuth/middleware"
)

// Service is the engine surface the handlers call. *mailAuth.Engine
// implements it.
type Service interface {
	Register(ctx context.Context, req mailAuth.RegisterRequest) (*mailAuth.RegisterResult, error)
	ConfirmEmail(ctx context.Context, token string) (string, error)
	ResendConfirmEmail(ctx context.Context, req mailAuth.EmailRequest) error
	Login(ctx context.Context, req mailAuth.LoginRequest) (*mailAuth.LoginResult, error)
	Profile(ctx context.Context, userID string) (mailAuth.ProfileRecord, error)
	UpdateProfile(ctx context.Context, userID string, update mailAuth.ProfileUpdate) (mailAuth.ProfileRecord, error)
	ChangePassword(ctx context.Context, userID string, req mailAuth.ChangePasswordRequest) error
	RequestPasswordReset(ctx context.Context, req mailAuth.EmailRequest) error
	ConfirmPasswordReset(ctx context.Context, uid, token string, req mailAuth.PasswordResetConfirmRequest) error
	Logout(ctx context.Context, userID, refreshToken string) error
	RefreshAccess(ctx context.Context, refreshToken string) (string, error)
	Authenticate(ctx context.Context, accessToken string) (*mailAuth.AuthResult, error)
}

// HealthFunc reports whether a backing service is reachable.
type HealthFunc func(ctx context.Context) error

// Options configures NewRouter.
type Options struct {
	Logger zerolog.Logger
	// Metrics is mounted at MetricsPath when non-nil.
	Metrics     http.Handler
	MetricsPath string
	// Health checks run on GET /healthz in map order; any failure answers 503.
	Health map[string]HealthFunc
	// TrustedProxies limits which peers may set X-Forwarded-For. Nil trusts none.
	TrustedProxies []string
	// BaseURL overrides the per-request scheme and host used in emailed links.
	BaseURL string
}

type handler struct {
	svc Service
	log zerolog.Logger
}

// NewRouter builds the gin engine with every account route registered.
func NewRouter(svc Service, opts Options) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, err
	}
	r.RedirectTrailingSlash = false

	r.Use(Recovery(opts.Logger))
	r.Use(RequestLogger(opts.Logger))
	r.Use(requestContext(opts.BaseURL))

	h := &handler{svc: svc, log: opts.Logger}
	guard := middleware.Guard(svc)

	r.POST("/register/", h.register)
	r.GET("/confirm_email/:token/", h.confirmEmail)
	r.POST("/resend_confirm_email/", h.resendConfirmEmail)
	r.POST("/login/", h.login)
	r.GET("/profile/", guard, h.profile)
	r.PATCH("/profile/", guard, h.updateProfile)
	r.POST("/change_password/", guard, h.changePassword)
	r.POST("/reset-password/", h.requestPasswordReset)
	r.POST("/reset-password/:uid/:token/", h.confirmPasswordReset)
	r.POST("/logout/", guard, h.logout)
	r.POST("/token/refresh/", h.refresh)

	r.GET("/healthz", healthz(opts.Health))
	if opts.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(opts.Metrics))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	})

	return r, nil
}

func healthz(checks map[string]HealthFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := gin.H{}
		healthy := true
		for name, check := range checks {
			if err := check(c.Request.Context()); err != nil {
				status[name] = "down"
				healthy = false
				continue
			}
			status[name] = "up"
		}

		if !healthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": status})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": status})
	}
}
