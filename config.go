package mailAuth

import (
	"errors"
	"strings"
	"time"
)

// Config holds every Engine setting. Start from [DefaultConfig] and override.
type Config struct {
	JWT               JWTConfig
	Password          PasswordConfig
	LoginThrottle     LoginThrottleConfig
	PasswordReset     PasswordResetConfig
	EmailVerification EmailVerificationConfig
	Registration      RegistrationConfig
	Links             LinksConfig
	Mail              MailConfig
	Audit             AuditConfig
	Metrics           MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures session and action tokens.
type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte // HS256 secret, or Ed25519 private key
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds Argon2id cost parameters and the strength policy.
type PasswordConfig struct {
	Memory         uint32 // in KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	UpgradeOnLogin bool

	MinLength     int
	MaxSimilarity float64
	RejectCommon  bool
	RejectNumeric bool
}

/*
====================================
THROTTLE AND LIMITERS
====================================
*/

// LoginThrottleConfig configures the per-email login counter. Every login
// request counts, and the request that brings the counter to Threshold is
// refused.
type LoginThrottleConfig struct {
	Threshold   int
	Window      time.Duration
	RedisPrefix string
}

// PasswordResetConfig configures reset links and the reset request limiter.
type PasswordResetConfig struct {
	ResetTTL                 time.Duration
	MaxAttempts              int
	RedisPrefix              string
	EnableIdentifierThrottle bool
	EnableIPThrottle         bool
	MaxRequests              int
	RequestWindow            time.Duration
}

// EmailVerificationConfig configures verification links and the resend limiter.
type EmailVerificationConfig struct {
	VerificationTTL          time.Duration
	EnableIdentifierThrottle bool
	EnableIPThrottle         bool
	MaxResends               int
	ResendWindow             time.Duration
}

// RegistrationConfig configures the registration limiter.
type RegistrationConfig struct {
	EnableIdentifierThrottle bool
	EnableIPThrottle         bool
	MaxAttempts              int
	Window                   time.Duration
}

/*
====================================
OUTBOUND
====================================
*/

// LinksConfig controls the links placed in emails. An empty BaseURL falls
// back to the request's own origin (see [WithBaseURL]).
type LinksConfig struct {
	BaseURL string
}

// MailConfig controls asynchronous mail delivery.
type MailConfig struct {
	From        string
	BufferSize  int
	DropIfFull  bool
	SendTimeout time.Duration
}

// AuditConfig controls asynchronous audit delivery.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles in-process counters and the login latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the standard settings: 15 minute access tokens,
// 7 day refresh tokens, 24 hour verification links, 1 hour reset links and a
// login throttle of 3 requests per hour.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: "hs256",
			Leeway:        0,
		},
		Password: PasswordConfig{
			Memory:         65536,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
			MinLength:      8,
			MaxSimilarity:  0.7,
			RejectCommon:   true,
			RejectNumeric:  true,
		},
		LoginThrottle: LoginThrottleConfig{
			Threshold:   3,
			Window:      time.Hour,
			RedisPrefix: "al",
		},
		PasswordReset: PasswordResetConfig{
			ResetTTL:                 time.Hour,
			MaxAttempts:              5,
			RedisPrefix:              "apr",
			EnableIdentifierThrottle: true,
			EnableIPThrottle:         true,
			MaxRequests:              5,
			RequestWindow:            time.Hour,
		},
		EmailVerification: EmailVerificationConfig{
			VerificationTTL:          24 * time.Hour,
			EnableIdentifierThrottle: true,
			EnableIPThrottle:         false,
			MaxResends:               5,
			ResendWindow:             time.Hour,
		},
		Registration: RegistrationConfig{
			EnableIdentifierThrottle: false,
			EnableIPThrottle:         true,
			MaxAttempts:              20,
			Window:                   time.Hour,
		},
		Mail: MailConfig{
			From:        "no-reply@localhost",
			BufferSize:  256,
			DropIfFull:  true,
			SendTimeout: 10 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate rejects configurations the Engine cannot run safely with.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be >= AccessTTL")
	}
	switch strings.ToLower(c.JWT.SigningMethod) {
	case "", "hs256":
		if len(c.JWT.PrivateKey) < 32 {
			return errors.New("hs256 requires a PrivateKey of at least 32 bytes")
		}
	case "ed25519":
		if len(c.JWT.PrivateKey) == 0 {
			return errors.New("ed25519 requires PrivateKey")
		}
		if len(c.JWT.PublicKey) == 0 {
			return errors.New("ed25519 requires PublicKey")
		}
	default:
		return errors.New("unsupported JWT signing method")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.MinLength < 0 {
		return errors.New("Password MinLength must be >= 0")
	}
	if c.Password.MaxSimilarity < 0 || c.Password.MaxSimilarity > 1 {
		return errors.New("Password MaxSimilarity must be between 0 and 1")
	}

	// Login throttle
	if c.LoginThrottle.Threshold <= 0 {
		return errors.New("LoginThrottle Threshold must be > 0")
	}
	if c.LoginThrottle.Window <= 0 {
		return errors.New("LoginThrottle Window must be > 0")
	}

	// Password reset
	if c.PasswordReset.ResetTTL <= 0 {
		return errors.New("PasswordReset ResetTTL must be > 0")
	}
	if c.PasswordReset.MaxAttempts <= 0 {
		return errors.New("PasswordReset MaxAttempts must be > 0")
	}
	if c.PasswordReset.EnableIdentifierThrottle || c.PasswordReset.EnableIPThrottle {
		if c.PasswordReset.MaxRequests <= 0 {
			return errors.New("PasswordReset MaxRequests must be > 0 when throttled")
		}
		if c.PasswordReset.RequestWindow <= 0 {
			return errors.New("PasswordReset RequestWindow must be > 0 when throttled")
		}
	}

	// Email verification
	if c.EmailVerification.VerificationTTL <= 0 {
		return errors.New("EmailVerification VerificationTTL must be > 0")
	}
	if c.EmailVerification.EnableIdentifierThrottle || c.EmailVerification.EnableIPThrottle {
		if c.EmailVerification.MaxResends <= 0 {
			return errors.New("EmailVerification MaxResends must be > 0 when throttled")
		}
		if c.EmailVerification.ResendWindow <= 0 {
			return errors.New("EmailVerification ResendWindow must be > 0 when throttled")
		}
	}

	// Registration
	if c.Registration.EnableIdentifierThrottle || c.Registration.EnableIPThrottle {
		if c.Registration.MaxAttempts <= 0 {
			return errors.New("Registration MaxAttempts must be > 0 when throttled")
		}
		if c.Registration.Window <= 0 {
			return errors.New("Registration Window must be > 0 when throttled")
		}
	}

	// Links
	if base := strings.TrimSpace(c.Links.BaseURL); base != "" {
		if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
			return errors.New("Links BaseURL must start with http:// or https://")
		}
	}

	// Mail
	if c.Mail.BufferSize <= 0 {
		return errors.New("Mail BufferSize must be > 0")
	}
	if c.Mail.SendTimeout <= 0 {
		return errors.New("Mail SendTimeout must be > 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
