package mailAuth

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/MrEthical07/mailAuth/internal/dispatch"
	"github.com/MrEthical07/mailAuth/internal/flows"
	"github.com/MrEthical07/mailAuth/internal/limiters"
	"github.com/MrEthical07/mailAuth/internal/rate"
	"github.com/MrEthical07/mailAuth/internal/stores"
	"github.com/MrEthical07/mailAuth/jwt"
	"github.com/MrEthical07/mailAuth/password"
)

// Builder assembles an [Engine]. A Builder is single-use.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	users  UserStore
	tokens TokenStore

	mailSender MailSender
	auditSink  AuditSink
	logger     *zerolog.Logger

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client backing the login throttle, the request limiters
// and the reset records. A cluster or ring client works as well.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithUserStore(users UserStore) *Builder {
	b.users = users
	return b
}

func (b *Builder) WithTokenStore(tokens TokenStore) *Builder {
	b.tokens = tokens
	return b
}

// WithMailSender sets the outbound mail transport. Without one, messages are
// logged (subject and recipient only) and discarded.
func (b *Builder) WithMailSender(sender MailSender) *Builder {
	b.mailSender = sender
	return b
}

// WithAuditSink sets the audit destination and enables auditing.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	if sink != nil {
		b.config.Audit.Enabled = true
	}
	return b
}

func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = &logger
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	cfg.JWT.SigningMethod = strings.ToLower(cfg.JWT.SigningMethod)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.users == nil {
		return nil, errors.New("user store required")
	}
	if b.tokens == nil {
		return nil, errors.New("token store required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if b.logger != nil {
		logger = *b.logger
	}
	logger = logger.With().Str("component", "mailauth").Logger()

	engine := &Engine{
		config: cfg,
		users:  b.users,
		tokens: b.tokens,
		logger: logger,
		now:    time.Now,
	}

	// -------- PASSWORDS --------
	ph, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}
	engine.passwordHash = ph
	engine.policy = password.Policy{
		MinLength:     cfg.Password.MinLength,
		MaxSimilarity: cfg.Password.MaxSimilarity,
		RejectCommon:  cfg.Password.RejectCommon,
		RejectNumeric: cfg.Password.RejectNumeric,
	}
	// Unknown-email logins verify against this so they cost the same as a
	// wrong password.
	dummy, err := ph.Hash("mailauth-dummy-password")
	if err != nil {
		return nil, err
	}
	engine.dummyHash = dummy

	// -------- TOKENS --------
	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Leeway:        cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}
	engine.jwtManager = jm

	// -------- REDIS --------
	engine.throttle = rate.New(b.redis, rate.Config{
		Threshold: cfg.LoginThrottle.Threshold,
		Window:    cfg.LoginThrottle.Window,
		Prefix:    cfg.LoginThrottle.RedisPrefix,
	})
	engine.resetStore = stores.NewPasswordResetStore(b.redis, cfg.PasswordReset.RedisPrefix)
	engine.resetLimiter = limiters.NewPasswordResetLimiter(b.redis, limiters.Config{
		EnableIdentifierThrottle: cfg.PasswordReset.EnableIdentifierThrottle,
		EnableIPThrottle:         cfg.PasswordReset.EnableIPThrottle,
		Window:                   cfg.PasswordReset.RequestWindow,
		MaxAttempts:              cfg.PasswordReset.MaxRequests,
	})
	engine.resendLimiter = limiters.NewVerificationResendLimiter(b.redis, limiters.Config{
		EnableIdentifierThrottle: cfg.EmailVerification.EnableIdentifierThrottle,
		EnableIPThrottle:         cfg.EmailVerification.EnableIPThrottle,
		Window:                   cfg.EmailVerification.ResendWindow,
		MaxAttempts:              cfg.EmailVerification.MaxResends,
	})
	engine.registrationLimiter = limiters.NewRegistrationLimiter(b.redis, limiters.Config{
		EnableIdentifierThrottle: cfg.Registration.EnableIdentifierThrottle,
		EnableIPThrottle:         cfg.Registration.EnableIPThrottle,
		Window:                   cfg.Registration.Window,
		MaxAttempts:              cfg.Registration.MaxAttempts,
	})

	// -------- SIDE CHANNELS --------
	engine.metrics = NewMetrics(cfg.Metrics)

	engine.mailSender = b.mailSender
	if engine.mailSender == nil {
		engine.mailSender = discardMailSender{logger: logger}
	}
	engine.mail = dispatch.New[MailMessage](dispatch.Config{
		Enabled:    true,
		BufferSize: cfg.Mail.BufferSize,
		DropIfFull: cfg.Mail.DropIfFull,
	}, engine.deliverMail)

	sink := b.auditSink
	if sink == nil {
		sink = NoOpSink{}
	}
	engine.audit = dispatch.New[AuditEvent](dispatch.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, sink.Emit)

	engine.flows = flows.Deps{
		Login:         engine.loginFlowDeps(),
		PasswordReset: engine.passwordResetFlowDeps(),
	}

	b.built = true

	return engine, nil
}
