package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/MrEthical07/mailAuth"
	"github.com/MrEthical07/mailAuth/internal/logging"
)

const envPrefix = "MAILAUTH"

// App is the full binary configuration.
type App struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      logging.Config `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Mail     MailConfig     `mapstructure:"mail"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Audit    AuditConfig    `mapstructure:"audit"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	TrustedProxies  []string      `mapstructure:"trusted_proxies"`
	Mode            string        `mapstructure:"mode"` // gin mode: debug, release or test
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	LogLevel     string `mapstructure:"log_level"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MailConfig struct {
	Provider    string        `mapstructure:"provider"` // log, sendgrid or resend
	APIKey      string        `mapstructure:"api_key"`
	From        string        `mapstructure:"from"`
	FromName    string        `mapstructure:"from_name"`
	BaseURL     string        `mapstructure:"base_url"`
	LogBodies   bool          `mapstructure:"log_bodies"`
	BufferSize  int           `mapstructure:"buffer_size"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	Issuer          string        `mapstructure:"issuer"`
	AccessTTL       time.Duration `mapstructure:"access_ttl"`
	RefreshTTL      time.Duration `mapstructure:"refresh_ttl"`
	VerificationTTL time.Duration `mapstructure:"verification_ttl"`
	ResetTTL        time.Duration `mapstructure:"reset_ttl"`
	LinkBaseURL     string        `mapstructure:"link_base_url"`

	LoginThreshold int           `mapstructure:"login_threshold"`
	LoginWindow    time.Duration `mapstructure:"login_window"`

	Argon2Memory      uint32 `mapstructure:"argon2_memory"`
	Argon2Time        uint32 `mapstructure:"argon2_time"`
	Argon2Parallelism uint8  `mapstructure:"argon2_parallelism"`
	PasswordMinLength int    `mapstructure:"password_min_length"`
}

type MetricsConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	LatencyHistograms bool   `mapstructure:"latency_histograms"`
	Path              string `mapstructure:"path"`
}

type AuditConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func setDefaults(v *viper.Viper) {
	engine := mailAuth.DefaultConfig()

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("server.mode", "release")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.timestamp", true)
	v.SetDefault("log.caller", false)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("mail.provider", "log")
	v.SetDefault("mail.api_key", "")
	v.SetDefault("mail.from", engine.Mail.From)
	v.SetDefault("mail.from_name", "")
	v.SetDefault("mail.base_url", "")
	v.SetDefault("mail.log_bodies", false)
	v.SetDefault("mail.buffer_size", engine.Mail.BufferSize)
	v.SetDefault("mail.send_timeout", engine.Mail.SendTimeout)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.access_ttl", engine.JWT.AccessTTL)
	v.SetDefault("auth.refresh_ttl", engine.JWT.RefreshTTL)
	v.SetDefault("auth.verification_ttl", engine.EmailVerification.VerificationTTL)
	v.SetDefault("auth.reset_ttl", engine.PasswordReset.ResetTTL)
	v.SetDefault("auth.link_base_url", "")
	v.SetDefault("auth.login_threshold", engine.LoginThrottle.Threshold)
	v.SetDefault("auth.login_window", engine.LoginThrottle.Window)
	v.SetDefault("auth.argon2_memory", engine.Password.Memory)
	v.SetDefault("auth.argon2_time", engine.Password.Time)
	v.SetDefault("auth.argon2_parallelism", engine.Password.Parallelism)
	v.SetDefault("auth.password_min_length", engine.Password.MinLength)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.latency_histograms", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("audit.enabled", true)
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML config file")
	fs.String("env-file", "", "path to a .env file (default ./.env when present)")
	fs.String("addr", "", "HTTP listen address")
	fs.String("log-level", "", "log level (trace, debug, info, warn, error)")
	fs.String("db-driver", "", "database driver (postgres or sqlite)")
	fs.String("db-dsn", "", "database DSN")
	fs.String("redis-addr", "", "Redis address")
}

// flag name -> viper key
var flagKeys = map[string]string{
	"addr":       "server.addr",
	"log-level":  "log.level",
	"db-driver":  "database.driver",
	"db-dsn":     "database.dsn",
	"redis-addr": "redis.addr",
}

// Load resolves the configuration. fs must already be parsed and carry the
// flags from [RegisterFlags]; a nil fs means defaults, files and env only.
func Load(fs *pflag.FlagSet) (*App, error) {
	v := viper.New()
	setDefaults(v)

	var configFile, envFile string
	if fs != nil {
		configFile, _ = fs.GetString("config")
		envFile, _ = fs.GetString("env-file")
	}

	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			flag := fs.Lookup(name)
			if flag == nil || !flag.Changed {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var app App
	if err := v.Unmarshal(&app); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	app.Log.ApplyDefaults()

	if err := app.Validate(); err != nil {
		return nil, err
	}
	return &app, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Validate checks the settings the engine does not cover.
func (a *App) Validate() error {
	if err := a.Log.Validate(); err != nil {
		return err
	}
	switch strings.ToLower(a.Database.Driver) {
	case "postgres", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite (got: %s)", a.Database.Driver)
	}
	if a.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	if a.Redis.Addr == "" {
		return errors.New("redis.addr is required")
	}
	switch strings.ToLower(a.Mail.Provider) {
	case "log", "sendgrid", "resend":
	default:
		return fmt.Errorf("mail.provider must be log, sendgrid or resend (got: %s)", a.Mail.Provider)
	}
	cfg := a.EngineConfig()
	return cfg.Validate()
}

// EngineConfig maps the auth, mail, metrics and audit sections onto
// [mailAuth.Config], starting from the defaults.
func (a *App) EngineConfig() mailAuth.Config {
	cfg := mailAuth.DefaultConfig()

	cfg.JWT.PrivateKey = []byte(a.Auth.JWTSecret)
	cfg.JWT.Issuer = a.Auth.Issuer
	cfg.JWT.AccessTTL = a.Auth.AccessTTL
	cfg.JWT.RefreshTTL = a.Auth.RefreshTTL
	cfg.EmailVerification.VerificationTTL = a.Auth.VerificationTTL
	cfg.PasswordReset.ResetTTL = a.Auth.ResetTTL
	cfg.Links.BaseURL = a.Auth.LinkBaseURL

	cfg.LoginThrottle.Threshold = a.Auth.LoginThreshold
	cfg.LoginThrottle.Window = a.Auth.LoginWindow

	cfg.Password.Memory = a.Auth.Argon2Memory
	cfg.Password.Time = a.Auth.Argon2Time
	cfg.Password.Parallelism = a.Auth.Argon2Parallelism
	cfg.Password.MinLength = a.Auth.PasswordMinLength

	cfg.Mail.From = a.Mail.From
	cfg.Mail.BufferSize = a.Mail.BufferSize
	cfg.Mail.SendTimeout = a.Mail.SendTimeout

	cfg.Metrics.Enabled = a.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = a.Metrics.LatencyHistograms
	cfg.Audit.Enabled = a.Audit.Enabled
	return cfg
}
