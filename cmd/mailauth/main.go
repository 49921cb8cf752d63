// Command mailauth serves the account API.
//
// Configuration comes from defaults, an optional YAML file (--config), a .env
// file, MAILAUTH_* environment variables and flags, in increasing priority.
//
//	mailauth --config mailauth.yaml
//	mailauth --create-superuser admin@example.com --superuser-password '...'
//	mailauth --flush-expired
//	mailauth --unlock-login user@example.com
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/MrEthical07/mailAuth"
	"github.com/MrEthical07/mailAuth/internal/config"
	"github.com/MrEthical07/mailAuth/internal/httpapi"
	"github.com/MrEthical07/mailAuth/internal/logging"
	"github.com/MrEthical07/mailAuth/metrics/export/prometheus"
	"github.com/MrEthical07/mailAuth/notify"
	"github.com/MrEthical07/mailAuth/store"
)

type commands struct {
	createSuperuser   string
	superuserName     string
	superuserPassword string
	flushExpired      bool
	unlockLogin       string
	migrateOnly       bool
}

func main() {
	fs := pflag.NewFlagSet("mailauth", pflag.ExitOnError)
	config.RegisterFlags(fs)

	var cmds commands
	fs.StringVar(&cmds.createSuperuser, "create-superuser", "", "create a verified staff superuser with this email and exit")
	fs.StringVar(&cmds.superuserName, "superuser-name", "Admin", "name for --create-superuser")
	fs.StringVar(&cmds.superuserPassword, "superuser-password", "", "password for --create-superuser (or MAILAUTH_SUPERUSER_PASSWORD)")
	fs.BoolVar(&cmds.flushExpired, "flush-expired", false, "delete expired outstanding and blacklisted tokens and exit")
	fs.StringVar(&cmds.unlockLogin, "unlock-login", "", "clear the failed-login counter for this email and exit")
	fs.BoolVar(&cmds.migrateOnly, "migrate", false, "apply database migrations and exit")
	_ = fs.Parse(os.Args[1:])

	if err := run(fs, cmds); err != nil {
		fmt.Fprintf(os.Stderr, "mailauth: %v\n", err)
		os.Exit(1)
	}
}

func run(fs *pflag.FlagSet, cmds commands) error {
	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}

	log := logging.New(cfg.Log, "mailauth")
	zerolog.SetGlobalLevel(log.GetLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, store.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		LogLevel:     cfg.Database.LogLevel,
	}, log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if cfg.Database.AutoMigrate || cmds.migrateOnly {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
	}
	if cmds.migrateOnly {
		return nil
	}

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.Redis.Addr},
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = rdb.Close() }()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
	}

	sender, err := notify.New(notify.Config{
		Provider:  cfg.Mail.Provider,
		APIKey:    cfg.Mail.APIKey,
		FromName:  cfg.Mail.FromName,
		BaseURL:   cfg.Mail.BaseURL,
		LogBodies: cfg.Mail.LogBodies,
	}, log)
	if err != nil {
		return err
	}

	builder := mailAuth.New().
		WithConfig(cfg.EngineConfig()).
		WithRedis(rdb).
		WithUserStore(db.Users()).
		WithTokenStore(db.Tokens()).
		WithMailSender(sender).
		WithLogger(log)
	if cfg.Audit.Enabled {
		builder = builder.WithAuditSink(mailAuth.NewZerologSink(log))
	}
	engine, err := builder.Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	report := engine.SecurityReport()
	log.Info().
		Str("signing", report.SigningAlgorithm).
		Dur("access_ttl", report.AccessTTL).
		Dur("refresh_ttl", report.RefreshTTL).
		Bool("login_throttle", report.LoginThrottleActive).
		Bool("reset_throttle", report.ResetThrottleActive).
		Bool("audit", report.AuditEnabled).
		Msg("security posture")
	for _, w := range report.Warnings {
		log.Warn().Msg(w)
	}

	switch {
	case cmds.createSuperuser != "":
		return createSuperuser(ctx, engine, cmds, log)
	case cmds.flushExpired:
		n, err := engine.FlushExpiredTokens(ctx)
		if err != nil {
			return err
		}
		log.Info().Int64("deleted", n).Msg("expired tokens flushed")
		return nil
	case cmds.unlockLogin != "":
		return unlockLogin(ctx, engine, cmds.unlockLogin, log)
	}

	return serve(ctx, cfg, engine, db, rdb, log)
}

func createSuperuser(ctx context.Context, engine *mailAuth.Engine, cmds commands, log zerolog.Logger) error {
	pw := cmds.superuserPassword
	if pw == "" {
		pw = os.Getenv("MAILAUTH_SUPERUSER_PASSWORD")
	}
	if pw == "" {
		return errors.New("--superuser-password or MAILAUTH_SUPERUSER_PASSWORD is required")
	}

	user, err := engine.CreateSuperuser(ctx, cmds.createSuperuser, cmds.superuserName, pw)
	if err != nil {
		var verr *mailAuth.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("superuser rejected: %s", verr.Error())
		}
		return err
	}

	log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("superuser created")
	return nil
}

func unlockLogin(ctx context.Context, engine *mailAuth.Engine, email string, log zerolog.Logger) error {
	count, err := engine.LoginAttempts(ctx, email)
	if err != nil {
		return err
	}
	if err := engine.UnlockLogin(ctx, email); err != nil {
		return err
	}
	log.Info().Str("email", email).Int64("attempts_cleared", count).Msg("login throttle cleared")
	return nil
}

func serve(ctx context.Context, cfg *config.App, engine *mailAuth.Engine, db *store.DB, rdb redis.UniversalClient, log zerolog.Logger) error {
	gin.SetMode(cfg.Server.Mode)

	opts := httpapi.Options{
		Logger:         log.With().Str("component", "http").Logger(),
		TrustedProxies: cfg.Server.TrustedProxies,
		Health: map[string]httpapi.HealthFunc{
			"database": db.Ping,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
	}
	if cfg.Metrics.Enabled {
		opts.Metrics = prometheus.NewPrometheusExporter(engine).Handler()
		opts.MetricsPath = cfg.Metrics.Path
	}

	router, err := httpapi.NewRouter(engine, opts)
	if err != nil {
		return err
	}

	srv := httpapi.NewServer(httpapi.ServerConfig{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, router, log)
	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout+time.Second)
	defer cancel()
	return srv.Stop(stopCtx)
}
