package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/MrEthical07/mailAuth"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config selects the database and tunes its connection pool.
type Config struct {
	Driver string
	DSN    string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// LogLevel is one of silent, error, warn or info. Empty means warn.
	LogLevel           string
	SlowQueryThreshold time.Duration
}

func (c *Config) applyDefaults() {
	if c.Driver == "" {
		c.Driver = DriverPostgres
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = 30 * time.Minute
	}
	if c.SlowQueryThreshold <= 0 {
		c.SlowQueryThreshold = 200 * time.Millisecond
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
}

// DB is an open database handle. It hands out the [mailAuth.UserStore] and
// [mailAuth.TokenStore] implementations that share it.
type DB struct {
	gorm   *gorm.DB
	driver string
	log    zerolog.Logger

	mu     sync.Mutex
	closed bool
}

// Open connects to the database described by cfg and verifies the
// connection. It does not run migrations; call [DB.Migrate].
func Open(ctx context.Context, cfg Config, log zerolog.Logger) (*DB, error) {
	cfg.applyDefaults()

	var dialector gorm.Dialector
	switch strings.ToLower(cfg.Driver) {
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	case DriverSQLite, "sqlite3":
		cfg.Driver = DriverSQLite
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	log = log.With().Str("component", "store").Logger()
	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(log, cfg.SlowQueryThreshold, parseLogLevel(cfg.LogLevel)),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", mailAuth.ErrStoreUnavailable, cfg.Driver, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mailAuth.ErrStoreUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%w: ping: %v", mailAuth.ErrStoreUnavailable, err)
	}

	if cfg.Driver == DriverSQLite {
		// sqlite allows one writer; a single connection also keeps
		// PRAGMA foreign_keys in effect for every statement.
		sqlDB.SetMaxOpenConns(1)
		if err := gdb.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("%w: %v", mailAuth.ErrStoreUnavailable, err)
		}
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	log.Info().Str("driver", cfg.Driver).Msg("database connection established")
	return &DB{gorm: gdb, driver: cfg.Driver, log: log}, nil
}

// Users returns the account store.
func (d *DB) Users() *UserStore { return &UserStore{db: d.gorm} }

// Tokens returns the refresh-token store.
func (d *DB) Tokens() *TokenStore { return &TokenStore{db: d.gorm} }

// Ping checks the connection. Used by health checks.
func (d *DB) Ping(ctx context.Context) error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", mailAuth.ErrStoreUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", mailAuth.ErrStoreUnavailable, err)
	}
	return nil
}

// Close releases the pool. Safe to call more than once.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	d.closed = true
	return sqlDB.Close()
}

// unavailable wraps a backend failure. Missing rows and duplicates are
// mapped by the callers since their meaning depends on the table.
func unavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", mailAuth.ErrStoreUnavailable, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
