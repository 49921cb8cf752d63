package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

const testSecret = "config-test-secret-config-test-secret"

func parsedFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return fs
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MAILAUTH_AUTH_JWT_SECRET", testSecret)
	t.Setenv("MAILAUTH_DATABASE_DSN", "postgres://localhost/mailauth")
	t.Setenv("MAILAUTH_AUTH_ACCESS_TTL", "5m")
	t.Setenv("MAILAUTH_AUTH_LOGIN_THRESHOLD", "5")
	t.Setenv("MAILAUTH_MAIL_PROVIDER", "sendgrid")

	app, err := Load(parsedFlags(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if app.Auth.AccessTTL != 5*time.Minute {
		t.Fatalf("access ttl=%s", app.Auth.AccessTTL)
	}
	if app.Auth.LoginThreshold != 5 || app.Mail.Provider != "sendgrid" {
		t.Fatalf("auth=%+v mail=%+v", app.Auth, app.Mail)
	}
	if app.Server.Addr != ":8000" || app.Auth.RefreshTTL != 7*24*time.Hour {
		t.Fatalf("defaults not applied: server=%+v auth=%+v", app.Server, app.Auth)
	}

	engine := app.EngineConfig()
	if string(engine.JWT.PrivateKey) != testSecret || engine.LoginThrottle.Threshold != 5 {
		t.Fatalf("engine config=%+v", engine.LoginThrottle)
	}
}

func TestFlagsOverrideFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yml")
	yaml := `
server:
  addr: ":9000"
database:
  driver: sqlite
  dsn: file-dsn.db
auth:
  jwt_secret: ` + testSecret + `
log:
  level: debug
`
	if err := os.WriteFile(file, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("MAILAUTH_LOG_LEVEL", "warn")

	app, err := Load(parsedFlags(t, "--config", file, "--addr", ":9100"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if app.Server.Addr != ":9100" {
		t.Fatalf("addr=%q want flag value", app.Server.Addr)
	}
	if app.Database.Driver != "sqlite" || app.Database.DSN != "file-dsn.db" {
		t.Fatalf("database=%+v", app.Database)
	}
	if app.Log.Level != "warn" {
		t.Fatalf("log level=%q want env value", app.Log.Level)
	}
}

func TestEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	content := strings.Join([]string{
		"MAILAUTH_AUTH_JWT_SECRET=" + testSecret,
		"MAILAUTH_DATABASE_DSN=from-env-file",
		"MAILAUTH_DATABASE_DRIVER=sqlite",
	}, "\n")
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	for _, k := range []string{"MAILAUTH_AUTH_JWT_SECRET", "MAILAUTH_DATABASE_DSN", "MAILAUTH_DATABASE_DRIVER"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	app, err := Load(parsedFlags(t, "--env-file", envFile))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if app.Database.DSN != "from-env-file" {
		t.Fatalf("dsn=%q", app.Database.DSN)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "missing dsn",
			env:  map[string]string{"MAILAUTH_AUTH_JWT_SECRET": testSecret},
			want: "database.dsn",
		},
		{
			name: "short secret",
			env:  map[string]string{"MAILAUTH_DATABASE_DSN": "x", "MAILAUTH_AUTH_JWT_SECRET": "short"},
			want: "PrivateKey",
		},
		{
			name: "unknown provider",
			env: map[string]string{
				"MAILAUTH_DATABASE_DSN":    "x",
				"MAILAUTH_AUTH_JWT_SECRET": testSecret,
				"MAILAUTH_MAIL_PROVIDER":   "pigeon",
			},
			want: "mail.provider",
		},
		{
			name: "bad driver",
			env: map[string]string{
				"MAILAUTH_DATABASE_DSN":    "x",
				"MAILAUTH_AUTH_JWT_SECRET": testSecret,
				"MAILAUTH_DATABASE_DRIVER": "oracle",
			},
			want: "database.driver",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load(nil)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err=%v want mention of %q", err, tc.want)
			}
		})
	}
}
