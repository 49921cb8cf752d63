package flows

import (
	"context"
	"errors"
	"testing"
	"time"
)

var (
	errNotReady     = errors.New("not ready")
	errInvalidCreds = errors.New("invalid credentials")
	errInactive     = errors.New("inactive")
	errUnverified   = errors.New("unverified")
	errNotFound     = errors.New("not found")
)

type limitedErr struct{ retry time.Duration }

func (e *limitedErr) Error() string { return "rate limited" }

type loginHarness struct {
	users     map[string]LoginUser
	count     int64
	threshold int64
	issued    int
	touched   []string
	rehashed  map[string]string
	metrics   map[int]int
	events    []string
	verifies  int
}

func newLoginHarness() *loginHarness {
	return &loginHarness{
		users:     map[string]LoginUser{},
		threshold: 3,
		rehashed:  map[string]string{},
		metrics:   map[int]int{},
	}
}

func (h *loginHarness) deps() LoginDeps {
	return LoginDeps{
		UpgradeOnLogin: true,
		DummyHash:      "dummy",
		RecordAttempt: func(context.Context, string) (int64, time.Duration, error) {
			h.count++
			return h.count, time.Hour, nil
		},
		Blocked: func(n int64) bool { return n >= h.threshold },
		GetUserByEmail: func(_ context.Context, email string) (LoginUser, error) {
			u, ok := h.users[email]
			if !ok {
				return LoginUser{}, errNotFound
			}
			return u, nil
		},
		IsUserNotFound: func(err error) bool { return errors.Is(err, errNotFound) },
		UpdatePasswordHash: func(_ context.Context, id, hash string) error {
			h.rehashed[id] = hash
			return nil
		},
		TouchLastLogin: func(_ context.Context, id string, _ time.Time, _ *bool) error {
			h.touched = append(h.touched, id)
			return nil
		},
		VerifyPassword: func(pw, hash string) (bool, error) {
			h.verifies++
			return "hash:"+pw == hash, nil
		},
		PasswordNeedsUpgrade: func(hash string) (bool, error) { return hash == "hash:legacy-pass", nil },
		HashPassword:         func(pw string) (string, error) { return "new:" + pw, nil },
		IssueSession: func(_ context.Context, u LoginUser) (string, string, error) {
			h.issued++
			return "access-" + u.UserID, "refresh-" + u.UserID, nil
		},
		MetricInc: func(id int) { h.metrics[id]++ },
		EmitAudit: func(_ context.Context, event string, _ bool, _ string, _ error, _ func() map[string]string) {
			h.events = append(h.events, event)
		},
		Metrics: LoginMetrics{LoginSuccess: 1, LoginFailure: 2, LoginForbidden: 3, LoginRateLimited: 4},
		Events:  LoginEvents{LoginSuccess: "login_success", LoginFailure: "login_failure", LoginRateLimited: "login_rate_limited"},
		Errors: LoginErrors{
			EngineNotReady:     errNotReady,
			InvalidCredentials: errInvalidCreds,
			AccountInactive:    errInactive,
			AccountUnverified:  errUnverified,
			RateLimited:        func(d time.Duration) error { return &limitedErr{retry: d} },
		},
	}
}

func TestRunLoginSuccess(t *testing.T) {
	h := newLoginHarness()
	h.users["a@example.com"] = LoginUser{UserID: "u1", Email: "a@example.com", PasswordHash: "hash:pw", IsActive: true, IsVerified: true}

	res, err := RunLogin(context.Background(), LoginInput{Email: "a@example.com", Password: "pw"}, h.deps())
	if err != nil {
		t.Fatalf("RunLogin: %v", err)
	}
	if res.AccessToken != "access-u1" || res.RefreshToken != "refresh-u1" || res.UserID != "u1" {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(h.touched) != 1 || h.metrics[1] != 1 {
		t.Fatalf("touched=%v metrics=%v", h.touched, h.metrics)
	}
}

func TestRunLoginUnknownEmailSpendsOneVerify(t *testing.T) {
	h := newLoginHarness()

	_, err := RunLogin(context.Background(), LoginInput{Email: "ghost@example.com", Password: "pw"}, h.deps())
	if !errors.Is(err, errInvalidCreds) {
		t.Fatalf("err=%v want invalid credentials", err)
	}
	if h.verifies != 1 {
		t.Fatalf("verifies=%d want 1", h.verifies)
	}
}

func TestRunLoginWrongPassword(t *testing.T) {
	h := newLoginHarness()
	h.users["a@example.com"] = LoginUser{UserID: "u1", PasswordHash: "hash:pw", IsActive: true, IsVerified: true}

	_, err := RunLogin(context.Background(), LoginInput{Email: "a@example.com", Password: "nope"}, h.deps())
	if !errors.Is(err, errInvalidCreds) {
		t.Fatalf("err=%v", err)
	}
	if h.issued != 0 {
		t.Fatal("session issued for wrong password")
	}
}

func TestRunLoginInactiveBeforeUnverified(t *testing.T) {
	h := newLoginHarness()
	h.users["a@example.com"] = LoginUser{UserID: "u1", PasswordHash: "hash:pw"}

	_, err := RunLogin(context.Background(), LoginInput{Email: "a@example.com", Password: "pw"}, h.deps())
	if !errors.Is(err, errInactive) {
		t.Fatalf("err=%v want inactive", err)
	}

	h.users["a@example.com"] = LoginUser{UserID: "u1", PasswordHash: "hash:pw", IsActive: true}
	_, err = RunLogin(context.Background(), LoginInput{Email: "a@example.com", Password: "pw"}, h.deps())
	if !errors.Is(err, errUnverified) {
		t.Fatalf("err=%v want unverified", err)
	}
	if h.metrics[3] != 2 {
		t.Fatalf("forbidden metric=%d want 2", h.metrics[3])
	}
}

func TestRunLoginThrottleCountsEveryAttempt(t *testing.T) {
	h := newLoginHarness()
	h.users["a@example.com"] = LoginUser{UserID: "u1", PasswordHash: "hash:pw", IsActive: true, IsVerified: true}
	deps := h.deps()

	// Successful logins still consume the budget.
	for i := 0; i < 2; i++ {
		if _, err := RunLogin(context.Background(), LoginInput{Email: "a@example.com", Password: "pw"}, deps); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}

	_, err := RunLogin(context.Background(), LoginInput{Email: "a@example.com", Password: "pw"}, deps)
	var limited *limitedErr
	if !errors.As(err, &limited) {
		t.Fatalf("err=%v want rate limited", err)
	}
	if limited.retry != time.Hour {
		t.Fatalf("retry=%v", limited.retry)
	}
	if h.verifies != 2 {
		t.Fatalf("blocked attempt must not verify the password, verifies=%d", h.verifies)
	}
	if h.metrics[4] != 1 {
		t.Fatalf("rate limited metric=%d", h.metrics[4])
	}
}

func TestRunLoginUpgradesWeakHash(t *testing.T) {
	h := newLoginHarness()
	h.users["a@example.com"] = LoginUser{UserID: "u1", PasswordHash: "hash:legacy-pass", IsActive: true, IsVerified: true}

	if _, err := RunLogin(context.Background(), LoginInput{Email: "a@example.com", Password: "legacy-pass"}, h.deps()); err != nil {
		t.Fatalf("RunLogin: %v", err)
	}
	if h.rehashed["u1"] != "new:legacy-pass" {
		t.Fatalf("rehashed=%v", h.rehashed)
	}
}

func TestRunLoginNotReady(t *testing.T) {
	_, err := RunLogin(context.Background(), LoginInput{}, LoginDeps{Errors: LoginErrors{EngineNotReady: errNotReady}})
	if !errors.Is(err, errNotReady) {
		t.Fatalf("err=%v", err)
	}
}
