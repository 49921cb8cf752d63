package mailAuth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const testSecret = "test-secret-test-secret-test-secret!"

type memUserStore struct {
	mu       sync.Mutex
	users    map[string]UserRecord
	profiles map[string]ProfileRecord
	byEmail  map[string]string

	updatePasswordCalls int
	failPasswordUpdate  error
}

func newMemUserStore() *memUserStore {
	return &memUserStore{
		users:    map[string]UserRecord{},
		profiles: map[string]ProfileRecord{},
		byEmail:  map[string]string{},
	}
}

func (m *memUserStore) CreateUser(_ context.Context, in CreateUserInput) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[in.Email]; ok {
		return UserRecord{}, ErrDuplicateEmail
	}
	now := time.Now()
	u := UserRecord{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: in.PasswordHash,
		IsActive:     in.IsActive,
		IsVerified:   in.IsVerified,
		RememberMe:   in.RememberMe,
		IsStaff:      in.IsStaff,
		IsSuperuser:  in.IsSuperuser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.users[u.ID] = u
	m.byEmail[u.Email] = u.ID
	m.profiles[u.ID] = ProfileRecord{UserID: u.ID, Email: u.Email, Name: u.Name}
	return u, nil
}

func (m *memUserStore) GetUserByEmail(_ context.Context, email string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byEmail[email]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return m.users[id], nil
}

func (m *memUserStore) GetUserByID(_ context.Context, id string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return u, nil
}

func (m *memUserStore) UpdatePasswordHash(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failPasswordUpdate != nil {
		return m.failPasswordUpdate
	}
	u, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	m.updatePasswordCalls++
	u.PasswordHash = hash
	m.users[id] = u
	return nil
}

func (m *memUserStore) MarkVerified(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.IsVerified = true
	u.IsActive = true
	m.users[id] = u
	return nil
}

func (m *memUserStore) TouchLastLogin(_ context.Context, id string, at time.Time, rememberMe *bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.LastLogin = &at
	if rememberMe != nil {
		u.RememberMe = *rememberMe
	}
	m.users[id] = u
	return nil
}

func (m *memUserStore) GetProfile(_ context.Context, id string) (ProfileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[id]
	if !ok {
		return ProfileRecord{}, ErrUserNotFound
	}
	return p, nil
}

func (m *memUserStore) UpdateProfile(_ context.Context, id string, up ProfileUpdate) (ProfileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[id]
	if !ok {
		return ProfileRecord{}, ErrUserNotFound
	}
	if up.Name != nil {
		p.Name = *up.Name
	}
	if up.Bio != nil {
		p.Bio = *up.Bio
	}
	if up.Gender != nil {
		p.Gender = *up.Gender
	}
	if up.Avatar != nil {
		p.Avatar = *up.Avatar
	}
	m.profiles[id] = p
	return p, nil
}

// setState flips account flags directly, bypassing the engine.
func (m *memUserStore) setState(t *testing.T, email string, active, verified bool) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byEmail[email]
	if !ok {
		t.Fatalf("no user %q", email)
	}
	u := m.users[id]
	u.IsActive = active
	u.IsVerified = verified
	m.users[id] = u
}

type memTokenStore struct {
	mu          sync.Mutex
	outstanding map[string]OutstandingToken
	blacklisted map[string]time.Time
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{
		outstanding: map[string]OutstandingToken{},
		blacklisted: map[string]time.Time{},
	}
}

func (m *memTokenStore) SaveOutstanding(_ context.Context, tok OutstandingToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outstanding[tok.JTI] = tok
	return nil
}

func (m *memTokenStore) GetOutstanding(_ context.Context, jti string) (OutstandingToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.outstanding[jti]
	if !ok {
		return OutstandingToken{}, ErrTokenNotFound
	}
	return tok, nil
}

func (m *memTokenStore) Blacklist(_ context.Context, jti string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.outstanding[jti]; !ok {
		return ErrTokenNotFound
	}
	if _, ok := m.blacklisted[jti]; ok {
		return ErrTokenAlreadyRevoked
	}
	m.blacklisted[jti] = at
	return nil
}

func (m *memTokenStore) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blacklisted[jti]
	return ok, nil
}

func (m *memTokenStore) FlushExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for jti, tok := range m.outstanding {
		if tok.ExpiresAt.Before(now) {
			delete(m.outstanding, jti)
			delete(m.blacklisted, jti)
			n++
		}
	}
	return n, nil
}

// mailbox collects delivered messages.
type mailbox struct {
	ch chan MailMessage
}

func newMailbox() *mailbox {
	return &mailbox{ch: make(chan MailMessage, 64)}
}

func (m *mailbox) Send(_ context.Context, msg MailMessage) error {
	m.ch <- msg
	return nil
}

func (m *mailbox) next(t *testing.T) MailMessage {
	t.Helper()
	select {
	case msg := <-m.ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no mail delivered")
		return MailMessage{}
	}
}

// linkSegments returns the path segments that follow marker in the single
// link of a mail body.
func linkSegments(t *testing.T, body, marker string) []string {
	t.Helper()
	i := strings.Index(body, marker)
	if i < 0 {
		t.Fatalf("marker %q not in body %q", marker, body)
	}
	rest := strings.TrimSuffix(body[i+len(marker):], "/")
	return strings.Split(rest, "/")
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.PrivateKey = []byte(testSecret)
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Links.BaseURL = "https://auth.example.com"
	cfg.Mail.DropIfFull = false
	cfg.Metrics.Enabled = true
	return cfg
}

type testEnv struct {
	engine *Engine
	users  *memUserStore
	tokens *memTokenStore
	mail   *mailbox
	redis  *miniredis.Miniredis
}

func newTestEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	mr, rdb := newTestRedis(t)
	env := &testEnv{
		users:  newMemUserStore(),
		tokens: newMemTokenStore(),
		mail:   newMailbox(),
		redis:  mr,
	}

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserStore(env.users).
		WithTokenStore(env.tokens).
		WithMailSender(env.mail).
		WithLogger(zerolog.Nop()).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)
	env.engine = engine
	return env
}

const testPassword = "Corr3ct-Horse-Battery"

// register creates an account and drains its verification mail.
func (env *testEnv) register(t *testing.T, email string) *RegisterResult {
	t.Helper()
	res, err := env.engine.Register(context.Background(), RegisterRequest{
		Email:           email,
		Name:            "Test User",
		Password:        testPassword,
		ConfirmPassword: testPassword,
	})
	if err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	env.mail.next(t)
	return res
}

// registerVerified creates an active, verified account.
func (env *testEnv) registerVerified(t *testing.T, email string) *RegisterResult {
	t.Helper()
	res := env.register(t, email)
	env.users.setState(t, normalizeEmail(email), true, true)
	return res
}
