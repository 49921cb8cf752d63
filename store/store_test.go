package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/MrEthical07/mailAuth"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "mailauth.db")
	db, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: dsn}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func createUser(t *testing.T, s *UserStore, email string) mailAuth.UserRecord {
	t.Helper()
	u, err := s.CreateUser(context.Background(), mailAuth.CreateUserInput{
		Email:        email,
		Name:         "Alice",
		PasswordHash: "$argon2id$stub",
		RememberMe:   true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "oracle", DSN: "x"}, zerolog.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestCreateUserAndLookups(t *testing.T) {
	s := openTestDB(t).Users()
	ctx := context.Background()

	u := createUser(t, s, "alice@example.com")
	if u.ID == "" || u.IsActive || u.IsVerified || !u.RememberMe {
		t.Fatalf("created=%+v", u)
	}

	byEmail, err := s.GetUserByEmail(ctx, "alice@example.com")
	if err != nil || byEmail.ID != u.ID {
		t.Fatalf("GetUserByEmail=%+v err=%v", byEmail, err)
	}
	byID, err := s.GetUserByID(ctx, u.ID)
	if err != nil || byID.Email != u.Email {
		t.Fatalf("GetUserByID=%+v err=%v", byID, err)
	}

	if _, err := s.GetUserByEmail(ctx, "bob@example.com"); !errors.Is(err, mailAuth.ErrUserNotFound) {
		t.Fatalf("missing email err=%v", err)
	}
	if _, err := s.GetUserByID(ctx, "nope"); !errors.Is(err, mailAuth.ErrUserNotFound) {
		t.Fatalf("missing id err=%v", err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := openTestDB(t).Users()
	createUser(t, s, "alice@example.com")

	_, err := s.CreateUser(context.Background(), mailAuth.CreateUserInput{
		Email: "alice@example.com", Name: "Other", PasswordHash: "x",
	})
	if !errors.Is(err, mailAuth.ErrDuplicateEmail) {
		t.Fatalf("err=%v want ErrDuplicateEmail", err)
	}
}

func TestCreateUserConcurrentDuplicates(t *testing.T) {
	s := openTestDB(t).Users()

	const n = 6
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		dups int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateUser(context.Background(), mailAuth.CreateUserInput{
				Email: "race@example.com", Name: "Race", PasswordHash: "x",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, mailAuth.ErrDuplicateEmail):
				dups++
			}
		}()
	}
	wg.Wait()

	if ok != 1 || dups != n-1 {
		t.Fatalf("ok=%d dups=%d", ok, dups)
	}
}

func TestUserUpdates(t *testing.T) {
	s := openTestDB(t).Users()
	ctx := context.Background()
	u := createUser(t, s, "alice@example.com")

	if err := s.UpdatePasswordHash(ctx, u.ID, "$argon2id$new"); err != nil {
		t.Fatalf("UpdatePasswordHash: %v", err)
	}
	if err := s.MarkVerified(ctx, u.ID); err != nil {
		t.Fatalf("MarkVerified: %v", err)
	}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	off := false
	if err := s.TouchLastLogin(ctx, u.ID, at, &off); err != nil {
		t.Fatalf("TouchLastLogin: %v", err)
	}

	got, err := s.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if got.PasswordHash != "$argon2id$new" || !got.IsVerified || !got.IsActive || got.RememberMe {
		t.Fatalf("user=%+v", got)
	}
	if got.LastLogin == nil || !got.LastLogin.Equal(at) {
		t.Fatalf("last_login=%v want %v", got.LastLogin, at)
	}

	if err := s.UpdatePasswordHash(ctx, "nope", "x"); !errors.Is(err, mailAuth.ErrUserNotFound) {
		t.Fatalf("missing user err=%v", err)
	}
}

func TestProfileReadAndPartialUpdate(t *testing.T) {
	s := openTestDB(t).Users()
	ctx := context.Background()
	u := createUser(t, s, "alice@example.com")

	p, err := s.GetProfile(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p.Email != "alice@example.com" || p.Name != "Alice" || p.Gender != mailAuth.GenderUnset {
		t.Fatalf("profile=%+v", p)
	}

	name := "Alice Liddell"
	bio := "down the rabbit hole"
	gender := mailAuth.GenderFemale
	p, err = s.UpdateProfile(ctx, u.ID, mailAuth.ProfileUpdate{Name: &name, Bio: &bio, Gender: &gender})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if p.Name != name || p.Bio != bio || p.Gender != gender || p.Avatar != "" {
		t.Fatalf("profile=%+v", p)
	}

	avatar := "avatars/alice.png"
	p, err = s.UpdateProfile(ctx, u.ID, mailAuth.ProfileUpdate{Avatar: &avatar})
	if err != nil {
		t.Fatalf("UpdateProfile avatar: %v", err)
	}
	if p.Avatar != avatar || p.Bio != bio {
		t.Fatalf("profile=%+v", p)
	}

	if _, err := s.UpdateProfile(ctx, "nope", mailAuth.ProfileUpdate{Bio: &bio}); !errors.Is(err, mailAuth.ErrUserNotFound) {
		t.Fatalf("missing user err=%v", err)
	}
}

func saveToken(t *testing.T, s *TokenStore, jti, userID string, expires time.Time) {
	t.Helper()
	err := s.SaveOutstanding(context.Background(), mailAuth.OutstandingToken{
		JTI: jti, UserID: userID, Token: "token-" + jti, ExpiresAt: expires,
	})
	if err != nil {
		t.Fatalf("SaveOutstanding(%s): %v", jti, err)
	}
}

func TestTokenBlacklist(t *testing.T) {
	db := openTestDB(t)
	tokens := db.Tokens()
	ctx := context.Background()
	u := createUser(t, db.Users(), "alice@example.com")

	saveToken(t, tokens, "j1", u.ID, time.Now().Add(time.Hour))

	got, err := tokens.GetOutstanding(ctx, "j1")
	if err != nil || got.UserID != u.ID || got.Token != "token-j1" {
		t.Fatalf("GetOutstanding=%+v err=%v", got, err)
	}
	if _, err := tokens.GetOutstanding(ctx, "missing"); !errors.Is(err, mailAuth.ErrTokenNotFound) {
		t.Fatalf("missing err=%v", err)
	}

	revoked, err := tokens.IsBlacklisted(ctx, "j1")
	if err != nil || revoked {
		t.Fatalf("fresh token revoked=%v err=%v", revoked, err)
	}

	if err := tokens.Blacklist(ctx, "j1", time.Now()); err != nil {
		t.Fatalf("Blacklist: %v", err)
	}
	if revoked, _ := tokens.IsBlacklisted(ctx, "j1"); !revoked {
		t.Fatal("token not blacklisted")
	}
	if err := tokens.Blacklist(ctx, "j1", time.Now()); !errors.Is(err, mailAuth.ErrTokenAlreadyRevoked) {
		t.Fatalf("second blacklist err=%v", err)
	}
	if err := tokens.Blacklist(ctx, "missing", time.Now()); !errors.Is(err, mailAuth.ErrTokenNotFound) {
		t.Fatalf("unknown jti err=%v", err)
	}
}

func TestFlushExpired(t *testing.T) {
	db := openTestDB(t)
	tokens := db.Tokens()
	ctx := context.Background()
	u := createUser(t, db.Users(), "alice@example.com")

	now := time.Now()
	saveToken(t, tokens, "old1", u.ID, now.Add(-2*time.Hour))
	saveToken(t, tokens, "old2", u.ID, now.Add(-time.Minute))
	saveToken(t, tokens, "live", u.ID, now.Add(time.Hour))
	if err := tokens.Blacklist(ctx, "old1", now.Add(-3*time.Hour)); err != nil {
		t.Fatalf("Blacklist: %v", err)
	}

	n, err := tokens.FlushExpired(ctx, now)
	if err != nil {
		t.Fatalf("FlushExpired: %v", err)
	}
	if n != 2 {
		t.Fatalf("flushed=%d want 2", n)
	}
	if _, err := tokens.GetOutstanding(ctx, "live"); err != nil {
		t.Fatalf("live token removed: %v", err)
	}
	if revoked, _ := tokens.IsBlacklisted(ctx, "old1"); revoked {
		t.Fatal("blacklist entry survived flush")
	}
}
