package rate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestThrottle(t *testing.T) (*miniredis.Miniredis, *Throttle) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, New(client, Config{Threshold: 3, Window: time.Hour})
}

func TestBlockedOnThirdAttempt(t *testing.T) {
	_, th := newTestThrottle(t)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		attempt, err := th.RecordAttempt(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("attempt %d: unexpected error %v", i, err)
		}
		if attempt.Count != int64(i) || th.Blocked(attempt.Count) {
			t.Fatalf("attempt %d: count %d blocked early", i, attempt.Count)
		}
	}

	attempt, err := th.RecordAttempt(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("third attempt: %v", err)
	}
	if !th.Blocked(attempt.Count) {
		t.Fatalf("expected block on third attempt, count %d", attempt.Count)
	}
	if attempt.RetryAfter != time.Hour {
		t.Fatalf("expected retry after 1h, got %v", attempt.RetryAfter)
	}
}

func TestIdentifierIsCaseNormalized(t *testing.T) {
	_, th := newTestThrottle(t)
	ctx := context.Background()

	if _, err := th.RecordAttempt(ctx, "Alice@Example.com"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := th.RecordAttempt(ctx, " alice@example.com "); err != nil {
		t.Fatalf("record: %v", err)
	}

	count, err := th.Attempts(ctx, "ALICE@EXAMPLE.COM")
	if err != nil {
		t.Fatalf("attempts: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected shared counter of 2, got %d", count)
	}
}

func TestWindowTTLSetOnlyOnFirstAttempt(t *testing.T) {
	mr, th := newTestThrottle(t)
	ctx := context.Background()

	if _, err := th.RecordAttempt(ctx, "bob@example.com"); err != nil {
		t.Fatalf("record: %v", err)
	}
	mr.FastForward(40 * time.Minute)

	attempt, err := th.RecordAttempt(ctx, "bob@example.com")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if attempt.RetryAfter != 20*time.Minute {
		t.Fatalf("expected remaining TTL of 20m to be preserved, got %v", attempt.RetryAfter)
	}

	mr.FastForward(21 * time.Minute)
	count, err := th.Attempts(ctx, "bob@example.com")
	if err != nil {
		t.Fatalf("attempts: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected counter to expire with the window, got %d", count)
	}
}

func TestConcurrentAttemptsAreCountedExactly(t *testing.T) {
	_, th := newTestThrottle(t)
	ctx := context.Background()

	const workers = 25
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, _ = th.RecordAttempt(ctx, "race@example.com")
		}()
	}
	wg.Wait()

	count, err := th.Attempts(ctx, "race@example.com")
	if err != nil {
		t.Fatalf("attempts: %v", err)
	}
	if count != workers {
		t.Fatalf("expected %d, got %d", workers, count)
	}
}

func TestClearDropsCounter(t *testing.T) {
	_, th := newTestThrottle(t)
	ctx := context.Background()

	_, _ = th.RecordAttempt(ctx, "carol@example.com")
	if err := th.Clear(ctx, "carol@example.com"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if count, _ := th.Attempts(ctx, "carol@example.com"); count != 0 {
		t.Fatalf("expected 0 after clear, got %d", count)
	}
}

func TestRedisFailureIsWrapped(t *testing.T) {
	mr, th := newTestThrottle(t)
	mr.Close()

	_, err := th.RecordAttempt(context.Background(), "dave@example.com")
	if !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
