package limiters

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ispcompare/authcore/internal/rate"
)

func newLoginLimiter(t *testing.T) (*LoginLimiter, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewLoginLimiter(rate.New(rdb), LoginConfig{
		MaxFailures: 3,
		Window:      5 * time.Minute,
	}), mr
}

func TestLoginFailureOnlyBudget(t *testing.T) {
	ctx := context.Background()
	l, _ := newLoginLimiter(t)

	// Checks alone never consume budget.
	for i := 0; i < 10; i++ {
		allowed, remaining, err := l.Check(ctx, "alice", "10.0.0.1")
		if err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
		if !allowed || remaining != 3 {
			t.Fatalf("check %d: allowed=%v remaining=%d, want true/3", i, allowed, remaining)
		}
	}

	for i := 0; i < 3; i++ {
		if err := l.RecordFailure(ctx, "alice", "10.0.0.1"); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	allowed, remaining, err := l.Check(ctx, "alice", "10.0.0.1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if allowed || remaining != 0 {
		t.Fatalf("after failures: allowed=%v remaining=%d, want false/0", allowed, remaining)
	}

	// A different IP for the same username has its own budget.
	allowed, _, err = l.Check(ctx, "alice", "10.0.0.2")
	if err != nil {
		t.Fatalf("check other ip: %v", err)
	}
	if !allowed {
		t.Fatal("other ip should not share the exhausted budget")
	}
}

func TestLoginResetClearsFailures(t *testing.T) {
	ctx := context.Background()
	l, _ := newLoginLimiter(t)

	for i := 0; i < 3; i++ {
		if err := l.RecordFailure(ctx, "bob", "10.0.0.1"); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if err := l.Reset(ctx, "bob", "10.0.0.1"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	allowed, remaining, err := l.Check(ctx, "bob", "10.0.0.1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !allowed || remaining != 3 {
		t.Fatalf("after reset: allowed=%v remaining=%d, want true/3", allowed, remaining)
	}
}

func TestLoginKeyShape(t *testing.T) {
	ctx := context.Background()
	l, mr := newLoginLimiter(t)

	if err := l.RecordFailure(ctx, "carol", "192.0.2.7"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if !mr.Exists("failed-login:carol:192.0.2.7") {
		t.Fatal("expected failed-login:carol:192.0.2.7 key")
	}
}

func TestPolicyKeyShape(t *testing.T) {
	p := Policy{Prefix: "password-change", MaxAttempts: 2, Window: 24 * time.Hour}
	if got := p.Key("u1"); got != "password-change:u1" {
		t.Fatalf("key = %q", got)
	}
}
