package authcore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ispcompare/authcore/tokenstore"
)

func TestIssueTokensRevokesPriorChains(t *testing.T) {
	engine, store, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	first, err := engine.IssueTokens(ctx, "u1", false)
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}
	second, err := engine.IssueTokens(ctx, "u1", false)
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}
	if first.RefreshToken == second.RefreshToken {
		t.Fatal("refresh values must be unique per issuance")
	}

	old, err := store.FindByValue(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("find first refresh: %v", err)
	}
	if !old.Revoked {
		t.Fatal("issuing a new pair must revoke the prior chain")
	}

	if got := engine.MetricsSnapshot().Counters[MetricIssueSuccess]; got != 2 {
		t.Fatalf("issue success counter = %d, want 2", got)
	}
}

func TestIssueTokensSkipRevocationKeepsPriorChains(t *testing.T) {
	engine, store, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	first, err := engine.IssueTokens(ctx, "u1", false)
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}
	if _, err := engine.IssueTokens(ctx, "u1", true); err != nil {
		t.Fatalf("second issue: %v", err)
	}

	old, err := store.FindByValue(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("find first refresh: %v", err)
	}
	if old.Revoked {
		t.Fatal("skipRevocation issuance must leave prior chains alone")
	}
}

func TestRotateRefreshToken(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	pair, err := engine.IssueTokens(ctx, "u1", false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	rotated, err := engine.RotateRefreshToken(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatal("rotation must mint a new refresh value")
	}
	if rotated.AccessToken == "" {
		t.Fatal("rotation must mint a new access token")
	}

	subjectID, err := engine.ValidateAccessToken(ctx, rotated.AccessToken)
	if err != nil {
		t.Fatalf("validate rotated access token: %v", err)
	}
	if subjectID != "u1" {
		t.Fatalf("subject = %q, want u1", subjectID)
	}
}

func TestRotateReplayRevokesEverything(t *testing.T) {
	engine, store, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	pair, err := engine.IssueTokens(ctx, "u1", false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rotated, err := engine.RotateRefreshToken(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}

	// Replay of the already-rotated value is a breach.
	if _, err := engine.RotateRefreshToken(ctx, pair.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("replay err = %v, want ErrTokenRevoked", err)
	}

	// The cascade must have burned the legitimate successor too.
	successor, err := store.FindByValue(ctx, rotated.RefreshToken)
	if err != nil {
		t.Fatalf("find successor: %v", err)
	}
	if !successor.Revoked {
		t.Fatal("breach response must revoke the successor token")
	}
	if _, err := engine.RotateRefreshToken(ctx, rotated.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("successor rotate err = %v, want ErrTokenRevoked", err)
	}

	if got := engine.MetricsSnapshot().Counters[MetricReuseDetected]; got == 0 {
		t.Fatal("reuse detection must be counted")
	}
}

func TestRotateUnknownValue(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())

	_, err := engine.RotateRefreshToken(context.Background(), "never-issued")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestRotateExpiredBeatsRevoked(t *testing.T) {
	engine, store, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	err := store.Insert(ctx, &tokenstore.RefreshToken{
		Value:     "stale",
		SubjectID: "u1",
		ExpiresAt: past,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := store.MarkRevoked(ctx, "stale", past); err != nil {
		t.Fatalf("mark revoked: %v", err)
	}

	_, err = engine.RotateRefreshToken(ctx, "stale")
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestRotateSubjectGone(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := tokenstore.NewMemoryStore()

	engine, err := New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithTokenStore(store).
		WithSubjectProvider(&fakeSubjects{missing: map[string]bool{"ghost": true}}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	ctx := context.Background()
	err = store.Insert(ctx, &tokenstore.RefreshToken{
		Value:     "orphan",
		SubjectID: "ghost",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, err := engine.RotateRefreshToken(ctx, "orphan"); !errors.Is(err, ErrSubjectNotFound) {
		t.Fatalf("err = %v, want ErrSubjectNotFound", err)
	}
}

func TestRevokeRefreshTokenIdempotent(t *testing.T) {
	engine, store, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	pair, err := engine.IssueTokens(ctx, "u1", false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := engine.RevokeRefreshToken(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("first revoke: %v", err)
	}
	if err := engine.RevokeRefreshToken(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	if err := engine.RevokeRefreshToken(ctx, "never-issued"); err != nil {
		t.Fatalf("unknown revoke: %v", err)
	}

	row, err := store.FindByValue(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !row.Revoked {
		t.Fatal("token must be revoked")
	}
}

func TestSweepExpiredRefreshTokens(t *testing.T) {
	engine, store, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	for _, row := range []*tokenstore.RefreshToken{
		{Value: "dead-1", SubjectID: "u1", ExpiresAt: time.Now().Add(-time.Hour)},
		{Value: "dead-2", SubjectID: "u2", ExpiresAt: time.Now().Add(-time.Minute)},
		{Value: "live", SubjectID: "u1", ExpiresAt: time.Now().Add(time.Hour)},
	} {
		if err := store.Insert(ctx, row); err != nil {
			t.Fatalf("insert %s: %v", row.Value, err)
		}
	}

	deleted, err := engine.SweepExpiredRefreshTokens(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted = %d, want 2", deleted)
	}
	if _, err := store.FindByValue(ctx, "live"); err != nil {
		t.Fatalf("live row must survive the sweep: %v", err)
	}
	if got := engine.MetricsSnapshot().Counters[MetricSweepDeleted]; got != 2 {
		t.Fatalf("sweep counter = %d, want 2", got)
	}
}

func TestNilEngineNotReady(t *testing.T) {
	var engine *Engine

	if _, err := engine.IssueTokens(context.Background(), "u1", false); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("err = %v, want ErrEngineNotReady", err)
	}
	if _, err := engine.RotateRefreshToken(context.Background(), "x"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("err = %v, want ErrEngineNotReady", err)
	}
}
