package authcore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ispcompare/authcore/tokenstore"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeSubjects struct {
	missing map[string]bool
}

func (f *fakeSubjects) GetSubjectByID(_ context.Context, subjectID string) (Subject, error) {
	if f.missing[subjectID] {
		return Subject{}, ErrSubjectNotFound
	}
	return Subject{ID: subjectID, Identifier: subjectID + "@example.com"}, nil
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return mr, rdb
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte(testSecret)
	return cfg
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *tokenstore.MemoryStore, *miniredis.Miniredis) {
	t.Helper()

	mr, rdb := newTestRedis(t)
	store := tokenstore.NewMemoryStore()

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithTokenStore(store).
		WithSubjectProvider(&fakeSubjects{}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, store, mr
}
