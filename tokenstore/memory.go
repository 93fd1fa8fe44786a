package tokenstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process [Store]. It is safe for concurrent use and
// returns copies, so callers can never mutate stored rows in place.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[string]*RefreshToken // keyed by opaque value
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]*RefreshToken)}
}

func (s *MemoryStore) Insert(_ context.Context, token *RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := *token
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	s.rows[row.Value] = &row
	return nil
}

func (s *MemoryStore) FindByValue(_ context.Context, value string) (*RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[value]
	if !ok {
		return nil, ErrNotFound
	}
	out := *row
	return &out, nil
}

func (s *MemoryStore) FindBySubject(_ context.Context, subjectID string) ([]*RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*RefreshToken
	for _, row := range s.rows {
		if row.SubjectID == subjectID {
			c := *row
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *MemoryStore) MarkRevoked(_ context.Context, value string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[value]
	if !ok || row.Revoked {
		return false, nil
	}
	row.Revoked = true
	at := now
	row.RevokedAt = &at
	return true, nil
}

func (s *MemoryStore) MarkAllRevokedForSubject(_ context.Context, subjectID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.rows {
		if row.SubjectID == subjectID && !row.Revoked {
			row.Revoked = true
			at := now
			row.RevokedAt = &at
		}
	}
	return nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for value, row := range s.rows {
		if row.ExpiresAt.Before(now) {
			delete(s.rows, value)
			n++
		}
	}
	return n, nil
}
