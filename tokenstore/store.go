package tokenstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by FindByValue when no row matches. Callers must
// map it to the same caller-visible failure as a forged value — an unknown
// token is never distinguishable from one that never existed.
var ErrNotFound = errors.New("refresh token not found")

// RefreshToken is one persisted refresh-token row.
type RefreshToken struct {
	ID        string
	Value     string
	SubjectID string
	ExpiresAt time.Time
	Revoked   bool
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Active reports whether the token can still be rotated at the given time.
// A token expiring exactly at now is still active.
func (t *RefreshToken) Active(now time.Time) bool {
	return !t.Revoked && !t.ExpiresAt.Before(now)
}

// Store is the repository contract for refresh-token rows. Implementations
// must make MarkRevoked and MarkAllRevokedForSubject idempotent: rows already
// revoked are left untouched, and revoked_at is set exactly once.
type Store interface {
	// Insert persists a new row.
	Insert(ctx context.Context, token *RefreshToken) error

	// FindByValue returns the row for the opaque value, or ErrNotFound.
	FindByValue(ctx context.Context, value string) (*RefreshToken, error)

	// FindBySubject returns all rows for a subject, revoked ones included.
	FindBySubject(ctx context.Context, subjectID string) ([]*RefreshToken, error)

	// MarkRevoked revokes the row with the given value at time now and
	// reports whether this call performed the revocation. Unknown or
	// already-revoked values are a no-op returning false, which lets
	// concurrent rotations of the same value elect a single winner.
	MarkRevoked(ctx context.Context, value string, now time.Time) (bool, error)

	// MarkAllRevokedForSubject revokes every non-revoked row of a subject.
	MarkAllRevokedForSubject(ctx context.Context, subjectID string, now time.Time) error

	// DeleteExpired removes rows whose expiry has passed and reports how
	// many were deleted. Grace cleanup only; correctness never depends on it.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
