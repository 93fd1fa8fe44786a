package flows

import (
	"context"
	"errors"
	"time"

	"github.com/ispcompare/authcore/tokenstore"
)

// RotateFailureKind classifies rotation failures for root-level mapping.
type RotateFailureKind int

const (
	RotateFailureNone RotateFailureKind = iota
	// RotateFailureNotFound: no row matches the presented value.
	RotateFailureNotFound
	// RotateFailureLookup: the store failed to answer the lookup.
	RotateFailureLookup
	// RotateFailureExpired: the row is past its expiry. Checked before the
	// revoked state so an expired token always reads as expired.
	RotateFailureExpired
	// RotateFailureReuse: the row was already revoked. By the time this kind
	// is returned every refresh token of the subject has been revoked.
	RotateFailureReuse
	// RotateFailureReuseRevokeAll: reuse was detected but the breach response
	// itself failed. The caller must surface the infrastructure error, not
	// the reuse verdict.
	RotateFailureReuseRevokeAll
	// RotateFailureSubjectGone: the owning subject no longer exists.
	RotateFailureSubjectGone
	// RotateFailureSubjectLookup: the subject provider failed.
	RotateFailureSubjectLookup
	// RotateFailureRevoke: revoking the presented token failed.
	RotateFailureRevoke
	RotateFailureMintAccess
	RotateFailureMintRefresh
	RotateFailurePersist
)

// RotateResult carries either the rotated pair or failure metadata.
type RotateResult struct {
	Failure          RotateFailureKind
	Err              error
	SubjectID        string
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// RotateDeps captures rotation flow dependencies.
type RotateDeps struct {
	FindByValue         func(ctx context.Context, value string) (*tokenstore.RefreshToken, error)
	RevokeAllForSubject func(ctx context.Context, subjectID string, now time.Time) error
	ResolveSubject      func(ctx context.Context, subjectID string) error
	MarkRevoked         func(ctx context.Context, value string, now time.Time) (bool, error)
	CreateAccess        func(subjectID string) (string, error)
	NewRefreshValue     func() (string, time.Time, error)
	Insert              func(ctx context.Context, token *tokenstore.RefreshToken) error
	Now                 func() time.Time
	NotFound            error
	SubjectNotFound     error
	Warn                func(msg string, args ...any)
}

// RunRotate executes single-use rotation: look the value up, reject expired
// rows, treat a revoked row as reuse and revoke the whole subject, then
// retire the presented value and mint a fresh pair.
func RunRotate(ctx context.Context, oldValue string, deps RotateDeps) RotateResult {
	now := deps.Now()

	row, err := deps.FindByValue(ctx, oldValue)
	if err != nil {
		if deps.NotFound != nil && errors.Is(err, deps.NotFound) {
			return RotateResult{Failure: RotateFailureNotFound, Err: err}
		}
		return RotateResult{Failure: RotateFailureLookup, Err: err}
	}

	if row.ExpiresAt.Before(now) {
		return RotateResult{
			Failure:   RotateFailureExpired,
			SubjectID: row.SubjectID,
		}
	}

	if row.Revoked {
		if err := deps.RevokeAllForSubject(ctx, row.SubjectID, now); err != nil {
			if deps.Warn != nil {
				deps.Warn("refresh reuse breach response failed", "subject_id", row.SubjectID)
			}
			return RotateResult{
				Failure:   RotateFailureReuseRevokeAll,
				Err:       err,
				SubjectID: row.SubjectID,
			}
		}
		return RotateResult{
			Failure:   RotateFailureReuse,
			SubjectID: row.SubjectID,
		}
	}

	if err := deps.ResolveSubject(ctx, row.SubjectID); err != nil {
		if deps.SubjectNotFound != nil && errors.Is(err, deps.SubjectNotFound) {
			return RotateResult{
				Failure:   RotateFailureSubjectGone,
				Err:       err,
				SubjectID: row.SubjectID,
			}
		}
		return RotateResult{
			Failure:   RotateFailureSubjectLookup,
			Err:       err,
			SubjectID: row.SubjectID,
		}
	}

	won, err := deps.MarkRevoked(ctx, oldValue, now)
	if err != nil {
		return RotateResult{
			Failure:   RotateFailureRevoke,
			Err:       err,
			SubjectID: row.SubjectID,
		}
	}
	if !won {
		// A concurrent rotation revoked the value between the lookup and
		// here. Only one caller may rotate a value, so the loser takes the
		// reuse path.
		if err := deps.RevokeAllForSubject(ctx, row.SubjectID, now); err != nil {
			if deps.Warn != nil {
				deps.Warn("refresh reuse breach response failed", "subject_id", row.SubjectID)
			}
			return RotateResult{
				Failure:   RotateFailureReuseRevokeAll,
				Err:       err,
				SubjectID: row.SubjectID,
			}
		}
		return RotateResult{
			Failure:   RotateFailureReuse,
			SubjectID: row.SubjectID,
		}
	}

	access, err := deps.CreateAccess(row.SubjectID)
	if err != nil {
		return RotateResult{
			Failure:   RotateFailureMintAccess,
			Err:       err,
			SubjectID: row.SubjectID,
		}
	}

	refreshValue, refreshExpiry, err := deps.NewRefreshValue()
	if err != nil {
		return RotateResult{
			Failure:   RotateFailureMintRefresh,
			Err:       err,
			SubjectID: row.SubjectID,
		}
	}

	next := &tokenstore.RefreshToken{
		Value:     refreshValue,
		SubjectID: row.SubjectID,
		ExpiresAt: refreshExpiry,
		CreatedAt: now,
	}
	if err := deps.Insert(ctx, next); err != nil {
		return RotateResult{
			Failure:   RotateFailurePersist,
			Err:       err,
			SubjectID: row.SubjectID,
		}
	}

	return RotateResult{
		SubjectID:        row.SubjectID,
		AccessToken:      access,
		RefreshToken:     refreshValue,
		RefreshExpiresAt: refreshExpiry,
	}
}
