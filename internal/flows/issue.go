package flows

import (
	"context"
	"time"

	"github.com/ispcompare/authcore/tokenstore"
)

// IssueFailureKind classifies issuance failures for root-level mapping.
type IssueFailureKind int

const (
	IssueFailureNone IssueFailureKind = iota
	IssueFailureRevokeAll
	IssueFailureMintAccess
	IssueFailureMintRefresh
	IssueFailurePersist
)

// IssueResult carries either the issued pair or failure metadata.
type IssueResult struct {
	Failure          IssueFailureKind
	Err              error
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// IssueDeps captures issuance flow dependencies.
type IssueDeps struct {
	RevokeAllForSubject func(ctx context.Context, subjectID string, now time.Time) error
	CreateAccess        func(subjectID string) (string, error)
	NewRefreshValue     func() (string, time.Time, error)
	Insert              func(ctx context.Context, token *tokenstore.RefreshToken) error
	Now                 func() time.Time
}

// RunIssue mints a token pair for subjectID and persists the refresh row.
// Unless skipRevocation is set, every prior refresh token of the subject is
// revoked first so at most one chain is live per subject.
func RunIssue(ctx context.Context, subjectID string, skipRevocation bool, deps IssueDeps) IssueResult {
	now := deps.Now()

	if !skipRevocation {
		if err := deps.RevokeAllForSubject(ctx, subjectID, now); err != nil {
			return IssueResult{Failure: IssueFailureRevokeAll, Err: err}
		}
	}

	access, err := deps.CreateAccess(subjectID)
	if err != nil {
		return IssueResult{Failure: IssueFailureMintAccess, Err: err}
	}

	refreshValue, refreshExpiry, err := deps.NewRefreshValue()
	if err != nil {
		return IssueResult{Failure: IssueFailureMintRefresh, Err: err}
	}

	row := &tokenstore.RefreshToken{
		Value:     refreshValue,
		SubjectID: subjectID,
		ExpiresAt: refreshExpiry,
		CreatedAt: now,
	}
	if err := deps.Insert(ctx, row); err != nil {
		return IssueResult{Failure: IssueFailurePersist, Err: err}
	}

	return IssueResult{
		AccessToken:      access,
		RefreshToken:     refreshValue,
		RefreshExpiresAt: refreshExpiry,
	}
}
