package authcore

import (
	"context"
	"time"
)

// TokenPair is returned by IssueTokens and RotateRefreshToken: a signed
// access token, the opaque refresh value, and the refresh expiry.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Subject is the minimal account representation the engine needs: tokens
// bind to an ID, nothing more.
type Subject struct {
	ID         string
	Identifier string
}

// SubjectProvider resolves token owners. Implementations return
// [ErrSubjectNotFound] when the subject does not exist; any other error is
// treated as an infrastructure failure.
type SubjectProvider interface {
	GetSubjectByID(ctx context.Context, subjectID string) (Subject, error)
}

// Policy names a rate-limit binding exposed through
// [Engine.CheckAndConsumeRateLimit]. Login is deliberately absent: failed
// logins are tracked through the failure-only CheckLogin / RecordLoginFailure
// pair instead of consuming budget up front.
type Policy string

const (
	// PolicyPasswordChange guards password changes per subject.
	PolicyPasswordChange Policy = "password-change"
	// PolicyUsernameChange guards username changes per subject.
	PolicyUsernameChange Policy = "username-change"
	// PolicyRefreshIP guards token rotation per client IP.
	PolicyRefreshIP Policy = "refresh"
)

// Decision is the outcome of a rate-limit check: whether the attempt was
// admitted and how much budget is left in the window.
type Decision struct {
	Allowed   bool
	Remaining int
}
