package authcore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	internalaudit "github.com/ispcompare/authcore/internal/audit"
	"github.com/ispcompare/authcore/internal/flows"
	"github.com/ispcompare/authcore/internal/limiters"
	"github.com/ispcompare/authcore/internal/rate"
	"github.com/ispcompare/authcore/internal/stores"
	"github.com/ispcompare/authcore/jwt"
	"github.com/ispcompare/authcore/tokenstore"
)

// Engine is the token lifecycle core. Construct it with [Builder.Build]; the
// zero value is not usable. All methods are safe for concurrent use.
type Engine struct {
	config       Config
	jwtManager   *jwt.Manager
	tokens       tokenstore.Store
	subjects     SubjectProvider
	rateLimiter  *rate.Limiter
	loginLimiter *limiters.LoginLimiter
	policies     map[Policy]limiters.Policy
	blacklist    *stores.BlacklistStore
	audit        *internalaudit.Dispatcher
	metrics      *Metrics
	logger       *slog.Logger
	now          func() time.Time
	ready        bool
}

func (e *Engine) checkReady() error {
	if e == nil || !e.ready {
		return ErrEngineNotReady
	}
	return nil
}

// mapRedisErr lifts the internal Redis sentinels onto the public
// [ErrRedisUnavailable] so callers can match infrastructure failures without
// importing internal packages.
func mapRedisErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, rate.ErrRedisUnavailable) || errors.Is(err, stores.ErrBlacklistRedisUnavailable) {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return err
}

// IssueTokens mints an access/refresh pair for subjectID. Unless
// skipRevocation is set, every refresh token the subject already holds is
// revoked first so one subject has at most one live refresh chain.
func (e *Engine) IssueTokens(ctx context.Context, subjectID string, skipRevocation bool) (TokenPair, error) {
	if err := e.checkReady(); err != nil {
		return TokenPair{}, err
	}

	res := flows.RunIssue(ctx, subjectID, skipRevocation, flows.IssueDeps{
		RevokeAllForSubject: e.tokens.MarkAllRevokedForSubject,
		CreateAccess:        e.jwtManager.CreateAccess,
		NewRefreshValue:     e.jwtManager.NewRefreshValue,
		Insert:              e.tokens.Insert,
		Now:                 e.now,
	})
	if res.Failure != flows.IssueFailureNone {
		err := e.mapIssueFailure(res)
		e.metrics.Inc(MetricIssueFailure)
		e.emitAudit(ctx, AuditTokenIssue, subjectID, "", false, err, nil)
		return TokenPair{}, err
	}

	e.metrics.Inc(MetricIssueSuccess)
	e.emitAudit(ctx, AuditTokenIssue, subjectID, "", true, nil, nil)
	return TokenPair{
		AccessToken:      res.AccessToken,
		RefreshToken:     res.RefreshToken,
		RefreshExpiresAt: res.RefreshExpiresAt,
	}, nil
}

func (e *Engine) mapIssueFailure(res flows.IssueResult) error {
	switch res.Failure {
	case flows.IssueFailureRevokeAll, flows.IssueFailurePersist:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Err)
	default:
		return fmt.Errorf("issue tokens: %w", res.Err)
	}
}

// RotateRefreshToken exchanges oldValue for a fresh pair. Each refresh value
// rotates exactly once; presenting an already-rotated value is treated as a
// breach and revokes every refresh token of the subject before
// [ErrTokenRevoked] is returned. Expiry is checked before revocation state,
// so an expired value always fails with [ErrTokenExpired].
func (e *Engine) RotateRefreshToken(ctx context.Context, oldValue string) (TokenPair, error) {
	if err := e.checkReady(); err != nil {
		return TokenPair{}, err
	}

	res := flows.RunRotate(ctx, oldValue, flows.RotateDeps{
		FindByValue:         e.tokens.FindByValue,
		RevokeAllForSubject: e.tokens.MarkAllRevokedForSubject,
		ResolveSubject: func(ctx context.Context, subjectID string) error {
			_, err := e.subjects.GetSubjectByID(ctx, subjectID)
			return err
		},
		MarkRevoked:     e.tokens.MarkRevoked,
		CreateAccess:    e.jwtManager.CreateAccess,
		NewRefreshValue: e.jwtManager.NewRefreshValue,
		Insert:          e.tokens.Insert,
		Now:             e.now,
		NotFound:        tokenstore.ErrNotFound,
		SubjectNotFound: ErrSubjectNotFound,
		Warn:            e.logger.Warn,
	})
	if res.Failure != flows.RotateFailureNone {
		err := e.mapRotateFailure(res)
		e.recordRotateFailure(ctx, res, err)
		return TokenPair{}, err
	}

	e.metrics.Inc(MetricRotateSuccess)
	e.emitAudit(ctx, AuditTokenRotate, res.SubjectID, "", true, nil, nil)
	return TokenPair{
		AccessToken:      res.AccessToken,
		RefreshToken:     res.RefreshToken,
		RefreshExpiresAt: res.RefreshExpiresAt,
	}, nil
}

func (e *Engine) mapRotateFailure(res flows.RotateResult) error {
	switch res.Failure {
	case flows.RotateFailureNotFound:
		return ErrInvalidToken
	case flows.RotateFailureExpired:
		return ErrTokenExpired
	case flows.RotateFailureReuse:
		return ErrTokenRevoked
	case flows.RotateFailureSubjectGone:
		return ErrSubjectNotFound
	case flows.RotateFailureSubjectLookup:
		return fmt.Errorf("resolve subject: %w", res.Err)
	case flows.RotateFailureLookup,
		flows.RotateFailureReuseRevokeAll,
		flows.RotateFailureRevoke,
		flows.RotateFailurePersist:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Err)
	default:
		return fmt.Errorf("rotate refresh token: %w", res.Err)
	}
}

func (e *Engine) recordRotateFailure(ctx context.Context, res flows.RotateResult, err error) {
	switch res.Failure {
	case flows.RotateFailureReuse:
		e.metrics.Inc(MetricReuseDetected)
		e.logger.Warn("refresh token reuse detected, all subject tokens revoked",
			"subject_id", res.SubjectID)
		e.emitAudit(ctx, AuditRefreshReuseDetected, res.SubjectID, "", false, err, nil)
	case flows.RotateFailureExpired:
		e.metrics.Inc(MetricRotateExpired)
		e.emitAudit(ctx, AuditTokenRotate, res.SubjectID, "", false, err, nil)
	default:
		e.metrics.Inc(MetricRotateFailure)
		e.emitAudit(ctx, AuditTokenRotate, res.SubjectID, "", false, err, nil)
	}
}

// RevokeRefreshToken revokes value. Unknown or already-revoked values are a
// no-op, so the operation is idempotent.
func (e *Engine) RevokeRefreshToken(ctx context.Context, value string) error {
	if err := e.checkReady(); err != nil {
		return err
	}

	if _, err := e.tokens.MarkRevoked(ctx, value, e.now()); err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		e.emitAudit(ctx, AuditTokenRevoke, "", "", false, wrapped, nil)
		return wrapped
	}

	e.metrics.Inc(MetricRevoke)
	e.emitAudit(ctx, AuditTokenRevoke, "", "", true, nil, nil)
	return nil
}

// BlacklistAccessToken denylists an access token for the remainder of its
// lifetime. The TTL comes from the token's own exp claim; tokens without one
// get the configured default TTL, and undecodable tokens are ignored. The
// operation is idempotent.
func (e *Engine) BlacklistAccessToken(ctx context.Context, token string) error {
	if err := e.checkReady(); err != nil {
		return err
	}

	claims, err := e.jwtManager.DecodeUnverified(token)
	if err != nil {
		// A token that does not even decode can never validate; denylisting
		// it would only grow the keyspace.
		return nil
	}

	ttl := e.config.Blacklist.DefaultTTL
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Time.Sub(e.now())
		if ttl <= 0 {
			// Already expired, nothing to deny.
			return nil
		}
	}

	if err := e.blacklist.Add(ctx, token, ttl); err != nil {
		wrapped := mapRedisErr(err)
		e.emitAudit(ctx, AuditTokenBlacklist, "", "", false, wrapped, nil)
		return wrapped
	}

	e.metrics.Inc(MetricBlacklistAdd)
	e.emitAudit(ctx, AuditTokenBlacklist, "", "", true, nil, nil)
	return nil
}

// IsAccessTokenBlacklisted reports whether token is currently denylisted.
func (e *Engine) IsAccessTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	if err := e.checkReady(); err != nil {
		return false, err
	}
	denied, err := e.blacklist.Contains(ctx, token)
	if err != nil {
		return false, mapRedisErr(err)
	}
	return denied, nil
}

// ValidateAccessToken verifies signature and expiry, extracts the subject,
// and rejects denylisted tokens. It returns the subject ID on success.
func (e *Engine) ValidateAccessToken(ctx context.Context, token string) (string, error) {
	if err := e.checkReady(); err != nil {
		return "", err
	}

	claims, err := e.jwtManager.ParseAccess(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	subjectID, err := e.jwtManager.SubjectID(claims)
	if err != nil {
		return "", ErrSubjectMissing
	}

	denied, err := e.blacklist.Contains(ctx, token)
	if err != nil {
		return "", mapRedisErr(err)
	}
	if denied {
		e.metrics.Inc(MetricBlacklistHit)
		return "", ErrTokenBlacklisted
	}

	return subjectID, nil
}

// CheckAndConsumeRateLimit charges one attempt for identity under the named
// policy and reports the decision. A denied attempt consumes no budget.
// Infrastructure failures return an error so guarded operations fail closed.
func (e *Engine) CheckAndConsumeRateLimit(ctx context.Context, policy Policy, identity string) (Decision, error) {
	if err := e.checkReady(); err != nil {
		return Decision{}, err
	}

	binding, ok := e.policies[policy]
	if !ok {
		return Decision{}, fmt.Errorf("%w: %q", ErrUnknownRateLimitPolicy, policy)
	}

	allowed, remaining, err := binding.Consume(ctx, e.rateLimiter, identity)
	if err != nil {
		return Decision{}, mapRedisErr(err)
	}
	if !allowed {
		e.metrics.Inc(MetricRateLimitHit)
		e.emitAudit(ctx, AuditRateLimitHit, "", "", false, ErrRateLimited, map[string]string{
			"policy":   string(policy),
			"identity": identity,
		})
	}

	return Decision{Allowed: allowed, Remaining: remaining}, nil
}

// CheckLogin reports whether a login attempt for the username+IP pair is
// within the failure budget. It consumes nothing; call [Engine.RecordLoginFailure]
// after a failed credential check and [Engine.ResetLoginFailures] after a
// successful one.
func (e *Engine) CheckLogin(ctx context.Context, username, ip string) (Decision, error) {
	if err := e.checkReady(); err != nil {
		return Decision{}, err
	}

	allowed, remaining, err := e.loginLimiter.Check(ctx, username, ip)
	if err != nil {
		return Decision{}, mapRedisErr(err)
	}
	if !allowed {
		e.metrics.Inc(MetricRateLimitHit)
		e.emitAudit(ctx, AuditRateLimitHit, "", ip, false, ErrRateLimited, map[string]string{
			"policy":   "login",
			"username": username,
		})
	}

	return Decision{Allowed: allowed, Remaining: remaining}, nil
}

// RecordLoginFailure charges one failed login against the username+IP pair.
func (e *Engine) RecordLoginFailure(ctx context.Context, username, ip string) error {
	if err := e.checkReady(); err != nil {
		return err
	}

	if err := e.loginLimiter.RecordFailure(ctx, username, ip); err != nil {
		return mapRedisErr(err)
	}

	e.metrics.Inc(MetricLoginFailureRecorded)
	e.emitAudit(ctx, AuditLoginFailureRecorded, "", ip, true, nil, map[string]string{
		"username": username,
	})
	return nil
}

// ResetLoginFailures clears the pair's failure history after a successful
// login.
func (e *Engine) ResetLoginFailures(ctx context.Context, username, ip string) error {
	if err := e.checkReady(); err != nil {
		return err
	}
	return mapRedisErr(e.loginLimiter.Reset(ctx, username, ip))
}

// SweepExpiredRefreshTokens deletes refresh rows past their expiry and
// reports how many were removed. Grace cleanup only; rotation correctness
// never depends on the sweep running.
func (e *Engine) SweepExpiredRefreshTokens(ctx context.Context) (int64, error) {
	if err := e.checkReady(); err != nil {
		return 0, err
	}

	deleted, err := e.tokens.DeleteExpired(ctx, e.now())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if deleted > 0 {
		e.metrics.Add(MetricSweepDeleted, uint64(deleted))
		e.logger.Info("expired refresh tokens swept", "deleted", deleted)
	}
	e.emitAudit(ctx, AuditRefreshSweep, "", "", true, nil, map[string]string{
		"deleted": fmt.Sprintf("%d", deleted),
	})
	return deleted, nil
}

// MetricsSnapshot returns a point-in-time copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were dropped because the
// dispatch buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Close flushes and stops the audit dispatcher. The engine must not be used
// after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}
