package authcore

import (
	"context"
	"errors"
	"time"
)

// Audit event types emitted by the engine.
const (
	AuditTokenIssue           = "token_issue"
	AuditTokenRotate          = "token_rotate"
	AuditRefreshReuseDetected = "refresh_reuse_detected"
	AuditTokenRevoke          = "token_revoke"
	AuditTokenBlacklist       = "token_blacklist"
	AuditRateLimitHit         = "rate_limit_hit"
	AuditLoginFailureRecorded = "login_failure_recorded"
	AuditRefreshSweep         = "refresh_sweep"
)

func (e *Engine) emitAudit(ctx context.Context, eventType, subjectID, ip string, success bool, err error, metadata map[string]string) {
	if e == nil || e.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		SubjectID: subjectID,
		IP:        ip,
		Success:   success,
		Metadata:  metadata,
	}
	if err != nil {
		event.Error = auditErrorCode(err)
	}
	e.audit.Emit(ctx, event)
}

// auditErrorCode maps engine errors to stable short codes. Audit records never
// carry raw error text so infrastructure details stay out of the trail.
func auditErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrTokenRevoked):
		return "token_revoked"
	case errors.Is(err, ErrTokenBlacklisted):
		return "token_blacklisted"
	case errors.Is(err, ErrSubjectMissing):
		return "subject_missing"
	case errors.Is(err, ErrSubjectNotFound):
		return "subject_not_found"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrUnknownRateLimitPolicy):
		return "unknown_policy"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal"
	}
}
