package authcore

import "errors"

var (
	// ErrInvalidToken covers malformed or unverifiable access tokens and
	// refresh values with no matching row. An unknown refresh value is never
	// distinguishable from a forged one.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when a refresh token is past its expiry,
	// regardless of revocation state.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenRevoked signals refresh-token reuse. By the time a caller sees
	// it, every refresh token of the affected subject has been revoked.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrTokenBlacklisted is returned by ValidateAccessToken for tokens
	// invalidated before their natural expiry.
	ErrTokenBlacklisted = errors.New("token blacklisted")
	// ErrSubjectMissing is returned when a verified token has no subject claim.
	ErrSubjectMissing = errors.New("token subject missing")
	// ErrSubjectNotFound is returned when a refresh token's owning subject
	// no longer exists. SubjectProvider implementations return it directly.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrRateLimited is the sentinel callers map rate-limit denials to.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnknownRateLimitPolicy is returned for policy names the engine does
	// not know.
	ErrUnknownRateLimitPolicy = errors.New("unknown rate limit policy")
	// ErrRedisUnavailable wraps Redis infrastructure failures from the rate
	// limiters and the denylist. Guarded operations fail closed on it.
	ErrRedisUnavailable = errors.New("redis unavailable")
	// ErrStoreUnavailable wraps refresh-token store infrastructure failures.
	ErrStoreUnavailable = errors.New("token store unavailable")
	// ErrEngineNotReady is returned when methods are called on an engine
	// that was not produced by Builder.Build.
	ErrEngineNotReady = errors.New("engine not initialized")
)
