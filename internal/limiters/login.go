package limiters

import (
	"context"
	"time"

	"github.com/ispcompare/authcore/internal/rate"
)

// LoginConfig tunes the failed-login tracker.
type LoginConfig struct {
	MaxFailures int
	Window      time.Duration
}

// LoginLimiter tracks failed logins per username+IP pair without charging
// successful attempts: callers Check before verifying credentials,
// RecordFailure only when verification fails, and Reset on success.
type LoginLimiter struct {
	limiter *rate.Limiter
	config  LoginConfig
}

// NewLoginLimiter creates a login limiter over the shared rate limiter.
func NewLoginLimiter(limiter *rate.Limiter, cfg LoginConfig) *LoginLimiter {
	return &LoginLimiter{
		limiter: limiter,
		config:  cfg,
	}
}

// Check reports whether a login attempt for the pair is within budget.
// It records nothing.
func (l *LoginLimiter) Check(ctx context.Context, username, ip string) (bool, int, error) {
	return l.limiter.Peek(ctx, loginKey(username, ip), l.config.MaxFailures, l.config.Window)
}

// RecordFailure charges one failed attempt against the pair.
func (l *LoginLimiter) RecordFailure(ctx context.Context, username, ip string) error {
	return l.limiter.RecordFailure(ctx, loginKey(username, ip), l.config.Window)
}

// Reset clears the pair's failure history. Called after successful login.
func (l *LoginLimiter) Reset(ctx context.Context, username, ip string) error {
	return l.limiter.Reset(ctx, loginKey(username, ip))
}

func loginKey(username, ip string) string {
	return "failed-login:" + username + ":" + ip
}
