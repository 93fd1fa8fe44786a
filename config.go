package authcore

import (
	"errors"
	"time"
)

// Config holds every tunable of the engine. Construct it with
// [DefaultConfig] and override fields, or load it with [ConfigFromEnv].
type Config struct {
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Blacklist BlacklistConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures the signed-token codec. Secret and algorithm are
// deployment configuration; the engine never generates keys.
type JWTConfig struct {
	SigningMethod string // "hs256" (default) or "hs512"
	Secret        []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig carries the budget and window of every named policy.
type RateLimitConfig struct {
	LoginMaxFailures     int
	LoginWindow          time.Duration
	PasswordChangeMax    int
	PasswordChangeWindow time.Duration
	UsernameChangeMax    int
	UsernameChangeWindow time.Duration
	RefreshMax           int
	RefreshWindow        time.Duration
}

/*
====================================
BLACKLIST CONFIG
====================================
*/

// BlacklistConfig configures the access-token denylist. DefaultTTL is the
// safety-net entry lifetime used when a token carries no exp claim.
type BlacklistConfig struct {
	RedisPrefix string
	DefaultTTL  time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls async audit dispatching.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the budgets and lifetimes the original deployment
// shipped with. The JWT secret is intentionally empty and must be set.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			SigningMethod: "hs256",
			AccessTTL:     30 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			LoginMaxFailures:     5,
			LoginWindow:          5 * time.Minute,
			PasswordChangeMax:    2,
			PasswordChangeWindow: 24 * time.Hour,
			UsernameChangeMax:    10,
			UsernameChangeWindow: time.Hour,
			RefreshMax:           10,
			RefreshWindow:        time.Hour,
		},
		Blacklist: BlacklistConfig{
			RedisPrefix: "blacklisted_token",
			DefaultTTL:  1800 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func validateConfig(cfg Config) error {
	if len(cfg.JWT.Secret) == 0 {
		return errors.New("config: JWT secret required")
	}
	if cfg.JWT.AccessTTL <= 0 || cfg.JWT.RefreshTTL <= 0 {
		return errors.New("config: token TTLs must be positive")
	}
	if cfg.Blacklist.DefaultTTL <= 0 {
		return errors.New("config: blacklist default TTL must be positive")
	}
	if cfg.RateLimit.LoginMaxFailures <= 0 ||
		cfg.RateLimit.PasswordChangeMax <= 0 ||
		cfg.RateLimit.UsernameChangeMax <= 0 ||
		cfg.RateLimit.RefreshMax <= 0 {
		return errors.New("config: rate limit budgets must be positive")
	}
	if cfg.RateLimit.LoginWindow <= 0 ||
		cfg.RateLimit.PasswordChangeWindow <= 0 ||
		cfg.RateLimit.UsernameChangeWindow <= 0 ||
		cfg.RateLimit.RefreshWindow <= 0 {
		return errors.New("config: rate limit windows must be positive")
	}
	return nil
}
