package authcore

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// envConfig mirrors the deployment's environment surface. Durations use
// the original units: minutes for the access token and windows, days for
// the refresh token.
type envConfig struct {
	JWTSecret            string `env:"AUTHCORE_JWT_SECRET"`
	JWTAlgorithm         string `env:"AUTHCORE_JWT_ALGORITHM" envDefault:"hs256"`
	JWTIssuer            string `env:"AUTHCORE_JWT_ISSUER" envDefault:""`
	AccessTTLMinutes     int    `env:"AUTHCORE_ACCESS_TTL_MINUTES" envDefault:"30"`
	RefreshTTLDays       int    `env:"AUTHCORE_REFRESH_TTL_DAYS" envDefault:"7"`
	BlacklistPrefix      string `env:"AUTHCORE_BLACKLIST_PREFIX" envDefault:"blacklisted_token"`
	BlacklistDefaultTTL  int    `env:"AUTHCORE_BLACKLIST_DEFAULT_TTL_SECONDS" envDefault:"1800"`
	LoginMaxFailures     int    `env:"AUTHCORE_LOGIN_MAX_FAILURES" envDefault:"5"`
	LoginWindowMinutes   int    `env:"AUTHCORE_LOGIN_WINDOW_MINUTES" envDefault:"5"`
	PasswordChangeMax    int    `env:"AUTHCORE_PASSWORD_CHANGE_MAX" envDefault:"2"`
	PasswordChangeWindow int    `env:"AUTHCORE_PASSWORD_CHANGE_WINDOW_MINUTES" envDefault:"1440"`
	UsernameChangeMax    int    `env:"AUTHCORE_USERNAME_CHANGE_MAX" envDefault:"10"`
	UsernameChangeWindow int    `env:"AUTHCORE_USERNAME_CHANGE_WINDOW_MINUTES" envDefault:"60"`
	RefreshMax           int    `env:"AUTHCORE_REFRESH_MAX" envDefault:"10"`
	RefreshWindowMinutes int    `env:"AUTHCORE_REFRESH_WINDOW_MINUTES" envDefault:"60"`
	AuditEnabled         bool   `env:"AUTHCORE_AUDIT_ENABLED" envDefault:"false"`
	MetricsEnabled       bool   `env:"AUTHCORE_METRICS_ENABLED" envDefault:"true"`
}

// ConfigFromEnv builds a [Config] from environment variables, loading a
// .env file first when one is present.
func ConfigFromEnv() (Config, error) {
	_ = godotenv.Load()

	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte(raw.JWTSecret)
	cfg.JWT.SigningMethod = raw.JWTAlgorithm
	cfg.JWT.Issuer = raw.JWTIssuer
	cfg.JWT.AccessTTL = time.Duration(raw.AccessTTLMinutes) * time.Minute
	cfg.JWT.RefreshTTL = time.Duration(raw.RefreshTTLDays) * 24 * time.Hour
	cfg.Blacklist.RedisPrefix = raw.BlacklistPrefix
	cfg.Blacklist.DefaultTTL = time.Duration(raw.BlacklistDefaultTTL) * time.Second
	cfg.RateLimit.LoginMaxFailures = raw.LoginMaxFailures
	cfg.RateLimit.LoginWindow = time.Duration(raw.LoginWindowMinutes) * time.Minute
	cfg.RateLimit.PasswordChangeMax = raw.PasswordChangeMax
	cfg.RateLimit.PasswordChangeWindow = time.Duration(raw.PasswordChangeWindow) * time.Minute
	cfg.RateLimit.UsernameChangeMax = raw.UsernameChangeMax
	cfg.RateLimit.UsernameChangeWindow = time.Duration(raw.UsernameChangeWindow) * time.Minute
	cfg.RateLimit.RefreshMax = raw.RefreshMax
	cfg.RateLimit.RefreshWindow = time.Duration(raw.RefreshWindowMinutes) * time.Minute
	cfg.Audit.Enabled = raw.AuditEnabled
	cfg.Metrics.Enabled = raw.MetricsEnabled

	return cfg, validateConfig(cfg)
}
