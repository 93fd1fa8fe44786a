package authcore

import (
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	internalaudit "github.com/ispcompare/authcore/internal/audit"
	"github.com/ispcompare/authcore/internal/limiters"
	"github.com/ispcompare/authcore/internal/rate"
	"github.com/ispcompare/authcore/internal/stores"
	"github.com/ispcompare/authcore/jwt"
	"github.com/ispcompare/authcore/tokenstore"
)

// Builder assembles an [Engine] from configuration and injected
// collaborators. Configure it once, call Build once, then discard it.
type Builder struct {
	config Config

	redis    redis.UniversalClient
	tokens   tokenstore.Store
	subjects SubjectProvider

	auditSink AuditSink
	logger    *slog.Logger

	built bool
}

// New returns a Builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder's configuration wholesale.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis injects the Redis client shared by the rate limiters and the
// access-token denylist.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithTokenStore injects the refresh-token repository.
func (b *Builder) WithTokenStore(store tokenstore.Store) *Builder {
	b.tokens = store
	return b
}

// WithSubjectProvider injects the account lookup used during rotation.
func (b *Builder) WithSubjectProvider(provider SubjectProvider) *Builder {
	b.subjects = provider
	return b
}

// WithAuditSink injects the sink audit events are dispatched to. Only
// consulted when Config.Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger injects the structured logger. Defaults to [slog.Default].
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// Build validates the configuration, wires the collaborators, and returns a
// ready Engine. A Builder can build exactly once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.tokens == nil {
		return nil, errors.New("token store required")
	}
	if b.subjects == nil {
		return nil, errors.New("subject provider required")
	}
	if err := validateConfig(b.config); err != nil {
		return nil, err
	}

	jwtManager, err := jwt.NewManager(jwt.Config{
		AccessTTL:     b.config.JWT.AccessTTL,
		RefreshTTL:    b.config.JWT.RefreshTTL,
		SigningMethod: jwt.SigningMethod(b.config.JWT.SigningMethod),
		Secret:        b.config.JWT.Secret,
		Issuer:        b.config.JWT.Issuer,
		Leeway:        b.config.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	rateLimiter := rate.New(b.redis)

	engine := &Engine{
		config:     b.config,
		jwtManager: jwtManager,
		tokens:     b.tokens,
		subjects:   b.subjects,
		rateLimiter: rateLimiter,
		loginLimiter: limiters.NewLoginLimiter(rateLimiter, limiters.LoginConfig{
			MaxFailures: b.config.RateLimit.LoginMaxFailures,
			Window:      b.config.RateLimit.LoginWindow,
		}),
		policies: map[Policy]limiters.Policy{
			PolicyPasswordChange: {
				Prefix:      string(PolicyPasswordChange),
				MaxAttempts: b.config.RateLimit.PasswordChangeMax,
				Window:      b.config.RateLimit.PasswordChangeWindow,
			},
			PolicyUsernameChange: {
				Prefix:      string(PolicyUsernameChange),
				MaxAttempts: b.config.RateLimit.UsernameChangeMax,
				Window:      b.config.RateLimit.UsernameChangeWindow,
			},
			PolicyRefreshIP: {
				Prefix:      string(PolicyRefreshIP),
				MaxAttempts: b.config.RateLimit.RefreshMax,
				Window:      b.config.RateLimit.RefreshWindow,
			},
		},
		blacklist: stores.NewBlacklistStore(b.redis, b.config.Blacklist.RedisPrefix),
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    b.config.Audit.Enabled,
			BufferSize: b.config.Audit.BufferSize,
			DropIfFull: b.config.Audit.DropIfFull,
		}, b.auditSink),
		metrics: NewMetrics(b.config.Metrics),
		logger:  logger,
		now:     time.Now,
		ready:   true,
	}

	b.built = true
	return engine, nil
}
