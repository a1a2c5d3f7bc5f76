package authsession

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/teamer-dev/authsession/internal/audit"
	"github.com/teamer-dev/authsession/internal/rate"
	"github.com/teamer-dev/authsession/jwt"
	"github.com/teamer-dev/authsession/revocation"
)

// Builder assembles an Engine. A Builder can build once.
type Builder struct {
	config     Config
	redis      redis.UniversalClient
	store      revocation.Store
	principals PrincipalStore
	auditSink  AuditSink
	logger     *zerolog.Logger
	clock      Clock

	built bool
}

// New starts a Builder from DefaultConfig.
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

// WithConfig replaces the configuration. The value is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRevocationStore sets the revocation backend. Without one, Build uses
// an in-memory store owned and closed by the Engine.
func (b *Builder) WithRevocationStore(store revocation.Store) *Builder {
	b.store = store
	return b
}

// WithPrincipalStore sets the lookup used by Login and Refresh.
func (b *Builder) WithPrincipalStore(ps PrincipalStore) *Builder {
	b.principals = ps
	return b
}

// WithRedis supplies the client used by the login rate limiter.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAuditSink sets where audit events go when auditing is enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the logger for warnings about failed operations.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = &logger
	return b
}

// WithClock sets the time source for issuing and verifying tokens. The
// engine-owned memory store follows it; a store passed to
// WithRevocationStore should be built with revocation.WithClock on the same
// clock.
func (b *Builder) WithClock(clock Clock) *Builder {
	b.clock = clock
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the verify latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Enabled && b.redis == nil {
		return nil, errors.New("RateLimit requires redis client")
	}

	codec, err := jwt.NewCodec(cfg.Token.SigningSecret)
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}

	e := &Engine{
		config:     cfg,
		codec:      codec,
		principals: b.principals,
		metrics:    NewMetrics(cfg.Metrics),
		logger:     zerolog.Nop(),
		clock:      b.clock,
	}
	if b.logger != nil {
		e.logger = b.logger.With().Str("component", "authsession").Logger()
	}
	if e.clock == nil {
		e.clock = systemClock{}
	}

	store := b.store
	if store == nil {
		mem := revocation.NewMemoryStore(revocation.WithClock(e.clock.Now))
		store = mem
		e.owned = append(e.owned, mem)
	}
	e.store = revocation.Conditional(store)
	e.storeName = fmt.Sprintf("%T", store)

	if cfg.RateLimit.Enabled {
		e.limiter = rate.New(b.redis, rate.Config{
			Prefix:           cfg.Revocation.RedisPrefix,
			MaxLoginAttempts: cfg.RateLimit.MaxLoginAttempts,
			LoginCooldown:    cfg.RateLimit.LoginCooldown,
			IPThrottle:       cfg.RateLimit.IPThrottle,
		})
	}

	e.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	e.issuer = jwt.NewIssuer(codec, cfg.Token.Issuer, e.clock.Now)
	e.initFlowDeps()

	b.built = true
	return e, nil
}
