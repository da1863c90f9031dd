package bookauth

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/tripgrid/bookauth/jwt"
	"github.com/tripgrid/bookauth/password"
	"github.com/tripgrid/bookauth/revocation"
)

// Builder assembles an Engine. Construction is allocation-only; no I/O
// happens until the engine methods are called.
type Builder struct {
	config Config

	accounts       AccountStore
	rememberTokens RememberTokenStore
	mailer         Mailer
	registry       revocation.Registry
	redis          *redis.Client
	auditSink      AuditSink

	built bool
}

// New returns a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration. The session secret is copied
// defensively.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithAccountStore sets the persistence capability for accounts.
func (b *Builder) WithAccountStore(s AccountStore) *Builder {
	b.accounts = s
	return b
}

// WithRememberTokenStore sets the persistence capability for remember-me
// tokens.
func (b *Builder) WithRememberTokenStore(s RememberTokenStore) *Builder {
	b.rememberTokens = s
	return b
}

// WithMailer sets the outbound notification gateway.
func (b *Builder) WithMailer(m Mailer) *Builder {
	b.mailer = m
	return b
}

// WithRevocationRegistry overrides the revocation backend. Takes
// precedence over WithRedis.
func (b *Builder) WithRevocationRegistry(r revocation.Registry) *Builder {
	b.registry = r
	return b
}

// WithRedis backs the revocation registry with a shared Redis instance so
// revocations are visible across processes.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithAuditSink sets the audit event receiver.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// Build validates the configuration, wires the components, and returns a
// ready Engine. A Builder can build at most once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.accounts == nil {
		return nil, errors.New("account store required")
	}
	if b.rememberTokens == nil {
		return nil, errors.New("remember token store required")
	}
	if b.mailer == nil {
		return nil, errors.New("mailer required")
	}

	registry := b.registry
	if registry == nil {
		if b.redis != nil {
			registry = revocation.NewRedis(b.redis, cfg.Session.RedisPrefix)
		} else {
			// Single-process default. Multi-instance deployments must
			// supply a shared registry or a Redis client.
			registry = revocation.NewMemory()
		}
	}

	hasher, err := password.NewHasher(password.HasherConfig{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	sessions, err := jwt.NewManager(jwt.Config{
		TTL:    cfg.Session.TTL,
		Secret: cloneBytes(cfg.Session.Secret),
		Issuer: cfg.Session.Issuer,
		Leeway: cfg.Session.Leeway,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:         cfg,
		accounts:       b.accounts,
		rememberTokens: b.rememberTokens,
		registry:       registry,
		hasher:         hasher,
		sessions:       sessions,
		outbox:         newMailOutbox(cfg.Outbox, b.mailer),
		audit:          newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:        NewMetrics(cfg.Metrics),
	}

	b.built = true

	return engine, nil
}
