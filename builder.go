package authcore

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Rathodpruthvi45/authcore/csrf"
	internalaudit "github.com/Rathodpruthvi45/authcore/internal/audit"
	internalmetrics "github.com/Rathodpruthvi45/authcore/internal/metrics"
	"github.com/Rathodpruthvi45/authcore/internal/rate"
	"github.com/Rathodpruthvi45/authcore/internal/store"
	"github.com/Rathodpruthvi45/authcore/internal/stores"
	"github.com/Rathodpruthvi45/authcore/jwt"
	"github.com/Rathodpruthvi45/authcore/password"
	"github.com/Rathodpruthvi45/authcore/rbac"
)

// Builder assembles an [Engine]. Construction is allocation-only; no I/O
// happens before the first Engine method call.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	principals PrincipalStore
	verifier   PasswordVerifier
	mailer     Mailer
	auditSink  AuditSink
	logger     *slog.Logger

	clock func() time.Time
	newID func() string

	built bool
}

// New returns a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the shared session-store client. Required.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithPrincipalStore supplies the external account boundary. Required.
func (b *Builder) WithPrincipalStore(ps PrincipalStore) *Builder {
	b.principals = ps
	return b
}

// WithPasswordVerifier replaces the bundled Argon2id verifier.
func (b *Builder) WithPasswordVerifier(v PasswordVerifier) *Builder {
	b.verifier = v
	return b
}

// WithMailer supplies the outbound email boundary. Optional; without it,
// verification and reset tokens are returned to the caller only.
func (b *Builder) WithMailer(m Mailer) *Builder {
	b.mailer = m
	return b
}

// WithAuditSink supplies the audit event receiver.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger supplies a logger for best-effort warning paths.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides the time source. Test hook.
func (b *Builder) WithClock(clock func() time.Time) *Builder {
	b.clock = clock
	return b
}

// WithIDGenerator overrides unique-id generation. Test hook.
func (b *Builder) WithIDGenerator(newID func() string) *Builder {
	b.newID = newID
	return b
}

// Build validates the configuration, wires every subsystem, and returns the
// Engine. A Builder can build at most once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.principals == nil {
		return nil, errors.New("principal store required")
	}
	if err := validateConfig(b.config); err != nil {
		return nil, err
	}

	tokenManager, err := jwt.NewManager(jwt.Config{
		AccessTTL:     b.config.Tokens.AccessTTL,
		RefreshTTL:    b.config.Tokens.RefreshTTL,
		SigningMethod: jwt.SigningMethod(b.config.Tokens.SigningMethod),
		PrivateKey:    b.config.Tokens.PrivateKey,
		PublicKey:     b.config.Tokens.PublicKey,
		Issuer:        b.config.Tokens.Issuer,
		Audience:      b.config.Tokens.Audience,
		Leeway:        b.config.Tokens.Leeway,
	})
	if err != nil {
		return nil, err
	}

	guard, err := csrf.NewGuard(b.config.CSRF.ValueBytes)
	if err != nil {
		return nil, err
	}

	verifier := b.verifier
	if verifier == nil {
		hasher, err := password.NewHasher(password.DefaultConfig())
		if err != nil {
			return nil, err
		}
		verifier = hasher
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}
	newID := b.newID
	if newID == nil {
		newID = uuid.NewString
	}

	sharedStore := store.New(b.redis)

	engine := &Engine{
		config:     b.config,
		tokens:     tokenManager,
		families:   stores.NewFamilyStore(sharedStore),
		singleUse:  stores.NewSingleUseStore(sharedStore, b.config.SingleUse.KeyPrefix),
		limiter:    rate.New(sharedStore, ratePolicies(b.config.RateLimit)),
		csrfGuard:  guard,
		enforcer:   rbac.NewEnforcer(b.config.RBAC.Capabilities),
		principals: b.principals,
		verifier:   verifier,
		mailer:     b.mailer,
		auditor: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    b.config.Audit.Enabled,
			BufferSize: b.config.Audit.BufferSize,
			DropIfFull: b.config.Audit.DropIfFull,
		}, b.auditSink),
		metrics: internalmetrics.New(internalmetrics.Config{
			Enabled:       b.config.Metrics.Enabled,
			EnableLatency: b.config.Metrics.EnableLatencyHistograms,
		}),
		logger: b.logger,
		clock:  clock,
		newID:  newID,
	}

	b.built = true
	return engine, nil
}

func ratePolicies(cfg RateLimitConfig) map[rate.Action]rate.Policy {
	return map[rate.Action]rate.Policy{
		rate.ActionLogin:             toRatePolicy(cfg.Login),
		rate.ActionRefresh:           toRatePolicy(cfg.Refresh),
		rate.ActionPasswordReset:     toRatePolicy(cfg.PasswordReset),
		rate.ActionEmailVerification: toRatePolicy(cfg.EmailVerification),
	}
}

func toRatePolicy(p RatePolicy) rate.Policy {
	return rate.Policy{
		MaxAttempts: p.MaxAttempts,
		Window:      p.Window,
		Keying:      rate.Keying(p.Keying),
	}
}
