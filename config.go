package bookauth

import (
	"errors"
	"time"
)

// Config defines every tunable of the engine. Instances are configured
// during initialization and treated as immutable afterwards.
type Config struct {
	Session      SessionConfig
	Password     PasswordConfig
	Verification VerificationConfig
	Reset        ResetConfig
	MFA          MFAConfig
	Lockout      LockoutConfig
	RememberMe   RememberMeConfig
	Outbox       OutboxConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

// SessionConfig governs the signed session tokens.
type SessionConfig struct {
	TTL    time.Duration
	Secret []byte
	Issuer string
	Leeway time.Duration

	// RedisPrefix namespaces revocation keys when a Redis registry is in
	// use.
	RedisPrefix string
}

// PasswordConfig holds the argon2id cost parameters.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	// UpgradeOnLogin rehashes under current parameters after a
	// successful password check when the stored hash is weaker.
	UpgradeOnLogin bool
}

// VerificationConfig governs email-verification tokens.
type VerificationConfig struct {
	TokenTTL time.Duration
}

// ResetConfig governs password-reset tokens.
type ResetConfig struct {
	TokenTTL time.Duration
}

// MFAConfig governs one-time email codes.
type MFAConfig struct {
	CodeTTL time.Duration
}

// LockoutConfig governs the brute-force counter on login.
type LockoutConfig struct {
	MaxAttempts int
	Duration    time.Duration
}

// RememberMeConfig governs long-lived remember-me tokens.
type RememberMeConfig struct {
	TokenTTL time.Duration
}

// OutboxConfig sizes the fire-and-forget mail dispatch buffer.
type OutboxConfig struct {
	BufferSize int
	DropIfFull bool
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the configuration a plain New() starts from.
// Callers that only need to override a field or two start here instead of
// filling in the whole struct.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			TTL:         24 * time.Hour,
			Issuer:      "bookauth",
			Leeway:      30 * time.Second,
			RedisPrefix: "rv",
		},
		Password: PasswordConfig{
			Memory:         65536,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
		},
		Verification: VerificationConfig{
			TokenTTL: 24 * time.Hour,
		},
		Reset: ResetConfig{
			TokenTTL: time.Hour,
		},
		MFA: MFAConfig{
			CodeTTL: 10 * time.Minute,
		},
		Lockout: LockoutConfig{
			MaxAttempts: 5,
			Duration:    30 * time.Minute,
		},
		RememberMe: RememberMeConfig{
			TokenTTL: 30 * 24 * time.Hour,
		},
		Outbox: OutboxConfig{
			BufferSize: 256,
			DropIfFull: true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Session.Secret = cloneBytes(cfg.Session.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate rejects configurations the engine cannot operate safely under.
func (c *Config) Validate() error {
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if len(c.Session.Secret) < 32 {
		return errors.New("Session Secret must be at least 32 bytes")
	}
	if c.Session.Issuer == "" {
		return errors.New("Session Issuer is required")
	}
	if c.Session.Leeway < 0 {
		return errors.New("Session Leeway must be >= 0")
	}

	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	if c.Verification.TokenTTL <= 0 {
		return errors.New("Verification TokenTTL must be > 0")
	}
	if c.Reset.TokenTTL <= 0 {
		return errors.New("Reset TokenTTL must be > 0")
	}
	if c.MFA.CodeTTL <= 0 {
		return errors.New("MFA CodeTTL must be > 0")
	}

	if c.Lockout.MaxAttempts <= 0 {
		return errors.New("Lockout MaxAttempts must be > 0")
	}
	if c.Lockout.Duration <= 0 {
		return errors.New("Lockout Duration must be > 0")
	}

	if c.RememberMe.TokenTTL <= 0 {
		return errors.New("RememberMe TokenTTL must be > 0")
	}
	if c.RememberMe.TokenTTL <= c.Session.TTL {
		return errors.New("RememberMe TokenTTL must exceed Session TTL")
	}

	if c.Outbox.BufferSize <= 0 {
		return errors.New("Outbox BufferSize must be > 0")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
