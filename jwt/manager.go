package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const minSecretBytes = 32

// Config holds the signing secret and token policy for the session issuer.
type Config struct {
	// TTL is the absolute lifetime of an issued session token.
	TTL time.Duration

	// Secret is the HS256 signing key. Must be at least 32 bytes.
	Secret []byte

	// Issuer is embedded in the iss claim and enforced on parse.
	Issuer string

	// Leeway tolerates small clock differences when validating expiry.
	Leeway time.Duration
}

// SessionClaims is the claim bundle carried by every session token. This
// shape crosses trust boundaries and must stay wire-compatible.
type SessionClaims struct {
	AccountID int64  `json:"aid"`
	Email     string `json:"email"`
	Organiser bool   `json:"org"`
	jwt.RegisteredClaims
}

// Manager signs and verifies session tokens. Safe for concurrent use after
// construction.
type Manager struct {
	config Config
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("session TTL must be > 0")
	}
	if len(cfg.Secret) < minSecretBytes {
		return nil, errors.New("signing secret must be at least 32 bytes")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	return &Manager{config: cfg}, nil
}

// Issue mints a signed session token for the given identity.
func (m *Manager) Issue(accountID int64, email string, organiser bool) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		AccountID: accountID,
		Email:     email,
		Organiser: organiser,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.config.Secret)
}

// Parse verifies signature, issuer, and expiry, returning the embedded
// claims. Any failure is reported as a single opaque error; callers map it
// to their own domain error.
func (m *Manager) Parse(tokenStr string) (*SessionClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}
