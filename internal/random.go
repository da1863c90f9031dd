package internal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"math/big"
	"time"
)

const (
	// StandardTokenBytes is the entropy used for verification and
	// password-reset tokens.
	StandardTokenBytes = 32

	// RememberTokenBytes is the entropy used for remember-me tokens. The
	// longer length compensates for the much larger validity window.
	RememberTokenBytes = 48

	mfaCodeMin  = 100000
	mfaCodeSpan = 900000
)

// NewToken returns byteLength cryptographically random bytes encoded as a
// compact URL-safe string.
func NewToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		return "", errors.New("invalid token length")
	}

	raw := make([]byte, byteLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// NewMFACode returns a 6-digit code uniformly distributed over
// 100000-999999 inclusive.
func NewMFACode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(mfaCodeSpan))
	if err != nil {
		return "", err
	}

	code := mfaCodeMin + n.Int64()

	buf := [6]byte{}
	for i := 5; i >= 0; i-- {
		buf[i] = byte('0' + code%10)
		code /= 10
	}
	return string(buf[:]), nil
}

// ExpiryIn returns the absolute expiry for a secret issued now.
func ExpiryIn(ttl time.Duration) time.Time {
	return time.Now().Add(ttl).UTC()
}

// Expired reports whether t has passed relative to now. A zero timestamp is
// always expired: a secret with no recorded expiry fails closed.
func Expired(t time.Time, now time.Time) bool {
	if t.IsZero() {
		return true
	}
	return !t.After(now)
}
