package bookauth

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/tripgrid/bookauth/internal"
)

// Challenge is a single time-boxed secret stored on an Account: the
// verification token, reset token, and MFA code all share this shape. At
// most one live value exists per kind; issuing a new one overwrites the
// prior one.
type Challenge struct {
	Value     string
	ExpiresAt time.Time
}

// Live reports whether the challenge holds an unexpired value. An empty
// value or zero expiry is never live.
func (c Challenge) Live(now time.Time) bool {
	return c.Value != "" && !internal.Expired(c.ExpiresAt, now)
}

// Matches reports whether candidate equals the stored value and the value
// is still live. Expiry is checked before equality: an expired challenge
// never matches, even textually identical input.
func (c Challenge) Matches(candidate string, now time.Time) bool {
	if !c.Live(now) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.Value), []byte(candidate)) == 1
}

// Account is the persisted identity, credential, and security-state
// aggregate. The password is held only as an argon2id hash; it is never
// round-tripped in plaintext after creation.
type Account struct {
	ID        int64
	Email     string
	FirstName string
	LastName  string

	// PasswordHash is the PHC-encoded argon2id hash.
	PasswordHash string

	// Organiser is a coarse authorization claim, immutable after signup.
	Organiser bool

	EmailVerified bool
	Verification  Challenge
	Reset         Challenge

	MFAEnabled bool
	MFA        Challenge

	FailedLogins int
	LockedUntil  time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Locked reports whether a lockout window is active. Lock state is purely
// derived from LockedUntil; it is never cached separately.
func (a *Account) Locked(now time.Time) bool {
	return !a.LockedUntil.IsZero() && a.LockedUntil.After(now)
}

// clearLockout resets the brute-force sub-state. Applied on every
// successful password check and every successful password mutation.
func (a *Account) clearLockout() {
	a.FailedLogins = 0
	a.LockedUntil = time.Time{}
}

// RememberToken is a long-lived opaque credential exchangeable for a
// fresh session token without re-entering a password. Many-to-one with
// Account; deleted individually on expiry and en masse on logout.
type RememberToken struct {
	ID        string
	Token     string
	AccountID int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// AccountStore is the persistence capability the engine requires for
// accounts. Every lookup returns ErrNotFound for an absent row rather
// than an opaque failure, and Update applies the whole record as one
// atomic write: partial application (for example clearing the lock
// counter without the password) must not be observable.
type AccountStore interface {
	Create(ctx context.Context, account Account) (Account, error)
	ByEmail(ctx context.Context, email string) (Account, error)
	ByID(ctx context.Context, id int64) (Account, error)
	ByVerificationToken(ctx context.Context, token string) (Account, error)
	ByResetToken(ctx context.Context, token string) (Account, error)
	Update(ctx context.Context, account Account) error
}

// RememberTokenStore persists remember-me tokens. Token strings are
// globally unique.
type RememberTokenStore interface {
	Insert(ctx context.Context, token RememberToken) error
	ByToken(ctx context.Context, token string) (RememberToken, error)
	Delete(ctx context.Context, id string) error
	DeleteForAccount(ctx context.Context, accountID int64) error
}

// Message is a templated notification handed to the Mailer. Params carries
// the template values (token, code, name) for mailers that re-render.
type Message struct {
	ID      string
	To      string
	Subject string
	Body    string
	Params  map[string]string
}

// Mailer delivers a single message. Implementations are called from the
// engine's outbox goroutine, never from a request path; errors are
// counted and dropped, not surfaced to authentication callers.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SignupInput is the parameter record for Engine.Signup.
type SignupInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
	Organiser bool
}

// AuthResult identifies the authenticated principal behind a validated
// session token.
type AuthResult struct {
	AccountID int64
	Email     string
	Organiser bool
}

// LoginResult is returned by Login, VerifyMFA, and RedeemRememberToken.
// When MFARequired is set the session token is empty and the caller must
// complete VerifyMFA to obtain one.
type LoginResult struct {
	SessionToken string
	MFARequired  bool

	AccountID int64
	Email     string
	FirstName string
	LastName  string
	Organiser bool
}
