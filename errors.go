package bookauth

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrEmailTaken is returned by Signup when the email is already
	// registered. Signup deliberately discloses existence so the user can
	// pick another address; contrast with ForgotPassword.
	ErrEmailTaken = errors.New("email already registered")

	// ErrAccountNotFound is returned by Login for an unknown email.
	ErrAccountNotFound = errors.New("account does not exist")

	// ErrInvalidCredentials is returned for a password mismatch.
	ErrInvalidCredentials = errors.New("incorrect password")

	// ErrTooManyAttempts is returned by the failed login that trips the
	// lockout threshold.
	ErrTooManyAttempts = errors.New("too many failed attempts, account locked")

	// ErrAccountLocked is returned while a lockout window is active.
	// Returned values carry remaining time via LockoutError.
	ErrAccountLocked = errors.New("account locked")

	// ErrAccountUnverified is returned by Login before the email address
	// has been confirmed.
	ErrAccountUnverified = errors.New("email address not verified")

	// ErrAccountAlreadyVerified is returned by ResendVerification for an
	// account whose email is already confirmed.
	ErrAccountAlreadyVerified = errors.New("email address already verified")

	// ErrChallengeInvalid covers unknown, mismatched, and expired
	// verification or reset tokens. The categories are deliberately
	// collapsed so a caller cannot distinguish wrong-value from
	// right-but-expired.
	ErrChallengeInvalid = errors.New("invalid or expired token")

	// ErrMFAInvalid covers a mismatched or expired MFA code.
	ErrMFAInvalid = errors.New("invalid or expired code")

	// ErrMFANotPending is returned when no MFA code is on file for the
	// account; the caller must initiate login again.
	ErrMFANotPending = errors.New("no verification pending, initiate login again")

	// ErrPasswordPolicy is the sentinel wrapped by PolicyError.
	ErrPasswordPolicy = errors.New("password policy violation")

	// ErrPasswordReuse is returned when a new password matches the
	// current one.
	ErrPasswordReuse = errors.New("new password must differ from the current password")

	// ErrRememberTokenInvalid covers unknown and expired remember-me
	// tokens (an expired token is deleted as a side effect, so a retry
	// fails for the same reason).
	ErrRememberTokenInvalid = errors.New("invalid remember-me token")

	// ErrUnauthorized is returned by Authenticate for a missing, invalid,
	// expired, or revoked session token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is the contract error stores return for an absent row.
	// The engine maps it to a flow-specific domain error; it never
	// reaches callers of Engine methods directly.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail is the contract error AccountStore.Create returns
	// when the email is already present.
	ErrDuplicateEmail = errors.New("duplicate email")

	// ErrStoreUnavailable wraps persistence failures. Unlike domain
	// errors these are unexpected and should alert, not just display.
	ErrStoreUnavailable = errors.New("storage error")

	// ErrEngineNotReady is returned when an Engine is used before Build
	// completed.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// PolicyError aggregates every credential-policy violation found in a
// candidate password so legitimate users can fix all of them at once.
type PolicyError struct {
	Violations []string
}

func (e *PolicyError) Error() string {
	return "password policy violation: " + strings.Join(e.Violations, "; ")
}

func (e *PolicyError) Unwrap() error {
	return ErrPasswordPolicy
}

// LockoutError reports an active lockout window with remaining-time
// context for the user-facing message.
type LockoutError struct {
	Until time.Time
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("account locked, try again in %d minute(s)", e.Minutes())
}

func (e *LockoutError) Unwrap() error {
	return ErrAccountLocked
}

// Minutes returns the remaining lockout duration rounded up to whole
// minutes, never less than 1 while the window is active.
func (e *LockoutError) Minutes() int {
	remaining := time.Until(e.Until)
	if remaining <= 0 {
		return 0
	}
	minutes := int((remaining + time.Minute - 1) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// storeErr wraps persistence failures so they stay distinguishable from
// domain errors at the boundary layer.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
