package bookauth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/tripgrid/bookauth/internal"
)

// Login checks a password against the stored hash, subject to the
// brute-force lockout counter. When the account has MFA enabled the
// result carries MFARequired and no session token; the session is
// issued by VerifyMFA instead.
//
// Unknown emails are reported as ErrAccountNotFound. The forgot-password
// flow is the one that stays silent about account existence; login is
// expected to tell the user the address is wrong.
func (e *Engine) Login(ctx context.Context, email, pass string) (*LoginResult, error) {
	if e == nil || e.hasher == nil {
		return nil, ErrEngineNotReady
	}

	account, err := e.accounts.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			e.metricInc(MetricLoginFailure)
			return nil, ErrAccountNotFound
		}
		return nil, storeErr(err)
	}

	// Unverified accounts never reach the password comparison.
	if !account.EmailVerified {
		e.emitAudit(ctx, auditEventLoginFailure, false, account, ErrAccountUnverified, nil)
		return nil, ErrAccountUnverified
	}

	now := time.Now()
	if account.Locked(now) {
		e.metricInc(MetricLoginLocked)
		e.emitAudit(ctx, auditEventLoginLocked, false, account, ErrAccountLocked, nil)
		return nil, &LockoutError{Until: account.LockedUntil}
	}
	if !account.LockedUntil.IsZero() {
		// A previous lockout window has elapsed; the counter starts over.
		account.clearLockout()
	}

	ok, err := e.hasher.Verify(pass, account.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, e.recordFailedLogin(ctx, account, now)
	}

	account.clearLockout()

	if e.config.Password.UpgradeOnLogin {
		// Best effort: a failed rehash must not block a valid login.
		if needs, err := e.hasher.NeedsRehash(account.PasswordHash); err == nil && needs {
			if upgraded, err := e.hasher.Hash(pass); err == nil {
				account.PasswordHash = upgraded
			}
		}
	}

	if account.MFAEnabled {
		return e.beginMFA(ctx, account)
	}

	if err := e.accounts.Update(ctx, account); err != nil {
		return nil, storeErr(err)
	}

	result, err := e.issueSession(account)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, account, nil, nil)
	return result, nil
}

// recordFailedLogin advances the lockout counter and persists it. The
// attempt that reaches the threshold gets ErrTooManyAttempts so callers
// can tell the user the account is now locked rather than that the
// password was merely wrong.
func (e *Engine) recordFailedLogin(ctx context.Context, account Account, now time.Time) error {
	account.FailedLogins++

	failure := error(ErrInvalidCredentials)
	if account.FailedLogins >= e.config.Lockout.MaxAttempts {
		account.LockedUntil = now.Add(e.config.Lockout.Duration)
		failure = ErrTooManyAttempts
	}

	if err := e.accounts.Update(ctx, account); err != nil {
		return storeErr(err)
	}

	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, account, failure, map[string]string{
		"failed_logins": strconv.Itoa(account.FailedLogins),
	})
	return failure
}

// beginMFA issues a fresh one-time code and defers the session to
// VerifyMFA. Any code from an earlier login attempt is overwritten.
func (e *Engine) beginMFA(ctx context.Context, account Account) (*LoginResult, error) {
	code, err := internal.NewMFACode()
	if err != nil {
		return nil, err
	}

	account.MFA = Challenge{
		Value:     code,
		ExpiresAt: internal.ExpiryIn(e.config.MFA.CodeTTL),
	}
	if err := e.accounts.Update(ctx, account); err != nil {
		return nil, storeErr(err)
	}

	e.enqueueMail(ctx, mfaCodeMail(account, code))

	e.metricInc(MetricMFAChallengeIssued)
	e.emitAudit(ctx, auditEventMFAChallenge, true, account, nil, nil)

	return &LoginResult{
		MFARequired: true,
		AccountID:   account.ID,
		Email:       account.Email,
		FirstName:   account.FirstName,
		LastName:    account.LastName,
		Organiser:   account.Organiser,
	}, nil
}
