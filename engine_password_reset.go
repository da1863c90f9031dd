package bookauth

import (
	"context"
	"errors"
	"time"

	"github.com/tripgrid/bookauth/internal"
)

// ForgotPassword starts the reset flow. The response is identical whether
// or not the email maps to an account: the only observable difference is
// the notification that reaches the inbox of a real owner.
func (e *Engine) ForgotPassword(ctx context.Context, email string) error {
	if e == nil || e.accounts == nil {
		return ErrEngineNotReady
	}

	account, err := e.accounts.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			e.metricInc(MetricPasswordForgotRequest)
			return nil
		}
		return storeErr(err)
	}

	token, err := internal.NewToken(internal.StandardTokenBytes)
	if err != nil {
		return err
	}

	// A repeat request replaces the prior token; earlier reset links die.
	account.Reset = Challenge{
		Value:     token,
		ExpiresAt: internal.ExpiryIn(e.config.Reset.TokenTTL),
	}
	if err := e.accounts.Update(ctx, account); err != nil {
		return storeErr(err)
	}

	e.enqueueMail(ctx, passwordResetMail(account, token))

	e.metricInc(MetricPasswordForgotRequest)
	e.emitAudit(ctx, auditEventPasswordForgot, true, account, nil, nil)
	return nil
}

// ResetPassword consumes a reset token and installs a new password. The
// token is invalidated in the same write that stores the new hash, and any
// active lockout is lifted with it.
func (e *Engine) ResetPassword(ctx context.Context, token, newPassword string) error {
	if e == nil || e.hasher == nil {
		return ErrEngineNotReady
	}

	account, err := e.accounts.ByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			e.metricInc(MetricPasswordResetFailure)
			return ErrChallengeInvalid
		}
		return storeErr(err)
	}

	if !account.Reset.Matches(token, time.Now()) {
		e.metricInc(MetricPasswordResetFailure)
		e.emitAudit(ctx, auditEventPasswordReset, false, account, ErrChallengeInvalid, nil)
		return ErrChallengeInvalid
	}

	if err := e.checkPassword(newPassword, account.Email); err != nil {
		e.metricInc(MetricPasswordResetFailure)
		e.emitAudit(ctx, auditEventPasswordReset, false, account, err, nil)
		return err
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	account.PasswordHash = hash
	account.Reset = Challenge{}
	account.clearLockout()
	if err := e.accounts.Update(ctx, account); err != nil {
		return storeErr(err)
	}

	e.metricInc(MetricPasswordResetSuccess)
	e.emitAudit(ctx, auditEventPasswordReset, true, account, nil, nil)
	return nil
}
