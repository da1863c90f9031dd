package bookauth

import (
	"context"
	"errors"
	"time"

	"github.com/tripgrid/bookauth/internal"
)

// ChangePassword starts an authenticated password change. The current
// password must check out and the replacement must pass policy before a
// confirmation code is sent; the change only takes effect once
// VerifyPasswordChange consumes that code.
//
// An account carries at most one pending code, so starting a change
// supersedes any code still outstanding from a login.
func (e *Engine) ChangePassword(ctx context.Context, accountID int64, current, next string) error {
	if e == nil || e.hasher == nil {
		return ErrEngineNotReady
	}

	account, err := e.accounts.ByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrAccountNotFound
		}
		return storeErr(err)
	}

	ok, err := e.hasher.Verify(current, account.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChange, false, account, ErrInvalidCredentials, nil)
		return ErrInvalidCredentials
	}

	if err := e.checkPassword(next, account.Email); err != nil {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChange, false, account, err, nil)
		return err
	}
	if next == current {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChange, false, account, ErrPasswordReuse, nil)
		return ErrPasswordReuse
	}

	code, err := internal.NewMFACode()
	if err != nil {
		return err
	}

	account.MFA = Challenge{
		Value:     code,
		ExpiresAt: internal.ExpiryIn(e.config.MFA.CodeTTL),
	}
	if err := e.accounts.Update(ctx, account); err != nil {
		return storeErr(err)
	}

	e.enqueueMail(ctx, mfaCodeMail(account, code))

	e.metricInc(MetricPasswordChangePending)
	e.emitAudit(ctx, auditEventPasswordChangePending, true, account, nil, nil)
	return nil
}

// VerifyPasswordChange consumes the confirmation code and installs the
// new password. The caller submits the replacement again here; nothing
// about it is stored between the two steps, so it is validated again
// before it lands.
func (e *Engine) VerifyPasswordChange(ctx context.Context, accountID int64, code, newPassword string) error {
	if e == nil || e.hasher == nil {
		return ErrEngineNotReady
	}

	account, err := e.accounts.ByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrAccountNotFound
		}
		return storeErr(err)
	}

	if account.MFA.Value == "" {
		return ErrMFANotPending
	}

	now := time.Now()
	if !account.MFA.Live(now) {
		account.MFA = Challenge{}
		if err := e.accounts.Update(ctx, account); err != nil {
			return storeErr(err)
		}
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChange, false, account, ErrMFAInvalid, nil)
		return ErrMFAInvalid
	}
	if !account.MFA.Matches(code, now) {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChange, false, account, ErrMFAInvalid, nil)
		return ErrMFAInvalid
	}

	if err := e.checkPassword(newPassword, account.Email); err != nil {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChange, false, account, err, nil)
		return err
	}

	same, err := e.hasher.Verify(newPassword, account.PasswordHash)
	if err != nil {
		return err
	}
	if same {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChange, false, account, ErrPasswordReuse, nil)
		return ErrPasswordReuse
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	account.PasswordHash = hash
	account.MFA = Challenge{}
	if err := e.accounts.Update(ctx, account); err != nil {
		return storeErr(err)
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChange, true, account, nil, nil)
	return nil
}
