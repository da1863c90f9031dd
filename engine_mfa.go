package bookauth

import (
	"context"
	"errors"
	"time"
)

// VerifyMFA completes a login that Login answered with MFARequired. The
// code is single-use: it is cleared and the clear is persisted before the
// session token is issued, so a second submission of the same code fails
// even if the first response is lost.
func (e *Engine) VerifyMFA(ctx context.Context, accountID int64, code string) (*LoginResult, error) {
	if e == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}

	account, err := e.accounts.ByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, storeErr(err)
	}

	if account.MFA.Value == "" {
		return nil, ErrMFANotPending
	}

	now := time.Now()
	if !account.MFA.Live(now) {
		// Expired codes are cleared so the caller gets ErrMFANotPending on
		// retry instead of burning guesses against a dead challenge.
		account.MFA = Challenge{}
		if err := e.accounts.Update(ctx, account); err != nil {
			return nil, storeErr(err)
		}
		e.metricInc(MetricMFAVerifyFailure)
		e.emitAudit(ctx, auditEventMFAVerify, false, account, ErrMFAInvalid, nil)
		return nil, ErrMFAInvalid
	}

	if !account.MFA.Matches(code, now) {
		e.metricInc(MetricMFAVerifyFailure)
		e.emitAudit(ctx, auditEventMFAVerify, false, account, ErrMFAInvalid, nil)
		return nil, ErrMFAInvalid
	}

	account.MFA = Challenge{}
	if err := e.accounts.Update(ctx, account); err != nil {
		return nil, storeErr(err)
	}

	result, err := e.issueSession(account)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricMFAVerifySuccess)
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventMFAVerify, true, account, nil, nil)
	return result, nil
}
