package bookauth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tripgrid/bookauth/internal"
)

// CreateRememberToken mints a long-lived opaque token for an account that
// has already authenticated. The raw value is returned exactly once;
// callers typically put it in a persistent cookie.
func (e *Engine) CreateRememberToken(ctx context.Context, accountID int64) (string, error) {
	if e == nil || e.rememberTokens == nil {
		return "", ErrEngineNotReady
	}

	account, err := e.accounts.ByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrAccountNotFound
		}
		return "", storeErr(err)
	}

	token, err := internal.NewToken(internal.RememberTokenBytes)
	if err != nil {
		return "", err
	}

	row := RememberToken{
		ID:        uuid.NewString(),
		Token:     token,
		AccountID: account.ID,
		ExpiresAt: internal.ExpiryIn(e.config.RememberMe.TokenTTL),
		CreatedAt: time.Now(),
	}
	if err := e.rememberTokens.Insert(ctx, row); err != nil {
		return "", storeErr(err)
	}

	e.metricInc(MetricRememberTokenIssued)
	e.emitAudit(ctx, auditEventRememberIssued, true, account, nil, nil)
	return token, nil
}

// RedeemRememberToken exchanges a remember-me token for a fresh session.
// Expired rows are deleted on sight rather than waiting for a sweep, and
// a token whose account has since disappeared is treated the same as an
// unknown one. Redemption does not consume the token: it stays valid for
// repeated use until its own expiry or an explicit logout.
func (e *Engine) RedeemRememberToken(ctx context.Context, token string) (*LoginResult, error) {
	if e == nil || e.rememberTokens == nil {
		return nil, ErrEngineNotReady
	}
	if token == "" {
		return nil, ErrRememberTokenInvalid
	}

	row, err := e.rememberTokens.ByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrRememberTokenInvalid
		}
		return nil, storeErr(err)
	}

	now := time.Now()
	if internal.Expired(row.ExpiresAt, now) {
		if err := e.rememberTokens.Delete(ctx, row.ID); err != nil {
			return nil, storeErr(err)
		}
		e.metricInc(MetricRememberTokenExpired)
		return nil, ErrRememberTokenInvalid
	}

	account, err := e.accounts.ByID(ctx, row.AccountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if err := e.rememberTokens.Delete(ctx, row.ID); err != nil {
				return nil, storeErr(err)
			}
			return nil, ErrRememberTokenInvalid
		}
		return nil, storeErr(err)
	}

	if account.Locked(now) {
		e.metricInc(MetricLoginLocked)
		e.emitAudit(ctx, auditEventLoginLocked, false, account, ErrAccountLocked, nil)
		return nil, &LockoutError{Until: account.LockedUntil}
	}

	result, err := e.issueSession(account)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricRememberTokenRedeemed)
	e.emitAudit(ctx, auditEventRememberRedeemed, true, account, nil, nil)
	return result, nil
}
