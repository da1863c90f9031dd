package bookauth

import (
	"context"
	"time"
)

// Logout revokes the presented session token and removes every
// remember-me token the account holds, so neither the short-lived
// session nor the long-lived cookie survives an explicit sign-out.
//
// The revocation entry lives exactly as long as the token itself: once
// the token would have expired anyway, the registry no longer needs to
// remember it.
func (e *Engine) Logout(ctx context.Context, sessionToken string) error {
	if e == nil || e.sessions == nil {
		return ErrEngineNotReady
	}

	claims, err := e.sessions.Parse(sessionToken)
	if err != nil {
		return ErrUnauthorized
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining > 0 {
		if err := e.registry.Revoke(ctx, sessionToken, remaining); err != nil {
			return storeErr(err)
		}
	}

	if err := e.rememberTokens.DeleteForAccount(ctx, claims.AccountID); err != nil {
		return storeErr(err)
	}

	e.metricInc(MetricSessionRevoked)
	e.emitAudit(ctx, auditEventLogout, true, Account{ID: claims.AccountID, Email: claims.Email}, nil, nil)
	return nil
}
