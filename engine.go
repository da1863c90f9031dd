package bookauth

import (
	"context"
	"time"

	"github.com/tripgrid/bookauth/jwt"
	"github.com/tripgrid/bookauth/password"
	"github.com/tripgrid/bookauth/revocation"
)

// Engine is the authentication state machine. It coordinates the account
// store, credential policy, secret generation, notification outbox,
// session issuer, and revocation registry behind one operation per
// identity-affecting flow.
//
// Engine instances are created through [Builder.Build] and are safe for
// concurrent use afterwards.
type Engine struct {
	config         Config
	accounts       AccountStore
	rememberTokens RememberTokenStore
	registry       revocation.Registry
	hasher         *password.Hasher
	sessions       *jwt.Manager
	outbox         *mailOutbox
	audit          *auditDispatcher
	metrics        *Metrics
}

// Close flushes and stops the background dispatchers. The engine must not
// be used after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.outbox != nil {
		e.outbox.Close()
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// MetricsSnapshot returns a point-in-time copy of all counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were dropped under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MailDropped reports how many notifications were dropped under
// backpressure (delivery failures are counted separately by the outbox).
func (e *Engine) MailDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.outbox.Dropped()
}

// Authenticate validates a bearer session token: revocation membership is
// checked before the signature so revoked tokens are rejected without
// paying for verification. Any failure maps to ErrUnauthorized.
func (e *Engine) Authenticate(ctx context.Context, token string) (*AuthResult, error) {
	if e == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}
	if token == "" {
		return nil, ErrUnauthorized
	}

	revoked, err := e.registry.IsRevoked(ctx, token)
	if err != nil {
		// Fail closed: an unreachable registry must not admit
		// possibly-revoked tokens.
		return nil, ErrUnauthorized
	}
	if revoked {
		e.metricInc(MetricRevokedTokenRejected)
		return nil, ErrUnauthorized
	}

	claims, err := e.sessions.Parse(token)
	if err != nil {
		return nil, ErrUnauthorized
	}

	return &AuthResult{
		AccountID: claims.AccountID,
		Email:     claims.Email,
		Organiser: claims.Organiser,
	}, nil
}

func (e *Engine) issueSession(account Account) (*LoginResult, error) {
	token, err := e.sessions.Issue(account.ID, account.Email, account.Organiser)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricSessionIssued)

	return &LoginResult{
		SessionToken: token,
		AccountID:    account.ID,
		Email:        account.Email,
		FirstName:    account.FirstName,
		LastName:     account.LastName,
		Organiser:    account.Organiser,
	}, nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) enqueueMail(ctx context.Context, msg Message) {
	if e == nil || e.outbox == nil {
		return
	}
	e.metricInc(MetricMailEnqueued)
	e.outbox.Enqueue(ctx, msg)
}

func (e *Engine) emitAudit(ctx context.Context, eventType string, success bool, account Account, failure error, metadata map[string]string) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		AccountID: account.ID,
		Email:     account.Email,
		Success:   success,
		Metadata:  metadata,
	}
	if failure != nil {
		event.Error = failure.Error()
	}

	e.audit.Emit(ctx, event)
}
