package bookauth

import (
	"context"
	"errors"
	"time"

	"github.com/tripgrid/bookauth/internal"
	"github.com/tripgrid/bookauth/password"
)

// Signup registers a new unverified account and dispatches a verification
// notification. The response is a generic acknowledgement; the raw
// verification token travels only out-of-band.
//
// Duplicate emails are reported as ErrEmailTaken: unlike ForgotPassword,
// signup must tell the user to pick another address.
func (e *Engine) Signup(ctx context.Context, input SignupInput) error {
	if e == nil || e.hasher == nil {
		return ErrEngineNotReady
	}

	if _, err := e.accounts.ByEmail(ctx, input.Email); err == nil {
		e.metricInc(MetricSignupDuplicate)
		e.emitAudit(ctx, auditEventSignup, false, Account{Email: input.Email}, ErrEmailTaken, nil)
		return ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return storeErr(err)
	}

	if err := e.checkPassword(input.Password, input.Email); err != nil {
		e.metricInc(MetricSignupPolicyRejected)
		e.emitAudit(ctx, auditEventSignup, false, Account{Email: input.Email}, err, nil)
		return err
	}

	token, err := internal.NewToken(internal.StandardTokenBytes)
	if err != nil {
		return err
	}

	hash, err := e.hasher.Hash(input.Password)
	if err != nil {
		return err
	}

	account := Account{
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: hash,
		Organiser:    input.Organiser,
		Verification: Challenge{
			Value:     token,
			ExpiresAt: internal.ExpiryIn(e.config.Verification.TokenTTL),
		},
	}

	created, err := e.accounts.Create(ctx, account)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			// Lost a race with a concurrent signup for the same email.
			e.metricInc(MetricSignupDuplicate)
			e.emitAudit(ctx, auditEventSignup, false, account, ErrEmailTaken, nil)
			return ErrEmailTaken
		}
		return storeErr(err)
	}

	e.enqueueMail(ctx, verificationMail(created, token))

	e.metricInc(MetricSignupSuccess)
	e.emitAudit(ctx, auditEventSignup, true, created, nil, nil)
	return nil
}

// VerifyEmail confirms an address from its verification token. Unknown
// and expired tokens produce the same error so the response does not
// reveal whether a guessed token ever existed.
func (e *Engine) VerifyEmail(ctx context.Context, token string) error {
	if e == nil || e.accounts == nil {
		return ErrEngineNotReady
	}

	account, err := e.accounts.ByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			e.metricInc(MetricEmailVerifyFailure)
			return ErrChallengeInvalid
		}
		return storeErr(err)
	}

	if !account.Verification.Matches(token, time.Now()) {
		e.metricInc(MetricEmailVerifyFailure)
		e.emitAudit(ctx, auditEventEmailVerify, false, account, ErrChallengeInvalid, nil)
		return ErrChallengeInvalid
	}

	account.EmailVerified = true
	account.Verification = Challenge{}
	if err := e.accounts.Update(ctx, account); err != nil {
		return storeErr(err)
	}

	e.metricInc(MetricEmailVerifySuccess)
	e.emitAudit(ctx, auditEventEmailVerify, true, account, nil, nil)
	return nil
}

// ResendVerification rotates the verification token and sends it again.
// The email identity is already known to the requester in this flow, so
// not-found surfaces as ErrAccountNotFound.
func (e *Engine) ResendVerification(ctx context.Context, email string) error {
	if e == nil || e.accounts == nil {
		return ErrEngineNotReady
	}

	account, err := e.accounts.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrAccountNotFound
		}
		return storeErr(err)
	}

	if account.EmailVerified {
		return ErrAccountAlreadyVerified
	}

	token, err := internal.NewToken(internal.StandardTokenBytes)
	if err != nil {
		return err
	}

	// Overwrites any prior token; only the latest one can verify.
	account.Verification = Challenge{
		Value:     token,
		ExpiresAt: internal.ExpiryIn(e.config.Verification.TokenTTL),
	}
	if err := e.accounts.Update(ctx, account); err != nil {
		return storeErr(err)
	}

	e.enqueueMail(ctx, verificationMail(account, token))

	e.metricInc(MetricVerificationResent)
	e.emitAudit(ctx, auditEventVerificationResend, true, account, nil, nil)
	return nil
}

// checkPassword runs the credential policy and the contextual identifier
// gate. Both are required; acceptance by the policy alone is not enough.
func (e *Engine) checkPassword(candidate, email string) error {
	if result := password.Evaluate(candidate); !result.Accepted {
		return &PolicyError{Violations: result.Violations}
	}
	if password.ContainsIdentifier(candidate, email) {
		return &PolicyError{Violations: []string{"must not contain your email address"}}
	}
	return nil
}
