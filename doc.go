// Package bookauth is the authentication and session-lifecycle engine for
// a multi-tenant booking platform: account signup with email verification,
// credential login with brute-force lockout, optional step-up MFA via
// one-time email codes, password reset and in-session password change
// (itself MFA-gated), long-lived remember-me tokens, and logout with
// session-token revocation.
//
// The package is the public surface. [Engine] methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
// Durable state lives behind the [AccountStore] and [RememberTokenStore]
// interfaces supplied by the host application; the engine itself is
// request-scoped and stateless between calls.
//
// # Architecture boundaries
//
// Persistence, outbound mail transport, HTTP routing, and IP-level rate
// limiting belong to the host. The engine consumes them through narrow
// interfaces ([AccountStore], [Mailer]) and exposes one operation per
// identity-affecting flow. Notification sends are fire-and-forget: a slow
// or failing mail gateway never stalls an authentication response.
//
// # Token lifecycle contract
//
// Every time-boxed secret (verification token, reset token, MFA code,
// remember-me token, signed session token) is checked expiry-first, and a
// successful verification persists the cleared secret before the success
// response is produced, so an exact replay of a just-used secret fails.
package bookauth
