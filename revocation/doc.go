// Package revocation tracks session tokens that were explicitly
// invalidated before their natural expiry. The registry is consulted on
// every authenticated request before signature verification, so membership
// checks must be cheap.
//
// Two implementations ship: [Memory] for single-process deployments and
// [Redis] for multi-instance deployments where revocations must be visible
// across processes. Both satisfy [Registry] and are interchangeable at the
// engine boundary.
package revocation
