// Package password contains the credential policy and the argon2id
// hashing primitive used by the bookauth engine.
//
// The policy side is pure: [Evaluate] and [ContainsIdentifier] have no
// side effects and no dependencies. The hashing side wraps
// golang.org/x/crypto/argon2 behind PHC-encoded strings so stored hashes
// are self-describing and parameters can be raised without invalidating
// existing credentials.
package password
