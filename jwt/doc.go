// Package jwt issues and verifies the signed session tokens minted after a
// successful authentication. Tokens are self-contained HS256 JWTs carrying
// the account id, email, and organiser flag alongside the registered
// issuer and expiry claims.
//
// A missing or short signing secret is a configuration error surfaced at
// construction time, never a per-request failure.
package jwt
