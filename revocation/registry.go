package revocation

import (
	"context"
	"time"
)

// Registry is a denylist of revoked session-token strings.
//
// Revoke is idempotent. The ttl is the remaining useful lifetime of the
// entry: once the underlying token has expired on its own, the entry no
// longer needs to be retained.
type Registry interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}
