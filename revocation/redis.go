package revocation

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Registry backed by a shared Redis instance. Each revocation
// becomes one key with a TTL equal to the remaining session lifetime, so
// the set is self-evicting and never grows past one session window.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis returns a registry writing under the given key prefix
// ("rv" when empty).
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "rv"
	}
	return &Redis{
		client: client,
		prefix: prefix,
	}
}

// key hashes the token so arbitrarily long bearer strings become fixed-size
// keys and raw tokens never land in Redis.
func (r *Redis) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return r.prefix + ":" + base64.RawURLEncoding.EncodeToString(sum[:])
}

// Revoke records the token with the given retention TTL. Idempotent:
// re-revoking simply refreshes the TTL.
func (r *Redis) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if token == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return r.client.Set(ctx, r.key(token), "1", ttl).Err()
}

// IsRevoked reports membership. Redis errors propagate so the caller can
// fail closed.
func (r *Redis) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
