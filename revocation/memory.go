package revocation

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Registry backed by a mutex-guarded set. Entries
// are dropped lazily once their ttl passes, which keeps growth bounded by
// the number of revocations inside one session lifetime.
//
// Visibility is process-local: a multi-instance deployment must use
// [Redis] or an equivalent shared implementation instead.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

// NewMemory returns an empty in-process registry.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]time.Time),
	}
}

// Revoke records token as revoked until now+ttl. Re-revoking extends the
// retention window; the operation never fails.
func (m *Memory) Revoke(_ context.Context, token string, ttl time.Duration) error {
	if token == "" {
		return nil
	}

	expiry := time.Now().Add(ttl)

	m.mu.Lock()
	m.entries[token] = expiry
	m.mu.Unlock()
	return nil
}

// IsRevoked reports whether token is present and its retention window has
// not passed. Expired entries are swept opportunistically.
func (m *Memory) IsRevoked(_ context.Context, token string) (bool, error) {
	now := time.Now()

	m.mu.RLock()
	expiry, ok := m.entries[token]
	m.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if now.After(expiry) {
		m.mu.Lock()
		// Re-check under the write lock; a concurrent Revoke may have
		// refreshed the entry.
		if current, still := m.entries[token]; still && now.After(current) {
			delete(m.entries, token)
		}
		m.mu.Unlock()
		return false, nil
	}

	return true, nil
}

// Len returns the number of live entries. Intended for tests and
// operational introspection.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
