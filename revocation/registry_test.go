package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemoryRevokeAndCheck(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	revoked, err := m.IsRevoked(ctx, "token-a")
	if err != nil {
		t.Fatal(err)
	}
	if revoked {
		t.Error("unknown token reported revoked")
	}

	if err := m.Revoke(ctx, "token-a", time.Hour); err != nil {
		t.Fatal(err)
	}

	revoked, err = m.IsRevoked(ctx, "token-a")
	if err != nil {
		t.Fatal(err)
	}
	if !revoked {
		t.Error("revoked token reported valid")
	}

	revoked, err = m.IsRevoked(ctx, "token-b")
	if err != nil {
		t.Fatal(err)
	}
	if revoked {
		t.Error("revocation leaked to a different token")
	}
}

func TestMemoryEntriesExpire(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.Revoke(ctx, "short-lived", time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	revoked, err := m.IsRevoked(ctx, "short-lived")
	if err != nil {
		t.Fatal(err)
	}
	if revoked {
		t.Error("entry survived past its retention window")
	}
	if m.Len() != 0 {
		t.Errorf("expired entry not swept, Len = %d", m.Len())
	}
}

func TestMemoryEmptyTokenIgnored(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.Revoke(ctx, "", time.Hour); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 0 {
		t.Error("empty token stored")
	}
}

func testRedisRegistry(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, "rv"), srv
}

func TestRedisRevokeAndCheck(t *testing.T) {
	ctx := context.Background()
	r, _ := testRedisRegistry(t)

	revoked, err := r.IsRevoked(ctx, "token-a")
	if err != nil {
		t.Fatal(err)
	}
	if revoked {
		t.Error("unknown token reported revoked")
	}

	if err := r.Revoke(ctx, "token-a", time.Hour); err != nil {
		t.Fatal(err)
	}

	revoked, err = r.IsRevoked(ctx, "token-a")
	if err != nil {
		t.Fatal(err)
	}
	if !revoked {
		t.Error("revoked token reported valid")
	}
}

func TestRedisEntriesCarryTTL(t *testing.T) {
	ctx := context.Background()
	r, srv := testRedisRegistry(t)

	if err := r.Revoke(ctx, "token-a", time.Minute); err != nil {
		t.Fatal(err)
	}

	srv.FastForward(2 * time.Minute)

	revoked, err := r.IsRevoked(ctx, "token-a")
	if err != nil {
		t.Fatal(err)
	}
	if revoked {
		t.Error("entry survived past its TTL")
	}
}

func TestRedisKeysAreHashed(t *testing.T) {
	ctx := context.Background()
	r, srv := testRedisRegistry(t)

	raw := "raw-bearer-token-value"
	if err := r.Revoke(ctx, raw, time.Hour); err != nil {
		t.Fatal(err)
	}

	for _, key := range srv.Keys() {
		if key == "rv:"+raw {
			t.Error("raw token stored as a Redis key")
		}
	}
}

func TestRedisErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	r, srv := testRedisRegistry(t)
	srv.Close()

	if _, err := r.IsRevoked(ctx, "token-a"); err == nil {
		t.Error("IsRevoked against a dead server returned no error")
	}
}
