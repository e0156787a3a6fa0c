package service

import (
	"context"
	"testing"
	"time"
)

func TestRedisRevokeAndLookup(t *testing.T) {
	_, client := newRedisClientForTest(t)
	store := NewRedisRevocationStore(client, "")
	ctx := context.Background()

	if err := store.Revoke(ctx, "jti-1", time.Minute); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err := store.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if !revoked {
		t.Fatal("expected jti-1 to be revoked")
	}

	revoked, err = store.IsRevoked(ctx, "jti-unknown")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Fatal("unknown jti must not be revoked")
	}
}

func TestRedisEntryExpiresWithToken(t *testing.T) {
	server, client := newRedisClientForTest(t)
	store := NewRedisRevocationStore(client, "")
	ctx := context.Background()

	if err := store.Revoke(ctx, "jti-1", time.Minute); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	server.FastForward(2 * time.Minute)

	revoked, err := store.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Fatal("entry should expire with the token lifetime")
	}
}

func TestRedisRepeatRevokeKeepsLongerTTL(t *testing.T) {
	server, client := newRedisClientForTest(t)
	store := NewRedisRevocationStore(client, "")
	ctx := context.Background()

	if err := store.Revoke(ctx, "jti-1", 10*time.Minute); err != nil {
		t.Fatalf("first revoke: %v", err)
	}
	if err := store.Revoke(ctx, "jti-1", time.Minute); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	server.FastForward(5 * time.Minute)

	revoked, err := store.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if !revoked {
		t.Fatal("repeat revoke must not shorten the entry lifetime")
	}
}

func TestRedisNilClientIsNoop(t *testing.T) {
	store := NewRedisRevocationStore(nil, "")
	ctx := context.Background()
	if err := store.Revoke(ctx, "jti-1", time.Minute); err != nil {
		t.Fatalf("revoke with nil client: %v", err)
	}
	revoked, err := store.IsRevoked(ctx, "jti-1")
	if err != nil || revoked {
		t.Fatalf("nil client lookup = %v, %v", revoked, err)
	}
}
