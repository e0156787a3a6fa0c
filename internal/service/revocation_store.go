package service

import (
	"context"
	"sync"
	"time"
)

// RevocationStore is the stateful escape hatch for logout-before-expiry: a
// set of revoked token ids, each entry living at least until the token's own
// expiry. Lookup happens on every validation, so membership tests must be
// cheap and safe under concurrent use.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// InMemoryRevocationStore keeps revocations in a mutex-guarded map with lazy
// pruning. Revocations do not survive a restart; deployments that need that
// use the Redis store instead.
type InMemoryRevocationStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

func NewInMemoryRevocationStore() *InMemoryRevocationStore {
	return &InMemoryRevocationStore{entries: make(map[string]time.Time)}
}

func (s *InMemoryRevocationStore) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	expiresAt := time.Now().UTC().Add(ttl)
	// Idempotent: a repeat revoke keeps the later expiry.
	if existing, ok := s.entries[jti]; !ok || expiresAt.After(existing) {
		s.entries[jti] = expiresAt
	}
	return nil
}

func (s *InMemoryRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	now := time.Now().UTC()
	s.mu.RLock()
	expiresAt, ok := s.entries[jti]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if now.After(expiresAt) {
		s.mu.Lock()
		if cur, ok := s.entries[jti]; ok && now.After(cur) {
			delete(s.entries, jti)
		}
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}
