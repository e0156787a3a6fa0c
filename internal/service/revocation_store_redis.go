package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRevocationStore backs the revocation set with Redis so logout survives
// process restarts and is shared across instances. Keys are jti values with a
// TTL equal to the token's remaining lifetime; Redis expiry does the pruning.
type RedisRevocationStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisRevocationStore(client redis.UniversalClient, prefix string) *RedisRevocationStore {
	if prefix == "" {
		prefix = "revoked_token"
	}
	return &RedisRevocationStore{client: client, prefix: prefix}
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if s.client == nil || jti == "" || ttl <= 0 {
		return nil
	}
	// SET is idempotent; revoking twice only refreshes the TTL, never
	// shortens it below the remaining token lifetime.
	key := s.key(jti)
	existing, err := s.client.TTL(ctx, key).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	if existing > ttl {
		ttl = existing
	}
	return s.client.Set(ctx, key, "1", ttl).Err()
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if s.client == nil {
		return false, nil
	}
	_, err := s.client.Get(ctx, s.key(jti)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisRevocationStore) key(jti string) string {
	return fmt.Sprintf("%s:%s", s.prefix, jti)
}
