package service

import (
	"context"
	"fmt"
	"time"

	"github.com/docsecure/docsecure/internal/observability"
	"github.com/docsecure/docsecure/internal/security"
)

// TokenService issues signed self-contained session tokens and checks them
// against the revocation set. Validation depends only on the token, the set
// and the clock.
type TokenService struct {
	jwtMgr     *security.JWTManager
	revocation RevocationStore
	ttl        time.Duration
}

func NewTokenService(jwtMgr *security.JWTManager, revocation RevocationStore, ttl time.Duration) *TokenService {
	return &TokenService{jwtMgr: jwtMgr, revocation: revocation, ttl: ttl}
}

func (s *TokenService) TTL() time.Duration { return s.ttl }

func (s *TokenService) Issue(userID uint) (string, error) {
	raw, err := s.jwtMgr.Sign(userID, s.ttl)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return raw, nil
}

// Validate returns the subject user id for a live token. Rejection reasons
// (bad signature, expiry, revocation) all collapse into ErrUnauthenticated.
func (s *TokenService) Validate(ctx context.Context, raw string) (uint, error) {
	claims, err := s.jwtMgr.Parse(raw)
	if err != nil {
		observability.RecordAccessTokenValidation(ctx, "invalid", "bearer")
		return 0, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	revoked, err := s.revocation.IsRevoked(ctx, claims.ID)
	if err != nil {
		observability.RecordAccessTokenValidation(ctx, "error", "bearer")
		return 0, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		observability.RecordAccessTokenValidation(ctx, "revoked", "bearer")
		return 0, fmt.Errorf("%w: token revoked", ErrUnauthenticated)
	}
	userID, err := claims.UserID()
	if err != nil {
		observability.RecordAccessTokenValidation(ctx, "invalid", "bearer")
		return 0, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	observability.RecordAccessTokenValidation(ctx, "valid", "bearer")
	return userID, nil
}

// Revoke invalidates a token before its natural expiry. Revoking an already
// revoked or malformed token is a no-op.
func (s *TokenService) Revoke(ctx context.Context, raw string) error {
	claims, err := s.jwtMgr.Parse(raw)
	if err != nil {
		return nil
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		return nil
	}
	return s.revocation.Revoke(ctx, claims.ID, remaining)
}
