package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/docsecure/docsecure/internal/domain"
	"github.com/docsecure/docsecure/internal/repository"
)

// Guard resolves bearer tokens to user identities and holds the ownership
// predicate every resource endpoint relies on.
type Guard struct {
	tokens   *TokenService
	userRepo repository.UserRepository
}

func NewGuard(tokens *TokenService, userRepo repository.UserRepository) *Guard {
	return &Guard{tokens: tokens, userRepo: userRepo}
}

// Resolve validates the token and loads its subject. A vanished or inactive
// user fails exactly like a bad token.
func (g *Guard) Resolve(ctx context.Context, raw string) (*domain.User, error) {
	userID, err := g.tokens.Validate(ctx, raw)
	if err != nil {
		return nil, err
	}
	user, err := g.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: unknown subject", ErrUnauthenticated)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: inactive user", ErrUnauthenticated)
	}
	return user, nil
}

// AuthorizeOwner is the sole access predicate for documents and, through the
// document, for share links: the caller must be the recorded owner.
func (g *Guard) AuthorizeOwner(user *domain.User, ownerID uint) error {
	if user == nil || user.ID != ownerID {
		return fmt.Errorf("%w: not the resource owner", ErrForbidden)
	}
	return nil
}
