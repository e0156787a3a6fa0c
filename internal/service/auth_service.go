package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/docsecure/docsecure/internal/domain"
	"github.com/docsecure/docsecure/internal/observability"
	"github.com/docsecure/docsecure/internal/repository"
	"github.com/docsecure/docsecure/internal/security"
)

type AuthService struct {
	userRepo repository.UserRepository
	hasher   *security.PasswordHasher
	tokens   *TokenService
	audit    *AuditService
}

func NewAuthService(userRepo repository.UserRepository, hasher *security.PasswordHasher, tokens *TokenService, audit *AuditService) *AuthService {
	return &AuthService{userRepo: userRepo, hasher: hasher, tokens: tokens, audit: audit}
}

// Register creates a user after checking email and username uniqueness. The
// very first account becomes the admin.
func (s *AuthService) Register(ctx context.Context, email, username, password string, meta ClientMeta) (*domain.User, error) {
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		observability.RecordAuthAttempt(ctx, "register", "conflict")
		return nil, fmt.Errorf("%w: a user with this email already exists", ErrConflict)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}
	if _, err := s.userRepo.FindByUsername(ctx, username); err == nil {
		observability.RecordAuthAttempt(ctx, "register", "conflict")
		return nil, fmt.Errorf("%w: a user with this username already exists", ErrConflict)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.userRepo.CreateBootstrappingAdmin(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserDuplicate) {
			observability.RecordAuthAttempt(ctx, "register", "conflict")
			return nil, fmt.Errorf("%w: email or username already registered", ErrConflict)
		}
		observability.RecordAuthAttempt(ctx, "register", "error")
		return nil, err
	}
	observability.RecordAuthAttempt(ctx, "register", "success")

	if err := s.audit.Record(ctx, &user.ID, domain.ActionRegister, domain.ResourceUser,
		strconv.Itoa(int(user.ID)), nil, meta); err != nil {
		return nil, err
	}
	return user, nil
}

// Login accepts an email or a username. Unknown identifier and wrong password
// produce the same error so callers cannot enumerate accounts.
func (s *AuthService) Login(ctx context.Context, identifier, password string, meta ClientMeta) (string, *domain.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, identifier)
	if errors.Is(err, repository.ErrUserNotFound) {
		user, err = s.userRepo.FindByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			observability.RecordAuthAttempt(ctx, "login", "failure")
			return "", nil, fmt.Errorf("%w: incorrect email/username or password", ErrUnauthenticated)
		}
		return "", nil, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		observability.RecordAuthAttempt(ctx, "login", "failure")
		return "", nil, fmt.Errorf("%w: incorrect email/username or password", ErrUnauthenticated)
	}
	if !user.IsActive {
		observability.RecordAuthAttempt(ctx, "login", "inactive")
		return "", nil, fmt.Errorf("%w: inactive user", ErrUnauthenticated)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, err
	}
	observability.RecordAuthAttempt(ctx, "login", "success")

	if err := s.audit.Record(ctx, &user.ID, domain.ActionLogin, domain.ResourceUser,
		strconv.Itoa(int(user.ID)), nil, meta); err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Logout revokes the presented token. Idempotent.
func (s *AuthService) Logout(ctx context.Context, raw string, user *domain.User, meta ClientMeta) error {
	if err := s.tokens.Revoke(ctx, raw); err != nil {
		observability.RecordAuthAttempt(ctx, "logout", "error")
		return fmt.Errorf("revoke token: %w", err)
	}
	observability.RecordAuthAttempt(ctx, "logout", "success")
	return s.audit.Record(ctx, &user.ID, domain.ActionLogout, domain.ResourceUser,
		strconv.Itoa(int(user.ID)), nil, meta)
}

// UpdateProfile applies self-service email/username changes with the same
// uniqueness rules as registration.
func (s *AuthService) UpdateProfile(ctx context.Context, user *domain.User, email, username string, meta ClientMeta) (*domain.User, error) {
	if email != "" && email != user.Email {
		if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
		user.Email = email
	}
	if username != "" && username != user.Username {
		if _, err := s.userRepo.FindByUsername(ctx, username); err == nil {
			return nil, fmt.Errorf("%w: username already registered", ErrConflict)
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
		user.Username = username
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	if err := s.audit.Record(ctx, &user.ID, domain.ActionUpdate, domain.ResourceUser,
		strconv.Itoa(int(user.ID)), nil, meta); err != nil {
		return nil, err
	}
	return user, nil
}
