package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/beanbook/beanbook/internal/auth"
	"github.com/beanbook/beanbook/internal/model"
	"github.com/beanbook/beanbook/internal/repository"
)

// AuthService signs users up, in and out.
type AuthService struct {
	users     UserStore
	revoker   TokenRevoker
	hasher    *auth.PasswordHasher
	tokens    *auth.TokenManager
	logger    *slog.Logger
	now       func() time.Time
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, revoker TokenRevoker, hasher *auth.PasswordHasher, tokens *auth.TokenManager, logger *slog.Logger) (*AuthService, error) {
	// Sign-in verifies against this hash when the email is unknown.
	dummy, err := hasher.Hash("beanbook-dummy-password")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	return &AuthService{
		users:     users,
		revoker:   revoker,
		hasher:    hasher,
		tokens:    tokens,
		logger:    logger.With("component", "service.auth"),
		now:       time.Now,
		dummyHash: dummy,
	}, nil
}

// SignUpInput defines input for creating an account.
type SignUpInput struct {
	Email       string
	Password    string
	DisplayName string
}

// SignUp creates an account with its profile document and returns a session.
func (s *AuthService) SignUp(ctx context.Context, input SignUpInput) (*model.Session, *model.User, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, nil, err
	}
	if len(input.Password) < auth.MinPasswordLength {
		return nil, nil, ErrWeakPassword
	}
	displayName, err := cleanText("display_name", input.DisplayName, MaxDisplayNameLength, false, false)
	if err != nil {
		return nil, nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           generateULID(),
		Email:        email,
		DisplayName:  displayName,
		Favorites:    []string{},
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, nil, ErrEmailTaken
		}
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	session, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to issue session: %w", err)
	}

	s.logger.Info("account created", "user_id", user.ID)
	return session, user, nil
}

// SignIn verifies credentials and returns a session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_, _ = s.hasher.Verify(password, s.dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok || user.IsDeleted {
		return nil, ErrInvalidCredentials
	}

	session, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}
	return session, nil
}

// SignOut revokes the session until it would have expired anyway.
func (s *AuthService) SignOut(ctx context.Context, session *model.AuthContext) error {
	if session == nil || session.TokenID == "" {
		return nil
	}
	if err := s.revoker.RevokeToken(ctx, session.TokenID, session.ExpiresAt); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// Authenticate parses a bearer token and rejects signed-out sessions and
// sessions of deleted accounts. A revocation lookup failure lets the token
// through; the account check does not.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.AuthContext, error) {
	authCtx, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revoker.IsTokenRevoked(ctx, authCtx.TokenID)
	if err != nil {
		s.logger.Warn("revocation check failed", "error", err)
	} else if revoked {
		return nil, ErrSessionRevoked
	}

	user, err := s.users.GetUserByID(ctx, authCtx.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrSessionRevoked
		}
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}
	if user.IsDeleted {
		return nil, ErrSessionRevoked
	}

	return authCtx, nil
}
