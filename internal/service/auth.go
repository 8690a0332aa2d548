package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caridad-unsta/caridad/internal/apperror"
	"github.com/caridad-unsta/caridad/internal/auth"
	"github.com/caridad-unsta/caridad/internal/model"
	"github.com/caridad-unsta/caridad/internal/repository"
)

// AuthService turns a proven identity into a session.
//
//	AuthHandler (HTTP) → AuthService → IdentityService → UserRepository
//	                               ↘ TokenService (JWT)
//
// It never touches cookies or requests; the handler does that with the
// returned AuthResult.
type AuthService struct {
	identity  *IdentityService
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	identity *IdentityService,
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		identity:  identity,
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the signed-in user with the token issued for them.
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// LoginWithGoogle resolves a verified Google profile to an internal user and
// issues a session token.
func (s *AuthService) LoginWithGoogle(ctx context.Context, profile *auth.GoogleUser) (*AuthResult, error) {
	if profile == nil {
		return nil, errors.New("service/auth: Google profile must not be nil")
	}

	user, err := s.identity.Resolve(ctx, profile.ExternalID(), profile.Email, profile.Name)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user authenticated via Google", slog.String("userID", user.ID))
	return s.issue(user)
}

// LoginWithPassword authenticates a local account. Unknown emails, accounts
// without a password and wrong passwords all yield the same Unauthorized error.
func (s *AuthService) LoginWithPassword(ctx context.Context, email, password string) (*AuthResult, error) {
	invalid := apperror.Unauthorized("invalid email or password")

	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}
	if user.PasswordHash == "" {
		return nil, invalid
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Warn("failed password login", slog.String("userID", user.ID))
			return nil, invalid
		}
		return nil, fmt.Errorf("service/auth: verifying password of %s: %w", user.ID, err)
	}

	s.logger.Info("user authenticated via password", slog.String("userID", user.ID))
	return s.issue(user)
}

// EnsureAdmin makes sure a local administrator account exists for email.
// A missing account is created; an existing one is promoted and gets the
// given password. Used once at startup.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password, name string) (*model.User, error) {
	email, err := normaliseEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing admin password: %w", err)
	}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		user.Role = model.RoleAdmin
		user.PasswordHash = hash
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("service/auth: promoting %s: %w", user.ID, err)
		}
		s.logger.Info("bootstrap admin ensured", slog.String("userID", user.ID))
		return user, nil
	case errors.Is(err, apperror.ErrNotFound):
	default:
		return nil, fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}

	if name = strings.TrimSpace(name); name == "" {
		name = "Administrator"
	}
	user = &model.User{Email: email, Name: name, Role: model.RoleAdmin, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating bootstrap admin: %w", err)
	}
	s.logger.Info("bootstrap admin created", slog.String("userID", user.ID))
	return user, nil
}

// GetUserByID returns the caller of /api/me.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.users.GetByID(ctx, id)
}

// ValidateToken returns the user ID a session token was issued for.
func (s *AuthService) ValidateToken(token string) (string, error) {
	userID, err := s.tokens.Validate(token)
	if err != nil {
		return "", apperror.Unauthorized("invalid or expired session")
	}
	return userID, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
