package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caridad-unsta/caridad/internal/apperror"
	"github.com/caridad-unsta/caridad/internal/model"
	"github.com/caridad-unsta/caridad/internal/repository"
)

// IdentityService maps an identity asserted by the external provider onto an
// internal user, creating the user the first time the identity is seen.
type IdentityService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewIdentityService(users repository.UserRepository, logger *slog.Logger) *IdentityService {
	return &IdentityService{users: users, logger: logger}
}

// Resolve returns the user owning externalID.
//
// A known identity is returned unchanged: name and email are only modified
// through the explicit profile operations. An unknown identity becomes a new
// Member. When its email already belongs to an account that has never signed
// in (an administrator created it), the identity is attached to that account.
// Any other email clash is a ConflictError.
func (s *IdentityService) Resolve(ctx context.Context, externalID, email, name string) (*model.User, error) {
	externalID = strings.TrimSpace(externalID)
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)

	if externalID == "" {
		return nil, apperror.ValidationFailed("externalId", "external identity is required")
	}
	if email == "" {
		return nil, apperror.ValidationFailed("email", "the identity provider returned no email")
	}
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	user, err := s.users.GetByExternalID(ctx, externalID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("resolving identity %s: %w", externalID, err)
	}

	user = &model.User{
		ExternalID: externalID,
		Email:      email,
		Name:       name,
		Role:       model.RoleMember,
	}
	err = s.users.Create(ctx, user)
	if err == nil {
		s.logger.Info("user created from external identity",
			slog.String("userID", user.ID),
			slog.String("externalID", externalID),
		)
		return user, nil
	}
	if !errors.Is(err, apperror.ErrConflict) {
		return nil, fmt.Errorf("creating user for identity %s: %w", externalID, err)
	}

	// Lost a race with a concurrent first sign-in, or the email is taken.
	if user, lookupErr := s.users.GetByExternalID(ctx, externalID); lookupErr == nil {
		return user, nil
	}
	existing, lookupErr := s.users.GetByEmail(ctx, email)
	if lookupErr != nil {
		return nil, err
	}
	if existing.ExternalID != "" {
		s.logger.Warn("identity email belongs to another account",
			slog.String("externalID", externalID),
			slog.String("userID", existing.ID),
		)
		return nil, err
	}

	existing.ExternalID = externalID
	if updateErr := s.users.Update(ctx, existing); updateErr != nil {
		return nil, fmt.Errorf("linking identity %s to user %s: %w", externalID, existing.ID, updateErr)
	}
	s.logger.Info("external identity linked to existing user",
		slog.String("userID", existing.ID),
		slog.String("externalID", externalID),
	)
	return existing, nil
}
