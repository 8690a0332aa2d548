package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/caridad-unsta/caridad/internal/apperror"
	"github.com/caridad-unsta/caridad/internal/auth"
	"github.com/caridad-unsta/caridad/internal/model"
	"github.com/caridad-unsta/caridad/internal/repository"
)

const (
	MaxUserNameLength   = 100
	MaxMemberCodeLength = 32
	MinPasswordLength   = 8
)

// UserService is the user directory: account creation, profile edits, roles
// and listings.
type UserService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewUserService(users repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *UserService {
	return &UserService{users: users, passwords: passwords, logger: logger}
}

// Create adds an account on behalf of an administrator. password is optional;
// without one the account can only be used through the identity provider.
func (s *UserService) Create(ctx context.Context, email, name string, role model.Role, password string) (*model.User, error) {
	// === VALIDATION ===
	email, err := normaliseEmail(email)
	if err != nil {
		return nil, err
	}
	name, err = validateUserName(name)
	if err != nil {
		return nil, err
	}
	if role == "" {
		role = model.RoleMember
	}
	if !role.Valid() {
		return nil, apperror.ValidationFailed("role", "role must be Admin or Member")
	}

	user := &model.User{Email: email, Name: name, Role: role}
	if password != "" {
		if user.PasswordHash, err = s.hash(password); err != nil {
			return nil, err
		}
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user created",
		slog.String("userID", user.ID),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.users.GetByID(ctx, id)
}

// RoleOf returns the role of the user owning externalID.
func (s *UserService) RoleOf(ctx context.Context, externalID string) (model.Role, error) {
	user, err := s.users.GetByExternalID(ctx, strings.TrimSpace(externalID))
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

// List returns users filtered by role and a case-insensitive search on name
// or email. Sort fields are name, email, role and createdAt.
func (s *UserService) List(ctx context.Context, filter repository.UserFilter, sort repository.UserSort) ([]model.User, error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, apperror.ValidationFailed("role", "role must be Admin or Member")
	}
	switch sort.Field {
	case "", "name", "email", "role", "createdAt":
	default:
		return nil, apperror.ValidationFailed("sort", "sort must be one of name, email, role, createdAt")
	}
	switch sort.Direction {
	case "":
		sort.Direction = repository.SortAsc
	case repository.SortAsc, repository.SortDesc:
	default:
		return nil, apperror.ValidationFailed("order", "order must be asc or desc")
	}

	users, err := s.users.List(ctx, filter, sort)
	if err != nil {
		s.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// UpdateRole changes a user's role. Role changes are logged for audit.
func (s *UserService) UpdateRole(ctx context.Context, id string, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, apperror.ValidationFailed("role", "role must be Admin or Member")
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := user.Role
	if previous == role {
		return user, nil
	}

	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("updating role of user %s: %w", id, err)
	}

	s.logger.Info("user role changed",
		slog.String("userID", user.ID),
		slog.String("from", string(previous)),
		slog.String("to", string(role)),
	)
	return user, nil
}

func (s *UserService) UpdateName(ctx context.Context, id, name string) (*model.User, error) {
	name, err := validateUserName(name)
	if err != nil {
		return nil, err
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Name = name
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("updating name of user %s: %w", id, err)
	}
	return user, nil
}

// UpdateMemberCode sets the university student/staff code. An empty code clears it.
func (s *UserService) UpdateMemberCode(ctx context.Context, id, code string) (*model.User, error) {
	code = strings.TrimSpace(code)
	if len(code) > MaxMemberCodeLength {
		return nil, apperror.ValidationFailed("memberCode",
			fmt.Sprintf("member code must be %d characters or less", MaxMemberCodeLength))
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	user.MemberCode = code
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("updating member code of user %s: %w", id, err)
	}
	return user, nil
}

// SetPassword replaces the local password of an account.
func (s *UserService) SetPassword(ctx context.Context, id, password string) error {
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("setting password of user %s: %w", id, err)
	}
	return nil
}

// Delete removes an account. Accounts that own donations are kept (ConflictError).
func (s *UserService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "user ID is required")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", slog.String("userID", id))
	return nil
}

func (s *UserService) hash(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return hash, nil
}

func normaliseEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", apperror.ValidationFailed("email", "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperror.ValidationFailed("email", "invalid email format")
	}
	return email, nil
}

func validateUserName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.ValidationFailed("name", "name is required")
	}
	if len(name) > MaxUserNameLength {
		return "", apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxUserNameLength))
	}
	return name, nil
}
