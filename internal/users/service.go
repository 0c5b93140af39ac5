package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/stitchbook/stitchbook/internal/shared"
)

var (
	ErrUserNotFound  = fmt.Errorf("user %w", shared.ErrNotFound)
	ErrUsernameTaken = fmt.Errorf("username already exists: %w", shared.ErrConflict)
	ErrLastAdmin     = fmt.Errorf("at least one admin must remain: %w", shared.ErrConflict)
	ErrDeleteSelf    = fmt.Errorf("cannot delete the signed-in account: %w", shared.ErrConflict)
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	CreateUser(ctx context.Context, user User) (User, error)
	UpdateUser(ctx context.Context, user User) error
	DeleteUser(ctx context.Context, id int64) error
	CountByRole(ctx context.Context, role string) (int, error)
}

// Service handles user business logic.
type Service struct {
	repo       RepositoryPort
	logger     *slog.Logger
	validate   *validator.Validate
	bcryptCost int
}

// NewService builds Service instance. A zero cost uses bcrypt.DefaultCost.
func NewService(repo RepositoryPort, logger *slog.Logger, bcryptCost int) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, logger: logger, validate: shared.NewValidator(), bcryptCost: bcryptCost}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUser returns one user.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// FindByUsername looks an account up by login name.
func (s *Service) FindByUsername(ctx context.Context, username string) (User, error) {
	return s.repo.FindByUsername(ctx, strings.TrimSpace(username))
}

// CreateUser hashes the password and stores the account.
func (s *Service) CreateUser(ctx context.Context, in CreateInput) (User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := shared.ValidationFromValidator(s.validate.Struct(in)); err != nil {
		return User{}, err
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return User{}, err
	}
	user, err := s.repo.CreateUser(ctx, User{Username: in.Username, PasswordHash: hash, Role: in.Role})
	if err != nil {
		return User{}, err
	}
	s.logger.Info("user created", slog.Int64("user_id", user.ID), slog.String("role", user.Role))
	return user, nil
}

// UpdateUser changes role and/or password. Demoting the only admin fails.
func (s *Service) UpdateUser(ctx context.Context, id int64, in UpdateInput) (User, error) {
	if err := shared.ValidationFromValidator(s.validate.Struct(in)); err != nil {
		return User{}, err
	}
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	if in.Role != nil && *in.Role != user.Role {
		if user.Role == shared.RoleAdmin {
			if err := s.ensureOtherAdmin(ctx); err != nil {
				return User{}, err
			}
		}
		user.Role = *in.Role
	}
	if in.Password != nil {
		if user.PasswordHash, err = s.hash(*in.Password); err != nil {
			return User{}, err
		}
	}
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// DeleteUser removes an account. actorID is the signed-in admin, who cannot
// delete themselves; the last admin cannot be removed either.
func (s *Service) DeleteUser(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return ErrDeleteSelf
	}
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == shared.RoleAdmin {
		if err := s.ensureOtherAdmin(ctx); err != nil {
			return err
		}
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", slog.Int64("user_id", id), slog.Int64("by", actorID))
	return nil
}

// EnsureAdmin creates the bootstrap admin when no admin exists yet. It
// reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	n, err := s.repo.CountByRole(ctx, shared.RoleAdmin)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	_, err = s.CreateUser(ctx, CreateInput{Username: username, Password: password, Role: shared.RoleAdmin})
	if err != nil {
		return false, err
	}
	return true, nil
}

// VerifyPassword checks password against the stored hash.
func (s *Service) VerifyPassword(user User, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return shared.ErrInvalidCredentials
	}
	return err
}

// LookupActor resolves a session user id for request authorisation.
func (s *Service) LookupActor(ctx context.Context, userID int64) (shared.Actor, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return shared.Actor{}, err
	}
	return user.Actor(), nil
}

func (s *Service) ensureOtherAdmin(ctx context.Context) error {
	n, err := s.repo.CountByRole(ctx, shared.RoleAdmin)
	if err != nil {
		return err
	}
	if n <= 1 {
		return ErrLastAdmin
	}
	return nil
}

func (s *Service) hash(password string) (string, error) {
	raw, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("users: hash password: %w", err)
	}
	return string(raw), nil
}
