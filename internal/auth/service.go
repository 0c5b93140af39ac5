package auth

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/stitchbook/stitchbook/internal/shared"
	"github.com/stitchbook/stitchbook/internal/users"
)

// dummyHash is compared against when the username is unknown so both
// failure paths cost one bcrypt round.
var dummyHash = []byte("$2a$10$7EqJtq98hPqEX7fNZaFWoO5vJ0bpHX3Dm6b9vK0UdQFoEw8kY1xYi")

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates username/password credentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (users.User, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return users.User{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return users.User{}, shared.ErrInvalidCredentials
	}
	return user, nil
}
