package auth

import (
	"context"

	"github.com/stitchbook/stitchbook/internal/users"
)

// Repository defines the account lookups the auth module needs. Both
// users.Repository and users.MemoryRepository satisfy it.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (users.User, error)
}

var (
	_ Repository = (*users.Repository)(nil)
	_ Repository = (*users.MemoryRepository)(nil)
)
