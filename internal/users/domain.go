package users

import (
	"time"

	"github.com/stitchbook/stitchbook/internal/shared"
)

// User is a staff account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Actor projects the user into the identity carried on requests.
func (u User) Actor() shared.Actor {
	return shared.Actor{ID: u.ID, Username: u.Username, Role: u.Role}
}

// CreateInput registers a new account.
type CreateInput struct {
	Username string `json:"username" validate:"required,min=3,max=50,excludesall= "`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=admin manager staff"`
}

// UpdateInput changes the role or password of an account.
type UpdateInput struct {
	Role     *string `json:"role" validate:"omitempty,oneof=admin manager staff"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
}
