package rbac

import (
	"context"

	"github.com/stitchbook/stitchbook/internal/shared"
)

// Role describes one of the fixed shop roles and what it may do.
type Role struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// ActorLookup resolves a session user id into the current user record. A
// deleted user must surface as shared.ErrNotFound.
type ActorLookup interface {
	LookupActor(ctx context.Context, userID int64) (shared.Actor, error)
}

// ActorLookupFunc adapts a function to ActorLookup.
type ActorLookupFunc func(ctx context.Context, userID int64) (shared.Actor, error)

// LookupActor implements ActorLookup.
func (f ActorLookupFunc) LookupActor(ctx context.Context, userID int64) (shared.Actor, error) {
	return f(ctx, userID)
}
