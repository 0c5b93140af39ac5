package rbac

import (
	"context"

	"github.com/stitchbook/stitchbook/internal/shared"
)

// Service resolves roles into permissions. The role matrix is static; only the
// user's role assignment is read from storage.
type Service struct {
	lookup ActorLookup
}

// NewService constructs the authorization service.
func NewService(lookup ActorLookup) *Service {
	return &Service{lookup: lookup}
}

// Actor loads the user behind a session.
func (s *Service) Actor(ctx context.Context, userID int64) (shared.Actor, error) {
	return s.lookup.LookupActor(ctx, userID)
}

// EffectivePermissions lists the permissions of the user's current role.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	actor, err := s.lookup.LookupActor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return shared.RolePermissions(actor.Role), nil
}

// ListRoles returns the role matrix, most privileged first.
func (s *Service) ListRoles() []Role {
	names := []string{shared.RoleAdmin, shared.RoleManager, shared.RoleStaff}
	roles := make([]Role, 0, len(names))
	for _, name := range names {
		roles = append(roles, Role{Name: name, Permissions: shared.RolePermissions(name)})
	}
	return roles
}
