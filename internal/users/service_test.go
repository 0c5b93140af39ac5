package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/stitchbook/stitchbook/internal/shared"
)

func newTestService() *Service {
	return NewService(NewMemoryRepository(), nil, bcrypt.MinCost)
}

func TestCreateUserHashesPassword(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateInput{Username: "  priya ", Password: "stitch-me", Role: shared.RoleStaff})
	require.NoError(t, err)
	assert.Equal(t, "priya", user.Username)
	assert.NotEqual(t, "stitch-me", user.PasswordHash)
	require.NoError(t, svc.VerifyPassword(user, "stitch-me"))
	require.ErrorIs(t, svc.VerifyPassword(user, "wrong-pass"), shared.ErrInvalidCredentials)

	_, err = svc.CreateUser(ctx, CreateInput{Username: "priya", Password: "another1", Role: shared.RoleManager})
	require.ErrorIs(t, err, ErrUsernameTaken)
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestCreateUserValidation(t *testing.T) {
	svc := newTestService()
	_, err := svc.CreateUser(context.Background(), CreateInput{Username: "ab", Password: "short", Role: "owner"})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "username")
	assert.Contains(t, verr.Fields, "password")
	assert.Contains(t, verr.Fields, "role")
}

func TestLastAdminIsProtected(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, "owner", "owner-pass")
	require.NoError(t, err)
	require.True(t, created)
	created, err = svc.EnsureAdmin(ctx, "owner2", "owner-pass")
	require.NoError(t, err)
	require.False(t, created)

	admin, err := svc.FindByUsername(ctx, "owner")
	require.NoError(t, err)
	staff, err := svc.CreateUser(ctx, CreateInput{Username: "helper", Password: "helper-pass", Role: shared.RoleStaff})
	require.NoError(t, err)

	demote := shared.RoleManager
	_, err = svc.UpdateUser(ctx, admin.ID, UpdateInput{Role: &demote})
	require.ErrorIs(t, err, ErrLastAdmin)
	require.ErrorIs(t, svc.DeleteUser(ctx, staff.ID, admin.ID), ErrLastAdmin)
	require.ErrorIs(t, svc.DeleteUser(ctx, admin.ID, admin.ID), ErrDeleteSelf)

	promote := shared.RoleAdmin
	_, err = svc.UpdateUser(ctx, staff.ID, UpdateInput{Role: &promote})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteUser(ctx, staff.ID, admin.ID))

	_, err = svc.GetUser(ctx, admin.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdatePassword(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	user, err := svc.CreateUser(ctx, CreateInput{Username: "ravi", Password: "first-pass", Role: shared.RoleStaff})
	require.NoError(t, err)

	next := "second-pass"
	_, err = svc.UpdateUser(ctx, user.ID, UpdateInput{Password: &next})
	require.NoError(t, err)

	stored, err := svc.FindByUsername(ctx, "ravi")
	require.NoError(t, err)
	require.NoError(t, svc.VerifyPassword(stored, next))
}

func TestLookupActor(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	user, err := svc.CreateUser(ctx, CreateInput{Username: "meena", Password: "meena-pass", Role: shared.RoleManager})
	require.NoError(t, err)

	actor, err := svc.LookupActor(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.Actor{ID: user.ID, Username: "meena", Role: shared.RoleManager}, actor)

	_, err = svc.LookupActor(ctx, 999)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
