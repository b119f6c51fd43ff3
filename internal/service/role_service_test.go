package service

import (
	"context"
	"testing"

	"rotuprinters/internal/apperr"
	"rotuprinters/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDefaultRolesAndPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.roles.SeedDefaultRolesAndPermissions(ctx))
	// Seeding twice resets instead of duplicating.
	require.NoError(t, f.roles.SeedDefaultRolesAndPermissions(ctx))

	perms, err := f.roles.ListPermissions(ctx)
	require.NoError(t, err)
	assert.Len(t, perms, len(DefaultPermissions))

	roles, err := f.roles.ListRoles(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, len(DefaultRoles))

	admin, err := f.roles.GetPermissionsByRoleName(ctx, model.RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, admin, len(DefaultPermissions))

	seller, err := f.roles.GetPermissionsByRoleName(ctx, model.RoleSeller)
	require.NoError(t, err)
	assert.Contains(t, seller, "sales.complete")
	assert.NotContains(t, seller, "users.write")
	assert.NotContains(t, seller, "expenses.delete")

	designer, err := f.roles.GetPermissionsByRoleName(ctx, model.RoleDesigner)
	require.NoError(t, err)
	assert.NotContains(t, designer, "quotations.approve")
	assert.NotContains(t, designer, "sales.read")
}

func TestUpdateRolePermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.roles.SeedDefaultRolesAndPermissions(ctx))

	role, err := f.roles.UpdateRolePermissions(ctx, model.RoleDesigner, UpdateRolePermissionsRequest{
		Permissions: []string{"clients.read", "sales.read"},
	})
	require.NoError(t, err)
	assert.Len(t, role.Permissions, 2)

	codes, err := f.roles.GetPermissionsByRoleName(ctx, model.RoleDesigner)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"clients.read", "sales.read"}, codes)

	_, err = f.roles.UpdateRolePermissions(ctx, model.RoleDesigner, UpdateRolePermissionsRequest{Permissions: []string{"rockets.launch"}})
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.roles.UpdateRolePermissions(ctx, "ghost", UpdateRolePermissionsRequest{Permissions: []string{"clients.read"}})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
