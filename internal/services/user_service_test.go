package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercavio/marketplace-admin/internal/models"
	"github.com/mercavio/marketplace-admin/internal/permissions"
	"github.com/mercavio/marketplace-admin/internal/store"
)

func TestChangeStatus_BlockAndUnblock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	blocked, err := env.users.ChangeStatus(ctx, env.mod1, env.buyer.ID, permissions.ActionBlock)
	require.NoError(t, err)
	assert.Equal(t, models.StatusBlocked, blocked.Status)

	// Blocking again is a state violation, not a permission one.
	_, err = env.users.ChangeStatus(ctx, env.mod1, env.buyer.ID, permissions.ActionBlock)
	var is models.InvalidStateError
	require.ErrorAs(t, err, &is)

	active, err := env.users.ChangeStatus(ctx, env.admin, env.buyer.ID, permissions.ActionUnblock)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, active.Status)
}

func TestChangeStatus_RoleViolationsAreForbidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Moderators cannot touch admins or other moderators.
	_, err := env.users.ChangeStatus(ctx, env.mod1, env.admin.ID, permissions.ActionBlock)
	require.ErrorIs(t, err, models.ErrForbidden)
	_, err = env.users.ChangeStatus(ctx, env.mod1, env.mod2.ID, permissions.ActionBlock)
	require.ErrorIs(t, err, models.ErrForbidden)

	// Deactivation is admin-only.
	_, err = env.users.ChangeStatus(ctx, env.mod1, env.buyer.ID, permissions.ActionDeactivate)
	require.ErrorIs(t, err, models.ErrForbidden)

	// Nobody operates on their own account.
	_, err = env.users.ChangeStatus(ctx, env.admin, env.admin.ID, permissions.ActionDeactivate)
	require.ErrorIs(t, err, models.ErrForbidden)

	// Edit is not a status transition.
	_, err = env.users.ChangeStatus(ctx, env.admin, env.buyer.ID, permissions.ActionEdit)
	require.ErrorIs(t, err, models.ErrForbidden)
}

func TestChangeStatus_DeactivateThenActivate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inactive, err := env.users.ChangeStatus(ctx, env.admin, env.seller.ID, permissions.ActionDeactivate)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInactive, inactive.Status)

	// An inactive account cannot be blocked, only reactivated.
	_, err = env.users.ChangeStatus(ctx, env.admin, env.seller.ID, permissions.ActionBlock)
	var is models.InvalidStateError
	require.ErrorAs(t, err, &is)

	active, err := env.users.ChangeStatus(ctx, env.admin, env.seller.ID, permissions.ActionActivate)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, active.Status)
}

func TestChangeStatus_WritesAuditWithTransition(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.ChangeStatus(ctx, env.admin, env.buyer.ID, permissions.ActionBlock)
	require.NoError(t, err)

	page, err := env.audits.List(ctx, env.admin, AuditFilter{Actions: []string{"user.block"}}, 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	entry := page.Items[0]
	assert.Equal(t, env.admin.ID, entry.ActorID)
	assert.Equal(t, env.buyer.ID.String(), entry.SubjectID)
	assert.Contains(t, string(entry.Detail), "BLOCKED")
}

func TestEdit_PermissionsAndEmailUniqueness(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	updated, err := env.users.Edit(ctx, env.mod1, env.buyer.ID, "Renamed Buyer", "renamed@mercavio.test")
	require.NoError(t, err)
	assert.Equal(t, "Renamed Buyer", updated.Name)
	assert.Equal(t, "renamed@mercavio.test", updated.Email)

	_, err = env.users.Edit(ctx, env.admin, env.buyer.ID, "", "seller@mercavio.test")
	require.ErrorIs(t, err, models.ErrEmailTaken)

	// Moderators cannot edit staff; sellers cannot edit anyone.
	_, err = env.users.Edit(ctx, env.mod1, env.mod2.ID, "X", "")
	require.ErrorIs(t, err, models.ErrForbidden)
	_, err = env.users.Edit(ctx, env.seller, env.buyer.ID, "X", "")
	require.ErrorIs(t, err, models.ErrForbidden)

	// Only ACTIVE accounts are editable.
	_, err = env.users.ChangeStatus(ctx, env.admin, env.buyer.ID, permissions.ActionBlock)
	require.NoError(t, err)
	_, err = env.users.Edit(ctx, env.admin, env.buyer.ID, "Y", "")
	var is models.InvalidStateError
	require.ErrorAs(t, err, &is)
}

func TestUserList_BlockedUsersPaginate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seeder := env.stores.Users.(store.UserSeeder)

	for i := 0; i < 15; i++ {
		seeder.Put(models.User{
			ID:     uuid.New(),
			Name:   fmt.Sprintf("Blocked User %02d", i),
			Email:  fmt.Sprintf("blocked-%02d@mercavio.test", i),
			Role:   models.RoleBuyer,
			Status: models.StatusBlocked,
		})
	}

	p0, err := env.users.List(ctx, env.admin, UserFilter{
		Statuses: []models.AccountStatus{models.StatusBlocked},
	}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 15, p0.TotalItems)
	assert.Equal(t, 2, p0.TotalPages)
	require.Len(t, p0.Items, 10)
	assert.Equal(t, "Blocked User 00", p0.Items[0].Name)

	p1, err := env.users.List(ctx, env.admin, UserFilter{
		Statuses: []models.AccountStatus{models.StatusBlocked},
	}, 1, 10)
	require.NoError(t, err)
	require.Len(t, p1.Items, 5)
	assert.Equal(t, "Blocked User 10", p1.Items[0].Name)

	// A page past the end clamps to the last one.
	p9, err := env.users.List(ctx, env.admin, UserFilter{
		Statuses: []models.AccountStatus{models.StatusBlocked},
	}, 9, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, p9.Page)
	require.Len(t, p9.Items, 5)
}

func TestUserList_SearchAndRoleFilter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	page, err := env.users.List(ctx, env.mod1, UserFilter{Search: "moderator"}, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalItems)

	page, err = env.users.List(ctx, env.mod1, UserFilter{
		Roles:  []models.Role{models.RoleModerator},
		Search: "second",
	}, 0, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, env.mod2.ID, page.Items[0].ID)

	_, err = env.users.List(ctx, env.buyer, UserFilter{}, 0, 20)
	require.ErrorIs(t, err, models.ErrForbidden)
}

func TestUserGet_SelfOrStaff(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	got, err := env.users.Get(ctx, env.buyer, env.buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, env.buyer.ID, got.ID)

	_, err = env.users.Get(ctx, env.buyer, env.seller.ID)
	require.ErrorIs(t, err, models.ErrForbidden)

	got, err = env.users.Get(ctx, env.mod1, env.seller.ID)
	require.NoError(t, err)
	assert.Equal(t, env.seller.ID, got.ID)

	_, err = env.users.Get(ctx, env.admin, uuid.New())
	require.ErrorIs(t, err, models.ErrNotFound)
}
