package permissions

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercavio/marketplace-admin/internal/models"
)

var (
	allRoles    = []models.Role{models.RoleAdmin, models.RoleModerator, models.RoleBuyer, models.RoleSeller}
	allStatuses = []models.AccountStatus{
		models.StatusPendingVerification, models.StatusActive,
		models.StatusInactive, models.StatusBlocked,
	}
	allActions = []Action{ActionEdit, ActionBlock, ActionUnblock, ActionDeactivate, ActionActivate}
)

// expected re-states the authorization table independently of the
// implementation so the full cross-product can be checked against it.
func expected(actor, target models.Role, status models.AccountStatus, action Action) bool {
	if actor == models.RoleBuyer || actor == models.RoleSeller {
		return false
	}
	// Moderators manage buyers and sellers only, and never the
	// admin-only status transitions.
	if actor == models.RoleModerator {
		if target == models.RoleAdmin || target == models.RoleModerator {
			return false
		}
		if action == ActionDeactivate || action == ActionActivate {
			return false
		}
	}
	switch action {
	case ActionEdit, ActionDeactivate:
		return status == models.StatusActive
	case ActionBlock:
		return status == models.StatusActive && target != models.RoleAdmin
	case ActionUnblock:
		return status == models.StatusBlocked
	case ActionActivate:
		return status == models.StatusInactive
	}
	return false
}

func TestCanPerform_FullCrossProduct(t *testing.T) {
	for _, actorRole := range allRoles {
		for _, targetRole := range allRoles {
			for _, status := range allStatuses {
				for _, action := range allActions {
					actor := models.Actor{ID: uuid.New(), Role: actorRole}
					target := &models.User{ID: uuid.New(), Role: targetRole, Status: status}

					got := CanPerform(actor, target, action)
					want := expected(actorRole, targetRole, status, action)
					assert.Equal(t, want, got,
						fmt.Sprintf("%s %s on %s/%s", actorRole, action, targetRole, status))
				}
			}
		}
	}
}

func TestCanPerform_SelfIsAlwaysDenied(t *testing.T) {
	id := uuid.New()
	for _, role := range allRoles {
		for _, status := range allStatuses {
			for _, action := range allActions {
				actor := models.Actor{ID: id, Role: role}
				target := &models.User{ID: id, Role: role, Status: status}
				assert.False(t, CanPerform(actor, target, action),
					fmt.Sprintf("self %s as %s/%s must be denied", action, role, status))
			}
		}
	}
}

func TestCanPerform_AdminsCannotBeBlockedByAnyone(t *testing.T) {
	target := &models.User{ID: uuid.New(), Role: models.RoleAdmin, Status: models.StatusActive}
	for _, role := range allRoles {
		actor := models.Actor{ID: uuid.New(), Role: role}
		assert.False(t, CanPerform(actor, target, ActionBlock), string(role))
	}
}

func TestCanPerform_UnknownInputsDeny(t *testing.T) {
	actor := models.Actor{ID: uuid.New(), Role: models.RoleAdmin}
	target := &models.User{ID: uuid.New(), Role: models.RoleBuyer, Status: models.StatusActive}

	assert.False(t, CanPerform(actor, target, Action("delete")))
	assert.False(t, CanPerform(models.Actor{ID: uuid.New(), Role: models.Role("ROOT")}, target, ActionBlock))
	assert.False(t, CanPerform(actor, &models.User{ID: uuid.New(), Role: models.RoleBuyer, Status: models.AccountStatus("GONE")}, ActionBlock))
}

func TestCheck_SplitsForbiddenFromInvalidState(t *testing.T) {
	admin := models.Actor{ID: uuid.New(), Role: models.RoleAdmin}
	mod := models.Actor{ID: uuid.New(), Role: models.RoleModerator}

	// Role violation: moderator acting on a moderator.
	err := Check(mod, &models.User{ID: uuid.New(), Role: models.RoleModerator, Status: models.StatusActive}, ActionBlock)
	require.ErrorIs(t, err, models.ErrForbidden)

	// Status violation: blocking an already blocked buyer.
	err = Check(admin, &models.User{ID: uuid.New(), Role: models.RoleBuyer, Status: models.StatusBlocked}, ActionBlock)
	var is models.InvalidStateError
	require.ErrorAs(t, err, &is)
}

func TestNextStatus(t *testing.T) {
	assert.Equal(t, models.StatusBlocked, NextStatus(models.StatusActive, ActionBlock))
	assert.Equal(t, models.StatusActive, NextStatus(models.StatusBlocked, ActionUnblock))
	assert.Equal(t, models.StatusInactive, NextStatus(models.StatusActive, ActionDeactivate))
	assert.Equal(t, models.StatusActive, NextStatus(models.StatusInactive, ActionActivate))
	assert.Equal(t, models.StatusActive, NextStatus(models.StatusActive, ActionEdit))
}
