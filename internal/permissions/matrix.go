// Package permissions implements the deny-by-default authorization
// matrix for account management actions. It is pure: no store access,
// no ambient actor state.
package permissions

import (
	"github.com/mercavio/marketplace-admin/internal/models"
)

// Action is an account management action subject to the matrix.
type Action string

const (
	ActionEdit       Action = "edit"
	ActionBlock      Action = "block"
	ActionUnblock    Action = "unblock"
	ActionDeactivate Action = "deactivate"
	ActionActivate   Action = "activate"
)

func (a Action) Valid() bool {
	switch a {
	case ActionEdit, ActionBlock, ActionUnblock, ActionDeactivate, ActionActivate:
		return true
	}
	return false
}

// CanPerform decides whether actor may perform action on target.
// Acting on yourself is vetoed unconditionally; unknown combinations
// deny.
func CanPerform(actor models.Actor, target *models.User, action Action) bool {
	return Check(actor, target, action) == nil
}

// Check is CanPerform with the reason split out: ErrForbidden when the
// actor's role (or self-action) rules it out, InvalidStateError when
// only the target's current status stands in the way. The distinction
// lets callers answer "you may never do this" differently from "not in
// this state".
func Check(actor models.Actor, target *models.User, action Action) error {
	if actor.ID == target.ID {
		return models.ErrForbidden
	}
	if !roleMayAct(actor.Role, target.Role, action) {
		return models.ErrForbidden
	}
	if !statusPermits(target.Status, action) {
		return models.InvalidStateError{Op: string(action), Status: string(target.Status)}
	}
	return nil
}

// roleMayAct encodes the actor-role side of the matrix. Moderators
// manage buyers and sellers only; moderator targets are admin
// territory; admin targets can never be blocked by anyone.
func roleMayAct(actor, target models.Role, action Action) bool {
	switch actor {
	case models.RoleAdmin:
		switch action {
		case ActionBlock:
			return target != models.RoleAdmin
		case ActionEdit, ActionUnblock, ActionDeactivate, ActionActivate:
			return true
		}
		return false
	case models.RoleModerator:
		if target != models.RoleBuyer && target != models.RoleSeller {
			return false
		}
		switch action {
		case ActionEdit, ActionBlock, ActionUnblock:
			return true
		case ActionDeactivate, ActionActivate:
			return false
		}
		return false
	case models.RoleBuyer, models.RoleSeller:
		return false
	}
	return false
}

// statusPermits encodes the target-status side of the matrix.
func statusPermits(status models.AccountStatus, action Action) bool {
	switch action {
	case ActionEdit, ActionBlock, ActionDeactivate:
		return status == models.StatusActive
	case ActionUnblock:
		return status == models.StatusBlocked
	case ActionActivate:
		return status == models.StatusInactive
	}
	return false
}

// NextStatus returns the account status resulting from action. Edit
// leaves the status untouched.
func NextStatus(current models.AccountStatus, action Action) models.AccountStatus {
	switch action {
	case ActionBlock:
		return models.StatusBlocked
	case ActionUnblock, ActionActivate:
		return models.StatusActive
	case ActionDeactivate:
		return models.StatusInactive
	}
	return current
}
