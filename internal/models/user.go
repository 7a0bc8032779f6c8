package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the primary role of an account. Users may carry extra role
// tags elsewhere, but authorization only ever looks at this one, with
// precedence ADMIN > MODERATOR > BUYER/SELLER.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleModerator Role = "MODERATOR"
	RoleBuyer     Role = "BUYER"
	RoleSeller    Role = "SELLER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleBuyer, RoleSeller:
		return true
	}
	return false
}

// AccountStatus is the lifecycle state of an account.
// PENDING_VERIFICATION accounts are untouchable until verified;
// BLOCKED and INACTIVE are mutually exclusive.
type AccountStatus string

const (
	StatusPendingVerification AccountStatus = "PENDING_VERIFICATION"
	StatusActive              AccountStatus = "ACTIVE"
	StatusInactive            AccountStatus = "INACTIVE"
	StatusBlocked             AccountStatus = "BLOCKED"
)

func (s AccountStatus) Valid() bool {
	switch s {
	case StatusPendingVerification, StatusActive, StatusInactive, StatusBlocked:
		return true
	}
	return false
}

type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Email     string         `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Role      Role           `gorm:"size:20;not null;default:'BUYER'" json:"role"`
	Status    AccountStatus  `gorm:"size:30;not null;default:'PENDING_VERIFICATION';index" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Actor is the authenticated caller of a core operation, resolved from
// the identity provider's token and threaded explicitly through every
// service call.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// IsStaff reports whether the actor may see the moderation surface at all.
func (a Actor) IsStaff() bool {
	return a.Role == RoleAdmin || a.Role == RoleModerator
}
