package models

import (
	"time"

	"github.com/google/uuid"
)

// AppealStatus is the state of a second-pass review request.
// FAILED_NO_MOD is terminal and only recoverable by a manual admin
// workflow outside this service.
type AppealStatus string

const (
	AppealPending     AppealStatus = "PENDING"
	AppealAssigned    AppealStatus = "ASSIGNED"
	AppealFailedNoMod AppealStatus = "FAILED_NO_MOD"
	AppealReviewed    AppealStatus = "REVIEWED"
)

func (s AppealStatus) Valid() bool {
	switch s {
	case AppealPending, AppealAssigned, AppealFailedNoMod, AppealReviewed:
		return true
	}
	return false
}

// AppealDecision is the final ruling of the second reviewer.
type AppealDecision string

const (
	AppealDecisionPending  AppealDecision = "PENDING"
	AppealDecisionAccepted AppealDecision = "ACCEPTED"
	AppealDecisionRejected AppealDecision = "REJECTED"
)

func (d AppealDecision) Valid() bool {
	switch d {
	case AppealDecisionPending, AppealDecisionAccepted, AppealDecisionRejected:
		return true
	}
	return false
}

// Appeal is a seller-initiated second-pass review of a rejected
// incidence decision, handled by a different moderator than the
// original. At most one appeal exists per incidence (unique index).
type Appeal struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	IncidenceID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"incidence_id"`
	SellerID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"seller_id"`
	Reason         string         `gorm:"size:1000" json:"reason"`
	Status         AppealStatus   `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	FinalDecision  AppealDecision `gorm:"size:20;not null;default:'PENDING'" json:"final_decision"`
	NewModeratorID *uuid.UUID     `gorm:"type:uuid" json:"new_moderator_id,omitempty"`
	Comment        string         `gorm:"size:2000" json:"comment,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	ReviewedAt     *time.Time     `json:"reviewed_at,omitempty"`
}

// CanDecideBy validates the appeal decision guard: ASSIGNED and owned
// by the second reviewer.
func (a *Appeal) CanDecideBy(moderatorID uuid.UUID) error {
	if a.Status != AppealAssigned {
		return InvalidStateError{Op: "decide appeal", Status: string(a.Status)}
	}
	if a.NewModeratorID == nil || *a.NewModeratorID != moderatorID {
		return ErrNotOwner
	}
	return nil
}

// Assignable reports whether the appeal still awaits a reviewer.
func (a *Appeal) Assignable() bool {
	return a.Status == AppealPending
}
