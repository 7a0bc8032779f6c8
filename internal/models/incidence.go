package models

import (
	"time"

	"github.com/google/uuid"
)

// IncidenceStatus is the state of a moderation case.
type IncidenceStatus string

const (
	IncidenceOpen          IncidenceStatus = "OPEN"
	IncidencePendingReview IncidenceStatus = "PENDING_REVIEW"
	IncidenceUnderReview   IncidenceStatus = "UNDER_REVIEW"
	IncidenceAppealed      IncidenceStatus = "APPEALED"
	IncidenceResolved      IncidenceStatus = "RESOLVED"
)

func (s IncidenceStatus) Valid() bool {
	switch s {
	case IncidenceOpen, IncidencePendingReview, IncidenceUnderReview,
		IncidenceAppealed, IncidenceResolved:
		return true
	}
	return false
}

// Decision is a moderator's ruling on an incidence.
type Decision string

const (
	DecisionPending  Decision = "PENDING"
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
)

func (d Decision) Valid() bool {
	switch d {
	case DecisionPending, DecisionApproved, DecisionRejected:
		return true
	}
	return false
}

// Incidence is the aggregate moderation case opened against a
// publication once it accumulates one or more reports.
//
// AssignedModeratorID is set if and only if Status is UNDER_REVIEW: it
// doubles as the claim lock and is cleared on resolution. DecidedByID
// survives resolution so the appeal flow can exclude the original
// reviewer.
type Incidence struct {
	ID                  uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PublicationID       string          `gorm:"size:255;not null;index" json:"publication_id"`
	SellerID            uuid.UUID       `gorm:"type:uuid;not null;index" json:"seller_id"`
	Status              IncidenceStatus `gorm:"size:20;not null;default:'OPEN';index" json:"status"`
	Decision            Decision        `gorm:"size:20;not null;default:'PENDING'" json:"decision"`
	AssignedModeratorID *uuid.UUID      `gorm:"type:uuid;index" json:"assigned_moderator_id,omitempty"`
	DecidedByID         *uuid.UUID      `gorm:"type:uuid" json:"decided_by_id,omitempty"`
	ModeratorComment    string          `gorm:"size:2000" json:"moderator_comment,omitempty"`
	Reports             []Report        `gorm:"foreignKey:IncidenceID" json:"reports"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	DecidedAt           *time.Time      `json:"decided_at,omitempty"`
}

// Claimable reports whether the incidence currently admits a first
// claim. It does not cover the idempotent re-claim by the holder.
func (i *Incidence) Claimable() bool {
	return i.AssignedModeratorID == nil &&
		(i.Status == IncidenceOpen || i.Status == IncidencePendingReview)
}

// HeldBy reports whether moderatorID currently holds the claim.
func (i *Incidence) HeldBy(moderatorID uuid.UUID) bool {
	return i.AssignedModeratorID != nil && *i.AssignedModeratorID == moderatorID
}

// CanDecideBy validates the decide guard: UNDER_REVIEW and owned by the
// caller. Returns ErrNotOwner when someone else holds the claim and
// InvalidStateError otherwise.
func (i *Incidence) CanDecideBy(moderatorID uuid.UUID) error {
	if i.Status != IncidenceUnderReview {
		return InvalidStateError{Op: "decide", Status: string(i.Status)}
	}
	if !i.HeldBy(moderatorID) {
		return ErrNotOwner
	}
	return nil
}

// AppealableBy validates appeal eligibility for sellerID: the caller
// must own the reported publication and the case must be a resolved
// rejection. An already-APPEALED case reports the duplicate rather than
// mere ineligibility; the store's unique index backstops the race.
func (i *Incidence) AppealableBy(sellerID uuid.UUID) error {
	if i.SellerID != sellerID {
		return ErrForbidden
	}
	if i.Status == IncidenceAppealed {
		return ErrDuplicateAppeal
	}
	if i.Status != IncidenceResolved || i.Decision != DecisionRejected {
		return ErrNotEligible
	}
	return nil
}

// Open reports whether the case still accepts new reports.
func (i *Incidence) Open() bool {
	return i.Status != IncidenceResolved && i.Status != IncidenceAppealed
}
