package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditLog records every successful state transition performed through
// the moderation core: who did what to which resource, with the
// before/after detail as JSONB.
type AuditLog struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ActorID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"actor_id"`
	ActorRole   Role           `gorm:"size:20;not null" json:"actor_role"`
	Action      string         `gorm:"size:50;not null;index" json:"action"`
	SubjectType string         `gorm:"size:30;not null" json:"subject_type"`
	SubjectID   string         `gorm:"size:64;not null;index" json:"subject_id"`
	Detail      datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"detail"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}
