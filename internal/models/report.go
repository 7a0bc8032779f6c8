package models

import (
	"time"

	"github.com/google/uuid"
)

// Report is a single complaint against a publication. Immutable once
// created and owned by exactly one incidence.
type Report struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	IncidenceID uuid.UUID `gorm:"type:uuid;not null;index" json:"incidence_id"`
	ReporterID  uuid.UUID `gorm:"type:uuid;not null;index" json:"reporter_id"`
	Reason      string    `gorm:"not null;size:100" json:"reason"`
	Comment     string    `gorm:"size:1000" json:"comment,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
