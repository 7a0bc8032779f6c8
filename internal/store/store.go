// Package store is the persistence boundary of the moderation core.
// The gorm implementation is authoritative; the memory implementation
// backs tests and local development with the same contract, most
// importantly the linearizable claim check-and-set.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mercavio/marketplace-admin/internal/models"
)

// IncidenceStore persists moderation cases and their reports.
type IncidenceStore interface {
	// Create inserts a new incidence together with its first report.
	Create(ctx context.Context, inc *models.Incidence) error
	// AppendReport attaches one more report to an existing incidence.
	AppendReport(ctx context.Context, rep *models.Report) error
	// Get loads an incidence with its reports, or models.ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*models.Incidence, error)
	// FindOpenByPublication returns the non-final incidence aggregating
	// reports for a publication, or models.ErrNotFound.
	FindOpenByPublication(ctx context.Context, publicationID string) (*models.Incidence, error)
	// List returns all incidences with reports, oldest first.
	List(ctx context.Context) ([]models.Incidence, error)

	// Claim atomically takes the review lock for moderatorID. The
	// check-and-set happens at the store so two concurrent claims
	// never both win; the loser gets AlreadyHeldError. Re-claiming by
	// the current holder is an idempotent success.
	Claim(ctx context.Context, id, moderatorID uuid.UUID) (*models.Incidence, error)
	// Resolve applies a decision under the UNDER_REVIEW + owner guard,
	// clearing the assignment and recording the deciding moderator.
	Resolve(ctx context.Context, id, moderatorID uuid.UUID, decision models.Decision, comment string) (*models.Incidence, error)
	// EnqueueOpenBefore moves OPEN incidences created before cutoff to
	// PENDING_REVIEW and reports how many were moved.
	EnqueueOpenBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AppealStore persists second-pass reviews.
type AppealStore interface {
	// Create inserts the appeal and flips its incidence to APPEALED in
	// one transaction. Returns models.ErrNotEligible when the incidence
	// is not a resolved rejection and models.ErrDuplicateAppeal when an
	// appeal already exists.
	Create(ctx context.Context, appeal *models.Appeal) error
	Get(ctx context.Context, id uuid.UUID) (*models.Appeal, error)
	// FindByIncidence returns the appeal for an incidence, or models.ErrNotFound.
	FindByIncidence(ctx context.Context, incidenceID uuid.UUID) (*models.Appeal, error)
	List(ctx context.Context) ([]models.Appeal, error)
	// Assign moves PENDING -> ASSIGNED for moderatorID under a CAS guard.
	Assign(ctx context.Context, id, moderatorID uuid.UUID) (*models.Appeal, error)
	// MarkFailed moves PENDING -> FAILED_NO_MOD (terminal).
	MarkFailed(ctx context.Context, id uuid.UUID) (*models.Appeal, error)
	// Decide finishes the appeal and settles the underlying incidence
	// in one transaction: ACCEPTED flips its decision to APPROVED, and
	// either outcome returns it to RESOLVED.
	Decide(ctx context.Context, id, moderatorID uuid.UUID, decision models.AppealDecision, comment string) (*models.Appeal, error)
}

// UserStore persists marketplace accounts.
type UserStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	// ListActiveModerators returns ACTIVE moderators, oldest first.
	ListActiveModerators(ctx context.Context) ([]models.User, error)
	// UpdateStatus applies from -> to under a CAS guard on the current
	// status; a concurrent change surfaces as InvalidStateError.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.AccountStatus) (*models.User, error)
	// UpdateProfile edits display fields, leaving role and status alone.
	UpdateProfile(ctx context.Context, id uuid.UUID, name, email string) (*models.User, error)
}

// AuditStore appends and reads the moderation audit trail.
type AuditStore interface {
	Append(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context) ([]models.AuditLog, error)
}

// Stores bundles the four persistence seams a service needs.
type Stores struct {
	Incidences IncidenceStore
	Appeals    AppealStore
	Users      UserStore
	Audit      AuditStore
}
