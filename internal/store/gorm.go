package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercavio/marketplace-admin/internal/models"
)

// NewGorm wires the PostgreSQL-backed stores over a shared gorm handle.
func NewGorm(db *gorm.DB) Stores {
	return Stores{
		Incidences: &gormIncidences{db: db},
		Appeals:    &gormAppeals{db: db},
		Users:      &gormUsers{db: db},
		Audit:      &gormAudit{db: db},
	}
}

func sysErr(err error) error {
	return models.SystemError{Err: err}
}

type gormIncidences struct {
	db *gorm.DB
}

func (s *gormIncidences) Create(ctx context.Context, inc *models.Incidence) error {
	if err := s.db.WithContext(ctx).Create(inc).Error; err != nil {
		return sysErr(err)
	}
	return nil
}

func (s *gormIncidences) AppendReport(ctx context.Context, rep *models.Report) error {
	if err := s.db.WithContext(ctx).Create(rep).Error; err != nil {
		return sysErr(err)
	}
	return nil
}

func (s *gormIncidences) Get(ctx context.Context, id uuid.UUID) (*models.Incidence, error) {
	var inc models.Incidence
	err := s.db.WithContext(ctx).
		Preload("Reports", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&inc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, sysErr(err)
	}
	return &inc, nil
}

func (s *gormIncidences) FindOpenByPublication(ctx context.Context, publicationID string) (*models.Incidence, error) {
	var inc models.Incidence
	err := s.db.WithContext(ctx).
		Preload("Reports").
		Where("publication_id = ? AND status NOT IN ?", publicationID,
			[]models.IncidenceStatus{models.IncidenceResolved, models.IncidenceAppealed}).
		First(&inc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, sysErr(err)
	}
	return &inc, nil
}

func (s *gormIncidences) List(ctx context.Context) ([]models.Incidence, error) {
	var incs []models.Incidence
	err := s.db.WithContext(ctx).
		Preload("Reports", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Order("created_at ASC").
		Find(&incs).Error
	if err != nil {
		return nil, sysErr(err)
	}
	return incs, nil
}

// Claim is the one genuinely concurrent operation in the system: the
// conditional UPDATE is the lock acquisition, so two simultaneous
// claims resolve to exactly one winner at the database.
func (s *gormIncidences) Claim(ctx context.Context, id, moderatorID uuid.UUID) (*models.Incidence, error) {
	res := s.db.WithContext(ctx).Model(&models.Incidence{}).
		Where("id = ? AND assigned_moderator_id IS NULL AND status IN ?", id,
			[]models.IncidenceStatus{models.IncidenceOpen, models.IncidencePendingReview}).
		Updates(map[string]interface{}{
			"assigned_moderator_id": moderatorID,
			"status":                models.IncidenceUnderReview,
		})
	if res.Error != nil {
		return nil, sysErr(res.Error)
	}

	inc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected > 0 {
		return inc, nil
	}

	// CAS lost: classify against the current row.
	if inc.HeldBy(moderatorID) {
		return inc, nil
	}
	if inc.AssignedModeratorID != nil {
		return nil, models.AlreadyHeldError{HolderID: *inc.AssignedModeratorID}
	}
	return nil, models.NotClaimableError{Status: inc.Status}
}

func (s *gormIncidences) Resolve(ctx context.Context, id, moderatorID uuid.UUID, decision models.Decision, comment string) (*models.Incidence, error) {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&models.Incidence{}).
		Where("id = ? AND status = ? AND assigned_moderator_id = ?",
			id, models.IncidenceUnderReview, moderatorID).
		Updates(map[string]interface{}{
			"status":                models.IncidenceResolved,
			"decision":              decision,
			"moderator_comment":     comment,
			"assigned_moderator_id": nil,
			"decided_by_id":         moderatorID,
			"decided_at":            now,
		})
	if res.Error != nil {
		return nil, sysErr(res.Error)
	}

	inc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected > 0 {
		return inc, nil
	}
	if err := inc.CanDecideBy(moderatorID); err != nil {
		return nil, err
	}
	// Guard passed on the re-read but the UPDATE matched nothing: a
	// concurrent change slipped in between. Surface it as a conflict.
	return nil, models.InvalidStateError{Op: "decide", Status: string(inc.Status)}
}

func (s *gormIncidences) EnqueueOpenBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Incidence{}).
		Where("status = ? AND created_at < ?", models.IncidenceOpen, cutoff).
		Update("status", models.IncidencePendingReview)
	if res.Error != nil {
		return 0, sysErr(res.Error)
	}
	return res.RowsAffected, nil
}

type gormAppeals struct {
	db *gorm.DB
}

func (s *gormAppeals) Create(ctx context.Context, appeal *models.Appeal) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Incidence{}).
			Where("id = ? AND status = ? AND decision = ?",
				appeal.IncidenceID, models.IncidenceResolved, models.DecisionRejected).
			Update("status", models.IncidenceAppealed)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Either the incidence is gone, or it is not a resolved
			// rejection, or it is already APPEALED.
			var inc models.Incidence
			if err := tx.First(&inc, "id = ?", appeal.IncidenceID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.ErrNotFound
				}
				return err
			}
			if inc.Status == models.IncidenceAppealed {
				return models.ErrDuplicateAppeal
			}
			return models.ErrNotEligible
		}
		return tx.Create(appeal).Error
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return models.ErrDuplicateAppeal
	}
	if models.IsBusinessError(err) {
		return err
	}
	return sysErr(err)
}

func (s *gormAppeals) Get(ctx context.Context, id uuid.UUID) (*models.Appeal, error) {
	var appeal models.Appeal
	err := s.db.WithContext(ctx).First(&appeal, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, sysErr(err)
	}
	return &appeal, nil
}

func (s *gormAppeals) FindByIncidence(ctx context.Context, incidenceID uuid.UUID) (*models.Appeal, error) {
	var appeal models.Appeal
	err := s.db.WithContext(ctx).First(&appeal, "incidence_id = ?", incidenceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, sysErr(err)
	}
	return &appeal, nil
}

func (s *gormAppeals) List(ctx context.Context) ([]models.Appeal, error) {
	var appeals []models.Appeal
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&appeals).Error; err != nil {
		return nil, sysErr(err)
	}
	return appeals, nil
}

func (s *gormAppeals) Assign(ctx context.Context, id, moderatorID uuid.UUID) (*models.Appeal, error) {
	res := s.db.WithContext(ctx).Model(&models.Appeal{}).
		Where("id = ? AND status = ?", id, models.AppealPending).
		Updates(map[string]interface{}{
			"status":           models.AppealAssigned,
			"new_moderator_id": moderatorID,
		})
	if res.Error != nil {
		return nil, sysErr(res.Error)
	}

	appeal, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, models.InvalidStateError{Op: "assign reviewer", Status: string(appeal.Status)}
	}
	return appeal, nil
}

func (s *gormAppeals) MarkFailed(ctx context.Context, id uuid.UUID) (*models.Appeal, error) {
	res := s.db.WithContext(ctx).Model(&models.Appeal{}).
		Where("id = ? AND status = ?", id, models.AppealPending).
		Update("status", models.AppealFailedNoMod)
	if res.Error != nil {
		return nil, sysErr(res.Error)
	}

	appeal, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, models.InvalidStateError{Op: "mark failed", Status: string(appeal.Status)}
	}
	return appeal, nil
}

func (s *gormAppeals) Decide(ctx context.Context, id, moderatorID uuid.UUID, decision models.AppealDecision, comment string) (*models.Appeal, error) {
	now := time.Now().UTC()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Appeal{}).
			Where("id = ? AND status = ? AND new_moderator_id = ?",
				id, models.AppealAssigned, moderatorID).
			Updates(map[string]interface{}{
				"status":         models.AppealReviewed,
				"final_decision": decision,
				"comment":        comment,
				"reviewed_at":    now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var appeal models.Appeal
			if err := tx.First(&appeal, "id = ?", id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.ErrNotFound
				}
				return err
			}
			return appeal.CanDecideBy(moderatorID)
		}

		var appeal models.Appeal
		if err := tx.First(&appeal, "id = ?", id).Error; err != nil {
			return err
		}

		// Settle the underlying incidence: an accepted appeal overturns
		// the rejection, either way the case returns to RESOLVED.
		updates := map[string]interface{}{"status": models.IncidenceResolved}
		if decision == models.AppealDecisionAccepted {
			updates["decision"] = models.DecisionApproved
		}
		return tx.Model(&models.Incidence{}).
			Where("id = ? AND status = ?", appeal.IncidenceID, models.IncidenceAppealed).
			Updates(updates).Error
	})
	if err != nil {
		if models.IsBusinessError(err) {
			return nil, err
		}
		return nil, sysErr(err)
	}
	return s.Get(ctx, id)
}

type gormUsers struct {
	db *gorm.DB
}

func (s *gormUsers) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, sysErr(err)
	}
	return &user, nil
}

func (s *gormUsers) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, sysErr(err)
	}
	return users, nil
}

func (s *gormUsers) ListActiveModerators(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("role = ? AND status = ?", models.RoleModerator, models.StatusActive).
		Order("created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, sysErr(err)
	}
	return users, nil
}

func (s *gormUsers) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.AccountStatus) (*models.User, error) {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return nil, sysErr(res.Error)
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, models.InvalidStateError{Op: "change status", Status: string(user.Status)}
	}
	return user, nil
}

func (s *gormUsers) UpdateProfile(ctx context.Context, id uuid.UUID, name, email string) (*models.User, error) {
	updates := map[string]interface{}{}
	if name != "" {
		updates["name"] = name
	}
	if email != "" {
		updates["email"] = email
	}
	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&models.User{}).
			Where("id = ?", id).
			Updates(updates)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return nil, models.ErrEmailTaken
			}
			return nil, sysErr(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, models.ErrNotFound
		}
	}
	return s.Get(ctx, id)
}

type gormAudit struct {
	db *gorm.DB
}

func (s *gormAudit) Append(ctx context.Context, entry *models.AuditLog) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return sysErr(err)
	}
	return nil
}

func (s *gormAudit) List(ctx context.Context) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&entries).Error; err != nil {
		return nil, sysErr(err)
	}
	return entries, nil
}
