package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mercavio/marketplace-admin/internal/models"
	"github.com/mercavio/marketplace-admin/internal/query"
	"github.com/mercavio/marketplace-admin/internal/store"
)

// AppealService runs the second-pass review of rejected incidence
// decisions. The hard rule throughout: the second reviewer must not be
// the moderator who made the original call.
type AppealService struct {
	stores store.Stores
	audit  *auditWriter
}

func NewAppealService(stores store.Stores) *AppealService {
	return &AppealService{stores: stores, audit: &auditWriter{store: stores.Audit}}
}

// Create opens an appeal. Only the seller of the reported publication
// may appeal, only against a resolved rejection, and only once per
// incidence. The incidence moves to APPEALED in the same transaction.
func (s *AppealService) Create(ctx context.Context, actor models.Actor, incidenceID uuid.UUID, reason string) (*models.Appeal, error) {
	inc, err := s.stores.Incidences.Get(ctx, incidenceID)
	if err != nil {
		return nil, err
	}
	if err := inc.AppealableBy(actor.ID); err != nil {
		return nil, err
	}

	appeal := &models.Appeal{
		IncidenceID:   incidenceID,
		SellerID:      actor.ID,
		Reason:        reason,
		Status:        models.AppealPending,
		FinalDecision: models.AppealDecisionPending,
	}
	if err := s.stores.Appeals.Create(ctx, appeal); err != nil {
		return nil, err
	}
	s.audit.write(ctx, actor, "appeal.create", "appeal", appeal.ID.String(), map[string]interface{}{
		"incidence_id": incidenceID.String(),
	})
	return appeal, nil
}

// Assign puts a specific moderator on the appeal. Admin only; the
// reviewer must be an active moderator and must differ from whoever
// decided the incidence the first time.
func (s *AppealService) Assign(ctx context.Context, actor models.Actor, appealID, moderatorID uuid.UUID) (*models.Appeal, error) {
	if actor.Role != models.RoleAdmin {
		return nil, models.ErrForbidden
	}
	appeal, err := s.stores.Appeals.Get(ctx, appealID)
	if err != nil {
		return nil, err
	}
	if err := s.checkReviewer(ctx, appeal, moderatorID); err != nil {
		return nil, err
	}

	appeal, err = s.stores.Appeals.Assign(ctx, appealID, moderatorID)
	if err != nil {
		return nil, err
	}
	s.audit.write(ctx, actor, "appeal.assign", "appeal", appeal.ID.String(), map[string]interface{}{
		"moderator_id": moderatorID.String(),
	})
	return appeal, nil
}

// AutoAssign picks the first eligible active moderator. When none
// exists the appeal lands in FAILED_NO_MOD, a terminal state requiring
// manual admin intervention.
func (s *AppealService) AutoAssign(ctx context.Context, actor models.Actor, appealID uuid.UUID) (*models.Appeal, error) {
	if actor.Role != models.RoleAdmin {
		return nil, models.ErrForbidden
	}
	appeal, err := s.stores.Appeals.Get(ctx, appealID)
	if err != nil {
		return nil, err
	}
	if !appeal.Assignable() {
		return nil, models.InvalidStateError{Op: "assign reviewer", Status: string(appeal.Status)}
	}

	previous, err := s.previousReviewer(ctx, appeal)
	if err != nil {
		return nil, err
	}
	mods, err := s.stores.Users.ListActiveModerators(ctx)
	if err != nil {
		return nil, err
	}
	for _, mod := range mods {
		if previous != nil && mod.ID == *previous {
			continue
		}
		assigned, err := s.stores.Appeals.Assign(ctx, appealID, mod.ID)
		if err != nil {
			return nil, err
		}
		s.audit.write(ctx, actor, "appeal.assign", "appeal", assigned.ID.String(), map[string]interface{}{
			"moderator_id": mod.ID.String(),
			"auto":         true,
		})
		return assigned, nil
	}

	failed, err := s.stores.Appeals.MarkFailed(ctx, appealID)
	if err != nil {
		return nil, err
	}
	s.audit.write(ctx, actor, "appeal.fail_no_mod", "appeal", failed.ID.String(), nil)
	return failed, nil
}

// Decide settles the appeal. Only the assigned reviewer may rule, only
// while ASSIGNED, with a terminal decision. An accepted appeal
// overturns the original rejection.
func (s *AppealService) Decide(ctx context.Context, actor models.Actor, appealID uuid.UUID, decision models.AppealDecision, comment string) (*models.Appeal, error) {
	if !actor.IsStaff() {
		return nil, models.ErrForbidden
	}
	if decision != models.AppealDecisionAccepted && decision != models.AppealDecisionRejected {
		return nil, fmt.Errorf("%w: decision must be ACCEPTED or REJECTED", models.ErrInvalidArgument)
	}
	appeal, err := s.stores.Appeals.Decide(ctx, appealID, actor.ID, decision, comment)
	if err != nil {
		return nil, err
	}
	s.audit.write(ctx, actor, "appeal.decide", "appeal", appeal.ID.String(), map[string]interface{}{
		"final_decision": decision,
		"comment":        comment,
	})
	return appeal, nil
}

// GetByIncidence returns the appeal attached to an incidence, visible
// to staff and to the seller the case concerns.
func (s *AppealService) GetByIncidence(ctx context.Context, actor models.Actor, incidenceID uuid.UUID) (*models.Appeal, error) {
	inc, err := s.stores.Incidences.Get(ctx, incidenceID)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && inc.SellerID != actor.ID {
		return nil, models.ErrForbidden
	}
	return s.stores.Appeals.FindByIncidence(ctx, incidenceID)
}

// AppealFilter is the read-model filter for appeal listings.
type AppealFilter struct {
	Statuses []models.AppealStatus
	Search   string
	Dates    query.DateRange
}

func (s *AppealService) List(ctx context.Context, actor models.Actor, filter AppealFilter, page, size int) (query.Page[models.Appeal], error) {
	if !actor.IsStaff() {
		return query.Page[models.Appeal]{}, models.ErrForbidden
	}
	appeals, err := s.stores.Appeals.List(ctx)
	if err != nil {
		return query.Page[models.Appeal]{}, err
	}
	return query.List(appeals, page, size,
		query.OneOf(filter.Statuses, func(a models.Appeal) models.AppealStatus { return a.Status }),
		query.TextSearch(filter.Search,
			func(a models.Appeal) string { return a.IncidenceID.String() },
			func(a models.Appeal) string { return a.Reason },
		),
		query.InRange(filter.Dates, func(a models.Appeal) time.Time { return a.CreatedAt }),
	), nil
}

// checkReviewer enforces reviewer eligibility for explicit assignment.
func (s *AppealService) checkReviewer(ctx context.Context, appeal *models.Appeal, moderatorID uuid.UUID) error {
	previous, err := s.previousReviewer(ctx, appeal)
	if err != nil {
		return err
	}
	if previous != nil && *previous == moderatorID {
		return fmt.Errorf("%w: reviewer must differ from the original moderator", models.ErrInvalidArgument)
	}

	mod, err := s.stores.Users.Get(ctx, moderatorID)
	if err != nil {
		return err
	}
	if mod.Role != models.RoleModerator || mod.Status != models.StatusActive {
		return fmt.Errorf("%w: reviewer must be an active moderator", models.ErrInvalidArgument)
	}
	return nil
}

// previousReviewer returns who decided the underlying incidence.
func (s *AppealService) previousReviewer(ctx context.Context, appeal *models.Appeal) (*uuid.UUID, error) {
	inc, err := s.stores.Incidences.Get(ctx, appeal.IncidenceID)
	if err != nil {
		return nil, err
	}
	return inc.DecidedByID, nil
}
