package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mercavio/marketplace-admin/internal/models"
	"github.com/mercavio/marketplace-admin/internal/query"
	"github.com/mercavio/marketplace-admin/internal/store"
)

// IncidenceService runs the moderation case lifecycle: report
// aggregation, claim, decision. Every operation takes the acting user
// explicitly; there is no ambient identity.
type IncidenceService struct {
	stores store.Stores
	audit  *auditWriter
}

func NewIncidenceService(stores store.Stores) *IncidenceService {
	return &IncidenceService{stores: stores, audit: &auditWriter{store: stores.Audit}}
}

// ReportRequest is one complaint against a publication.
type ReportRequest struct {
	PublicationID string
	SellerID      uuid.UUID
	Reason        string
	Comment       string
}

// Report files a complaint. The first report against a publication
// opens a new incidence; later reports aggregate onto the open one.
func (s *IncidenceService) Report(ctx context.Context, actor models.Actor, req ReportRequest) (*models.Incidence, error) {
	if req.PublicationID == "" || req.Reason == "" {
		return nil, fmt.Errorf("%w: publication_id and reason are required", models.ErrInvalidArgument)
	}

	inc, err := s.stores.Incidences.FindOpenByPublication(ctx, req.PublicationID)
	switch {
	case err == nil:
		rep := models.Report{
			IncidenceID: inc.ID,
			ReporterID:  actor.ID,
			Reason:      req.Reason,
			Comment:     req.Comment,
		}
		if err := s.stores.Incidences.AppendReport(ctx, &rep); err != nil {
			return nil, err
		}
		return s.stores.Incidences.Get(ctx, inc.ID)
	case errors.Is(err, models.ErrNotFound):
		inc = &models.Incidence{
			PublicationID: req.PublicationID,
			SellerID:      req.SellerID,
			Status:        models.IncidenceOpen,
			Decision:      models.DecisionPending,
			Reports: []models.Report{{
				ReporterID: actor.ID,
				Reason:     req.Reason,
				Comment:    req.Comment,
			}},
		}
		if err := s.stores.Incidences.Create(ctx, inc); err != nil {
			return nil, err
		}
		return s.stores.Incidences.Get(ctx, inc.ID)
	default:
		return nil, err
	}
}

// Claim takes exclusive review ownership of an incidence. Contention is
// settled at the store; re-claiming by the holder is idempotent.
func (s *IncidenceService) Claim(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Incidence, error) {
	if !actor.IsStaff() {
		return nil, models.ErrForbidden
	}
	inc, err := s.stores.Incidences.Claim(ctx, id, actor.ID)
	if err != nil {
		return nil, err
	}
	s.audit.write(ctx, actor, "incidence.claim", "incidence", inc.ID.String(), map[string]interface{}{
		"status": inc.Status,
	})
	return inc, nil
}

// Decide rules on a claimed incidence. Only the holder may decide, only
// while UNDER_REVIEW, and only with a terminal decision.
func (s *IncidenceService) Decide(ctx context.Context, actor models.Actor, id uuid.UUID, decision models.Decision, comment string) (*models.Incidence, error) {
	if !actor.IsStaff() {
		return nil, models.ErrForbidden
	}
	if decision != models.DecisionApproved && decision != models.DecisionRejected {
		return nil, fmt.Errorf("%w: decision must be APPROVED or REJECTED", models.ErrInvalidArgument)
	}
	inc, err := s.stores.Incidences.Resolve(ctx, id, actor.ID, decision, comment)
	if err != nil {
		return nil, err
	}
	s.audit.write(ctx, actor, "incidence.decide", "incidence", inc.ID.String(), map[string]interface{}{
		"decision": decision,
		"comment":  comment,
	})
	return inc, nil
}

// EnqueueOpen moves OPEN incidences older than age into the review
// queue. Used by the background sweep and the admin endpoint.
func (s *IncidenceService) EnqueueOpen(ctx context.Context, age time.Duration) (int64, error) {
	return s.stores.Incidences.EnqueueOpenBefore(ctx, time.Now().UTC().Add(-age))
}

// IncidenceDateField selects which timestamp a date-range filter applies to.
type IncidenceDateField string

const (
	IncidenceDateCreated IncidenceDateField = "created"
	IncidenceDateDecided IncidenceDateField = "decided"
)

// IncidenceFilter is the read-model filter for incidence listings. All
// dimensions AND together; the text search ORs across publication id
// and moderator comment.
type IncidenceFilter struct {
	Statuses  []models.IncidenceStatus
	Search    string
	DateField IncidenceDateField
	Dates     query.DateRange
}

// List projects the incidence collection through filter into a page.
func (s *IncidenceService) List(ctx context.Context, actor models.Actor, filter IncidenceFilter, page, size int) (query.Page[models.Incidence], error) {
	if !actor.IsStaff() {
		return query.Page[models.Incidence]{}, models.ErrForbidden
	}
	incs, err := s.stores.Incidences.List(ctx)
	if err != nil {
		return query.Page[models.Incidence]{}, err
	}

	dateOf := func(inc models.Incidence) time.Time { return inc.CreatedAt }
	if filter.DateField == IncidenceDateDecided {
		dateOf = func(inc models.Incidence) time.Time {
			if inc.DecidedAt == nil {
				return time.Time{}
			}
			return *inc.DecidedAt
		}
	}

	return query.List(incs, page, size,
		query.OneOf(filter.Statuses, func(inc models.Incidence) models.IncidenceStatus { return inc.Status }),
		query.TextSearch(filter.Search,
			func(inc models.Incidence) string { return inc.PublicationID },
			func(inc models.Incidence) string { return inc.ModeratorComment },
		),
		query.InRange(filter.Dates, dateOf),
	), nil
}

// Get loads one incidence for a staff actor, or for the seller it concerns.
func (s *IncidenceService) Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Incidence, error) {
	inc, err := s.stores.Incidences.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && inc.SellerID != actor.ID {
		return nil, models.ErrForbidden
	}
	return inc, nil
}
