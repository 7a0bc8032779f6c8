package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/mercavio/marketplace-admin/internal/models"
	"github.com/mercavio/marketplace-admin/internal/query"
	"github.com/mercavio/marketplace-admin/internal/store"
)

// auditWriter appends trail entries for successful state transitions.
// The trail is best-effort: a failed append is logged, never bubbled,
// because the transition it describes has already committed.
type auditWriter struct {
	store store.AuditStore
}

func (w *auditWriter) write(ctx context.Context, actor models.Actor, action, subjectType, subjectID string, detail map[string]interface{}) {
	entry := models.AuditLog{
		ActorID:     actor.ID,
		ActorRole:   actor.Role,
		Action:      action,
		SubjectType: subjectType,
		SubjectID:   subjectID,
	}
	if len(detail) > 0 {
		if b, err := json.Marshal(detail); err == nil {
			entry.Detail = datatypes.JSON(b)
		}
	}
	if err := w.store.Append(ctx, &entry); err != nil {
		slog.Error("audit append failed",
			"action", action,
			"subject_id", subjectID,
			"error", err)
	}
}

// AuditService exposes the trail to admins.
type AuditService struct {
	store store.AuditStore
}

func NewAuditService(stores store.Stores) *AuditService {
	return &AuditService{store: stores.Audit}
}

// AuditFilter narrows the trail listing.
type AuditFilter struct {
	Actions []string
	Search  string
	Dates   query.DateRange
}

func (s *AuditService) List(ctx context.Context, actor models.Actor, filter AuditFilter, page, size int) (query.Page[models.AuditLog], error) {
	if actor.Role != models.RoleAdmin {
		return query.Page[models.AuditLog]{}, models.ErrForbidden
	}
	entries, err := s.store.List(ctx)
	if err != nil {
		return query.Page[models.AuditLog]{}, err
	}
	return query.List(entries, page, size,
		query.OneOf(filter.Actions, func(e models.AuditLog) string { return e.Action }),
		query.TextSearch(filter.Search,
			func(e models.AuditLog) string { return e.SubjectID },
			func(e models.AuditLog) string { return e.ActorID.String() },
		),
		query.InRange(filter.Dates, func(e models.AuditLog) time.Time { return e.CreatedAt }),
	), nil
}
