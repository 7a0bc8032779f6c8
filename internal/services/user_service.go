package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mercavio/marketplace-admin/internal/models"
	"github.com/mercavio/marketplace-admin/internal/permissions"
	"github.com/mercavio/marketplace-admin/internal/query"
	"github.com/mercavio/marketplace-admin/internal/store"
)

// UserService manages marketplace accounts. Every mutation runs through
// the permission matrix before any state is touched.
type UserService struct {
	stores store.Stores
	audit  *auditWriter
}

func NewUserService(stores store.Stores) *UserService {
	return &UserService{stores: stores, audit: &auditWriter{store: stores.Audit}}
}

// ChangeStatus applies block/unblock/activate/deactivate on the target
// account. The matrix decides first; the status transition itself is a
// CAS on the current status, so concurrent changes lose cleanly.
func (s *UserService) ChangeStatus(ctx context.Context, actor models.Actor, targetID uuid.UUID, action permissions.Action) (*models.User, error) {
	if action == permissions.ActionEdit || !action.Valid() {
		return nil, models.ErrForbidden
	}
	target, err := s.stores.Users.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := permissions.Check(actor, target, action); err != nil {
		return nil, err
	}

	updated, err := s.stores.Users.UpdateStatus(ctx, targetID, target.Status, permissions.NextStatus(target.Status, action))
	if err != nil {
		return nil, err
	}
	s.audit.write(ctx, actor, "user."+string(action), "user", targetID.String(), map[string]interface{}{
		"from": target.Status,
		"to":   updated.Status,
	})
	return updated, nil
}

// Edit updates display fields on the target account under the matrix's
// edit rule.
func (s *UserService) Edit(ctx context.Context, actor models.Actor, targetID uuid.UUID, name, email string) (*models.User, error) {
	target, err := s.stores.Users.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := permissions.Check(actor, target, permissions.ActionEdit); err != nil {
		return nil, err
	}

	updated, err := s.stores.Users.UpdateProfile(ctx, targetID, name, email)
	if err != nil {
		return nil, err
	}
	s.audit.write(ctx, actor, "user.edit", "user", targetID.String(), map[string]interface{}{
		"name":  name,
		"email": email,
	})
	return updated, nil
}

// UserFilter is the read-model filter for account listings.
type UserFilter struct {
	Roles    []models.Role
	Statuses []models.AccountStatus
	Search   string
	Dates    query.DateRange
}

func (s *UserService) List(ctx context.Context, actor models.Actor, filter UserFilter, page, size int) (query.Page[models.User], error) {
	if !actor.IsStaff() {
		return query.Page[models.User]{}, models.ErrForbidden
	}
	users, err := s.stores.Users.List(ctx)
	if err != nil {
		return query.Page[models.User]{}, err
	}
	return query.List(users, page, size,
		query.OneOf(filter.Roles, func(u models.User) models.Role { return u.Role }),
		query.OneOf(filter.Statuses, func(u models.User) models.AccountStatus { return u.Status }),
		query.TextSearch(filter.Search,
			func(u models.User) string { return u.Name },
			func(u models.User) string { return u.Email },
		),
		query.InRange(filter.Dates, func(u models.User) time.Time { return u.CreatedAt }),
	), nil
}

// Get loads one account for a staff actor.
func (s *UserService) Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.User, error) {
	if !actor.IsStaff() && actor.ID != id {
		return nil, models.ErrForbidden
	}
	return s.stores.Users.Get(ctx, id)
}
