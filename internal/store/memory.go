package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mercavio/marketplace-admin/internal/models"
)

// NewMemory returns stores backed by process memory. A single mutex
// serializes every mutation, which makes the claim check-and-set
// linearizable just like the SQL implementation.
func NewMemory() Stores {
	m := &memory{
		incidences: map[uuid.UUID]*models.Incidence{},
		appeals:    map[uuid.UUID]*models.Appeal{},
		users:      map[uuid.UUID]*models.User{},
	}
	return Stores{
		Incidences: (*memIncidences)(m),
		Appeals:    (*memAppeals)(m),
		Users:      (*memUsers)(m),
		Audit:      (*memAudit)(m),
	}
}

type memory struct {
	mu         sync.Mutex
	incidences map[uuid.UUID]*models.Incidence
	appeals    map[uuid.UUID]*models.Appeal
	users      map[uuid.UUID]*models.User
	audit      []models.AuditLog
	seq        int64
}

// stamp hands out strictly increasing creation times so list order is
// deterministic even when entities are created within the same tick.
func (m *memory) stamp() time.Time {
	m.seq++
	return time.Unix(0, m.seq).UTC()
}

func copyIncidence(inc *models.Incidence) *models.Incidence {
	out := *inc
	if inc.AssignedModeratorID != nil {
		id := *inc.AssignedModeratorID
		out.AssignedModeratorID = &id
	}
	if inc.DecidedByID != nil {
		id := *inc.DecidedByID
		out.DecidedByID = &id
	}
	if inc.DecidedAt != nil {
		t := *inc.DecidedAt
		out.DecidedAt = &t
	}
	out.Reports = append([]models.Report(nil), inc.Reports...)
	return &out
}

func copyAppeal(a *models.Appeal) *models.Appeal {
	out := *a
	if a.NewModeratorID != nil {
		id := *a.NewModeratorID
		out.NewModeratorID = &id
	}
	if a.ReviewedAt != nil {
		t := *a.ReviewedAt
		out.ReviewedAt = &t
	}
	return &out
}

type memIncidences memory

func (m *memIncidences) Create(_ context.Context, inc *models.Incidence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inc.ID == uuid.Nil {
		inc.ID = uuid.New()
	}
	if inc.CreatedAt.IsZero() {
		inc.CreatedAt = (*memory)(m).stamp()
	}
	for i := range inc.Reports {
		if inc.Reports[i].ID == uuid.Nil {
			inc.Reports[i].ID = uuid.New()
		}
		inc.Reports[i].IncidenceID = inc.ID
		if inc.Reports[i].CreatedAt.IsZero() {
			inc.Reports[i].CreatedAt = (*memory)(m).stamp()
		}
	}
	m.incidences[inc.ID] = copyIncidence(inc)
	return nil
}

func (m *memIncidences) AppendReport(_ context.Context, rep *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc, ok := m.incidences[rep.IncidenceID]
	if !ok {
		return models.ErrNotFound
	}
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	if rep.CreatedAt.IsZero() {
		rep.CreatedAt = (*memory)(m).stamp()
	}
	inc.Reports = append(inc.Reports, *rep)
	return nil
}

func (m *memIncidences) Get(_ context.Context, id uuid.UUID) (*models.Incidence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc, ok := m.incidences[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return copyIncidence(inc), nil
}

func (m *memIncidences) FindOpenByPublication(_ context.Context, publicationID string) (*models.Incidence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inc := range m.incidences {
		if inc.PublicationID == publicationID && inc.Open() {
			return copyIncidence(inc), nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memIncidences) List(_ context.Context) ([]models.Incidence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Incidence, 0, len(m.incidences))
	for _, inc := range m.incidences {
		out = append(out, *copyIncidence(inc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memIncidences) Claim(_ context.Context, id, moderatorID uuid.UUID) (*models.Incidence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc, ok := m.incidences[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if inc.HeldBy(moderatorID) {
		return copyIncidence(inc), nil
	}
	if inc.AssignedModeratorID != nil {
		return nil, models.AlreadyHeldError{HolderID: *inc.AssignedModeratorID}
	}
	if !inc.Claimable() {
		return nil, models.NotClaimableError{Status: inc.Status}
	}
	mod := moderatorID
	inc.AssignedModeratorID = &mod
	inc.Status = models.IncidenceUnderReview
	return copyIncidence(inc), nil
}

func (m *memIncidences) Resolve(_ context.Context, id, moderatorID uuid.UUID, decision models.Decision, comment string) (*models.Incidence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc, ok := m.incidences[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if err := inc.CanDecideBy(moderatorID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	mod := moderatorID
	inc.Status = models.IncidenceResolved
	inc.Decision = decision
	inc.ModeratorComment = comment
	inc.AssignedModeratorID = nil
	inc.DecidedByID = &mod
	inc.DecidedAt = &now
	return copyIncidence(inc), nil
}

func (m *memIncidences) EnqueueOpenBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, inc := range m.incidences {
		if inc.Status == models.IncidenceOpen && inc.CreatedAt.Before(cutoff) {
			inc.Status = models.IncidencePendingReview
			n++
		}
	}
	return n, nil
}

type memAppeals memory

func (m *memAppeals) Create(_ context.Context, appeal *models.Appeal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc, ok := m.incidences[appeal.IncidenceID]
	if !ok {
		return models.ErrNotFound
	}
	for _, a := range m.appeals {
		if a.IncidenceID == appeal.IncidenceID {
			return models.ErrDuplicateAppeal
		}
	}
	if inc.Status == models.IncidenceAppealed {
		return models.ErrDuplicateAppeal
	}
	if inc.Status != models.IncidenceResolved || inc.Decision != models.DecisionRejected {
		return models.ErrNotEligible
	}
	if appeal.ID == uuid.Nil {
		appeal.ID = uuid.New()
	}
	if appeal.CreatedAt.IsZero() {
		appeal.CreatedAt = (*memory)(m).stamp()
	}
	appeal.Status = models.AppealPending
	appeal.FinalDecision = models.AppealDecisionPending
	inc.Status = models.IncidenceAppealed
	m.appeals[appeal.ID] = copyAppeal(appeal)
	return nil
}

func (m *memAppeals) Get(_ context.Context, id uuid.UUID) (*models.Appeal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	appeal, ok := m.appeals[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return copyAppeal(appeal), nil
}

func (m *memAppeals) FindByIncidence(_ context.Context, incidenceID uuid.UUID) (*models.Appeal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, appeal := range m.appeals {
		if appeal.IncidenceID == incidenceID {
			return copyAppeal(appeal), nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memAppeals) List(_ context.Context) ([]models.Appeal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Appeal, 0, len(m.appeals))
	for _, appeal := range m.appeals {
		out = append(out, *copyAppeal(appeal))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memAppeals) Assign(_ context.Context, id, moderatorID uuid.UUID) (*models.Appeal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	appeal, ok := m.appeals[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if !appeal.Assignable() {
		return nil, models.InvalidStateError{Op: "assign reviewer", Status: string(appeal.Status)}
	}
	mod := moderatorID
	appeal.Status = models.AppealAssigned
	appeal.NewModeratorID = &mod
	return copyAppeal(appeal), nil
}

func (m *memAppeals) MarkFailed(_ context.Context, id uuid.UUID) (*models.Appeal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	appeal, ok := m.appeals[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if !appeal.Assignable() {
		return nil, models.InvalidStateError{Op: "mark failed", Status: string(appeal.Status)}
	}
	appeal.Status = models.AppealFailedNoMod
	return copyAppeal(appeal), nil
}

func (m *memAppeals) Decide(_ context.Context, id, moderatorID uuid.UUID, decision models.AppealDecision, comment string) (*models.Appeal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	appeal, ok := m.appeals[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if err := appeal.CanDecideBy(moderatorID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	appeal.Status = models.AppealReviewed
	appeal.FinalDecision = decision
	appeal.Comment = comment
	appeal.ReviewedAt = &now

	if inc, ok := m.incidences[appeal.IncidenceID]; ok && inc.Status == models.IncidenceAppealed {
		inc.Status = models.IncidenceResolved
		if decision == models.AppealDecisionAccepted {
			inc.Decision = models.DecisionApproved
		}
	}
	return copyAppeal(appeal), nil
}

// UserSeeder is implemented by the memory user store so tests and local
// bootstrapping can insert accounts directly.
type UserSeeder interface {
	Put(user models.User)
}

type memUsers memory

func (m *memUsers) Get(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	u := *user
	return &u, nil
}

func (m *memUsers) List(_ context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.users))
	for _, user := range m.users {
		out = append(out, *user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memUsers) ListActiveModerators(ctx context.Context) ([]models.User, error) {
	users, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	out := users[:0]
	for _, u := range users {
		if u.Role == models.RoleModerator && u.Status == models.StatusActive {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUsers) UpdateStatus(_ context.Context, id uuid.UUID, from, to models.AccountStatus) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if user.Status != from {
		return nil, models.InvalidStateError{Op: "change status", Status: string(user.Status)}
	}
	user.Status = to
	u := *user
	return &u, nil
}

func (m *memUsers) UpdateProfile(_ context.Context, id uuid.UUID, name, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if email != "" {
		for _, other := range m.users {
			if other.ID != id && other.Email == email {
				return nil, models.ErrEmailTaken
			}
		}
		user.Email = email
	}
	if name != "" {
		user.Name = name
	}
	u := *user
	return &u, nil
}

// Put seeds a user. Intended for tests and local bootstrapping.
func (m *memUsers) Put(user models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = (*memory)(m).stamp()
	}
	u := user
	m.users[user.ID] = &u
}

type memAudit memory

func (m *memAudit) Append(_ context.Context, entry *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = (*memory)(m).stamp()
	}
	m.audit = append(m.audit, *entry)
	return nil
}

func (m *memAudit) List(_ context.Context) ([]models.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.AuditLog(nil), m.audit...), nil
}
