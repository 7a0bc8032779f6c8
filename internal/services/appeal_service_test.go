package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercavio/marketplace-admin/internal/models"
	"github.com/mercavio/marketplace-admin/internal/store"
)

// rejectedIncidence drives an incidence through claim and rejection by
// mod1 so the seller has something to appeal.
func rejectedIncidence(t *testing.T, env *testEnv, pub string) *models.Incidence {
	t.Helper()
	ctx := context.Background()
	inc := env.report(t, env.buyer, pub)
	_, err := env.incidences.Claim(ctx, env.mod1, inc.ID)
	require.NoError(t, err)
	inc, err = env.incidences.Decide(ctx, env.mod1, inc.ID, models.DecisionRejected, "policy violation")
	require.NoError(t, err)
	return inc
}

func TestAppealCreate_OnlyTheSellerMayAppeal(t *testing.T) {
	env := newTestEnv(t)
	inc := rejectedIncidence(t, env, "pub-20")

	_, err := env.appeals.Create(context.Background(), env.buyer, inc.ID, "not my call")
	require.ErrorIs(t, err, models.ErrForbidden)
}

func TestAppealCreate_OnlyAgainstResolvedRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Still open.
	open := env.report(t, env.buyer, "pub-21")
	_, err := env.appeals.Create(ctx, env.seller, open.ID, "premature")
	require.ErrorIs(t, err, models.ErrNotEligible)

	// Approved, nothing to overturn.
	approved := env.report(t, env.buyer, "pub-22")
	_, err = env.incidences.Claim(ctx, env.mod1, approved.ID)
	require.NoError(t, err)
	_, err = env.incidences.Decide(ctx, env.mod1, approved.ID, models.DecisionApproved, "fine")
	require.NoError(t, err)
	_, err = env.appeals.Create(ctx, env.seller, approved.ID, "pointless")
	require.ErrorIs(t, err, models.ErrNotEligible)
}

func TestAppealCreate_OncePerIncidence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inc := rejectedIncidence(t, env, "pub-23")

	appeal, err := env.appeals.Create(ctx, env.seller, inc.ID, "first")
	require.NoError(t, err)
	_, err = env.appeals.Create(ctx, env.seller, inc.ID, "second")
	require.ErrorIs(t, err, models.ErrDuplicateAppeal)

	// Still just one appeal after the review settles the case again.
	_, err = env.appeals.Assign(ctx, env.admin, appeal.ID, env.mod2.ID)
	require.NoError(t, err)
	_, err = env.appeals.Decide(ctx, env.mod2, appeal.ID, models.AppealDecisionRejected, "stands")
	require.NoError(t, err)
	_, err = env.appeals.Create(ctx, env.seller, inc.ID, "third")
	require.ErrorIs(t, err, models.ErrDuplicateAppeal)
}

func TestAppealAssign_AdminOnlyAndReviewerMustBeEligible(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inc := rejectedIncidence(t, env, "pub-24")
	appeal, err := env.appeals.Create(ctx, env.seller, inc.ID, "reconsider")
	require.NoError(t, err)

	_, err = env.appeals.Assign(ctx, env.mod2, appeal.ID, env.mod2.ID)
	require.ErrorIs(t, err, models.ErrForbidden)

	// Original moderator, non-moderator, and inactive moderator are all out.
	_, err = env.appeals.Assign(ctx, env.admin, appeal.ID, env.mod1.ID)
	require.ErrorIs(t, err, models.ErrInvalidArgument)
	_, err = env.appeals.Assign(ctx, env.admin, appeal.ID, env.buyer.ID)
	require.ErrorIs(t, err, models.ErrInvalidArgument)

	seeder := env.stores.Users.(store.UserSeeder)
	blocked := models.User{ID: env.mod2.ID, Name: "Second Moderator", Email: "mod2@mercavio.test", Role: models.RoleModerator, Status: models.StatusBlocked}
	seeder.Put(blocked)
	_, err = env.appeals.Assign(ctx, env.admin, appeal.ID, env.mod2.ID)
	require.ErrorIs(t, err, models.ErrInvalidArgument)

	blocked.Status = models.StatusActive
	seeder.Put(blocked)
	assigned, err := env.appeals.Assign(ctx, env.admin, appeal.ID, env.mod2.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AppealAssigned, assigned.Status)
	require.NotNil(t, assigned.NewModeratorID)
	assert.Equal(t, env.mod2.ID, *assigned.NewModeratorID)
}

func TestAppealAutoAssign_SkipsTheOriginalModerator(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inc := rejectedIncidence(t, env, "pub-25")
	appeal, err := env.appeals.Create(ctx, env.seller, inc.ID, "reconsider")
	require.NoError(t, err)

	assigned, err := env.appeals.AutoAssign(ctx, env.admin, appeal.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AppealAssigned, assigned.Status)
	require.NotNil(t, assigned.NewModeratorID)
	assert.Equal(t, env.mod2.ID, *assigned.NewModeratorID)

	// An assigned appeal cannot be re-routed automatically.
	_, err = env.appeals.AutoAssign(ctx, env.admin, appeal.ID)
	var is models.InvalidStateError
	require.ErrorAs(t, err, &is)
}

func TestAppealAutoAssign_NoEligibleModeratorFailsTheAppeal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inc := rejectedIncidence(t, env, "pub-26")
	appeal, err := env.appeals.Create(ctx, env.seller, inc.ID, "reconsider")
	require.NoError(t, err)

	// Take the only other moderator out of rotation.
	seeder := env.stores.Users.(store.UserSeeder)
	seeder.Put(models.User{ID: env.mod2.ID, Name: "Second Moderator", Email: "mod2@mercavio.test", Role: models.RoleModerator, Status: models.StatusInactive})

	failed, err := env.appeals.AutoAssign(ctx, env.admin, appeal.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AppealFailedNoMod, failed.Status)
	assert.Nil(t, failed.NewModeratorID)

	// Terminal: no further routing or decision.
	_, err = env.appeals.AutoAssign(ctx, env.admin, appeal.ID)
	var is models.InvalidStateError
	require.ErrorAs(t, err, &is)
}

func TestAppealDecide_OnlyTheAssignedReviewerRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inc := rejectedIncidence(t, env, "pub-27")
	appeal, err := env.appeals.Create(ctx, env.seller, inc.ID, "reconsider")
	require.NoError(t, err)
	_, err = env.appeals.Assign(ctx, env.admin, appeal.ID, env.mod2.ID)
	require.NoError(t, err)

	_, err = env.appeals.Decide(ctx, env.mod1, appeal.ID, models.AppealDecisionRejected, "")
	require.ErrorIs(t, err, models.ErrNotOwner)

	_, err = env.appeals.Decide(ctx, env.mod2, appeal.ID, models.AppealDecisionPending, "")
	require.ErrorIs(t, err, models.ErrInvalidArgument)

	decided, err := env.appeals.Decide(ctx, env.mod2, appeal.ID, models.AppealDecisionRejected, "original call stands")
	require.NoError(t, err)
	assert.Equal(t, models.AppealReviewed, decided.Status)
	assert.Equal(t, models.AppealDecisionRejected, decided.FinalDecision)
	assert.NotNil(t, decided.ReviewedAt)

	// A rejected appeal leaves the original decision in place.
	got, err := env.incidences.Get(ctx, env.admin, inc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IncidenceResolved, got.Status)
	assert.Equal(t, models.DecisionRejected, got.Decision)
}

func TestAppealGetByIncidence_VisibleToStaffAndSeller(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inc := rejectedIncidence(t, env, "pub-28")

	_, err := env.appeals.GetByIncidence(ctx, env.seller, inc.ID)
	require.ErrorIs(t, err, models.ErrNotFound)

	appeal, err := env.appeals.Create(ctx, env.seller, inc.ID, "reconsider")
	require.NoError(t, err)

	got, err := env.appeals.GetByIncidence(ctx, env.seller, inc.ID)
	require.NoError(t, err)
	assert.Equal(t, appeal.ID, got.ID)

	got, err = env.appeals.GetByIncidence(ctx, env.mod1, inc.ID)
	require.NoError(t, err)
	assert.Equal(t, appeal.ID, got.ID)

	_, err = env.appeals.GetByIncidence(ctx, env.buyer, inc.ID)
	require.ErrorIs(t, err, models.ErrForbidden)
}

func TestAppealList_FiltersByStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, pub := range []string{"pub-30", "pub-31", "pub-32"} {
		inc := rejectedIncidence(t, env, pub)
		_, err := env.appeals.Create(ctx, env.seller, inc.ID, "reconsider "+pub)
		require.NoError(t, err)
	}
	page, err := env.appeals.List(ctx, env.mod1, AppealFilter{
		Statuses: []models.AppealStatus{models.AppealPending},
	}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalItems)

	page, err = env.appeals.List(ctx, env.mod1, AppealFilter{Search: "pub-31"}, 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Contains(t, page.Items[0].Reason, "pub-31")

	_, err = env.appeals.List(ctx, env.seller, AppealFilter{}, 0, 10)
	require.ErrorIs(t, err, models.ErrForbidden)
}
