package timeclock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/timeclock-engine/timeclock"
	"github.com/warp/timeclock-engine/timeclock/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newUserService(t *testing.T) (*timeclock.UserService, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	svc := timeclock.NewUserService(mem)
	svc.Now = refNow
	return svc, mem
}

// =============================================================================
// CREATION
// =============================================================================

func TestCreateUser_NormalizesEmail(t *testing.T) {
	// GIVEN: An email with mixed case and whitespace
	// WHEN: Creating the user
	// THEN: It is stored lowercase-trimmed and findable that way

	svc, mem := newUserService(t)

	user, err := svc.Create(context.Background(), timeclock.User{Email: "  Alice@Example.GOV "})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.gov", user.Email)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, timeclock.RoleUser, user.Role, "role defaults to User")

	found, err := mem.UserByEmail(context.Background(), "ALICE@example.gov")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
}

func TestCreateUser_DuplicateEmail_Rejected(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, timeclock.User{Email: "alice@example.gov"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, timeclock.User{Email: "ALICE@example.gov"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, timeclock.ErrDuplicateEmail))
}

func TestCreateUser_BlankEmail_Rejected(t *testing.T) {
	svc, _ := newUserService(t)

	_, err := svc.Create(context.Background(), timeclock.User{Email: "   "})
	require.Error(t, err)
	assert.True(t, errors.Is(err, timeclock.ErrInvalidInput))
}

func TestCreateUser_SelfSupervision_Rejected(t *testing.T) {
	svc, _ := newUserService(t)
	id := timeclock.UserID("emp-1")

	_, err := svc.Create(context.Background(), timeclock.User{
		ID: id, Email: "alice@example.gov", SupervisorID: &id,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, timeclock.ErrSelfSupervision))
}

// =============================================================================
// UPDATES AND CHANGE LOG
// =============================================================================

func TestUpdateUser_LogsOneEntryPerChangedField(t *testing.T) {
	// GIVEN: An existing user
	// WHEN: An admin changes division and tag in one edit
	// THEN: Exactly two change entries are recorded, attributed to the admin

	svc, _ := newUserService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, timeclock.User{
		Email: "alice@example.gov", Division: "Library", Tag: timeclock.TagIntern,
	})
	require.NoError(t, err)

	updated := *user
	updated.Division = "Archives"
	updated.Tag = timeclock.TagEmployee

	_, err = svc.Update(ctx, "admin-1", updated)
	require.NoError(t, err)

	history, err := svc.History(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	fields := map[string]timeclock.ChangeEntry{}
	for _, e := range history {
		fields[e.Field] = e
		assert.Equal(t, timeclock.UserID("admin-1"), e.ChangedBy)
		assert.Equal(t, refNow(), e.Timestamp)
	}
	assert.Equal(t, "Library", fields["division"].Old)
	assert.Equal(t, "Archives", fields["division"].New)
	assert.Equal(t, "Intern", fields["tag"].Old)
	assert.Equal(t, "Employee", fields["tag"].New)
}

func TestUpdateUser_NoChanges_NoLogEntries(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, timeclock.User{Email: "alice@example.gov"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, "admin-1", *user)
	require.NoError(t, err)

	history, err := svc.History(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestUpdateUser_PreservesClockStateAndCreation(t *testing.T) {
	// GIVEN: A clocked-in user
	// WHEN: An admin edits their profile
	// THEN: The clocked-in flag and creation time are untouched

	svc, mem := newUserService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, timeclock.User{Email: "alice@example.gov"})
	require.NoError(t, err)
	require.NoError(t, mem.SetClockedIn(ctx, user.ID, true))

	updated := *user
	updated.FirstName = "Alice"
	updated.ClockedIn = false // must be ignored

	_, err = svc.Update(ctx, "admin-1", updated)
	require.NoError(t, err)

	saved, err := mem.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, saved.ClockedIn)
	assert.Equal(t, user.CreatedAt, saved.CreatedAt)
}

func TestSetSupervisor(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	boss, err := svc.Create(ctx, timeclock.User{Email: "boss@example.gov", IsSupervisor: true})
	require.NoError(t, err)
	worker, err := svc.Create(ctx, timeclock.User{Email: "worker@example.gov"})
	require.NoError(t, err)

	updated, err := svc.SetSupervisor(ctx, "admin-1", worker.ID, boss.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.SupervisorID)
	assert.Equal(t, boss.ID, *updated.SupervisorID)

	history, err := svc.History(ctx, worker.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "supervisor", history[0].Field)

	_, err = svc.SetSupervisor(ctx, "admin-1", worker.ID, worker.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, timeclock.ErrSelfSupervision))
}

// =============================================================================
// PAY RATES
// =============================================================================

func TestAddPayRate(t *testing.T) {
	svc, mem := newUserService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, timeclock.User{Email: "alice@example.gov"})
	require.NoError(t, err)

	rate, err := svc.AddPayRate(ctx, user.ID, decimal.NewFromFloat(17.50), day(2025, time.March, 1), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, rate.ID)

	rates, err := mem.PayRatesByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.True(t, rates[0].Rate.Equal(decimal.NewFromFloat(17.50)))
}

func TestAddPayRate_NegativeRate_Rejected(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, timeclock.User{Email: "alice@example.gov"})
	require.NoError(t, err)

	_, err = svc.AddPayRate(ctx, user.ID, decimal.NewFromInt(-5), day(2025, time.March, 1), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, timeclock.ErrInvalidInput))
}

func TestAddPayRate_EndBeforeStart_Rejected(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, timeclock.User{Email: "alice@example.gov"})
	require.NoError(t, err)

	end := day(2025, time.February, 1)
	_, err = svc.AddPayRate(ctx, user.ID, decimal.NewFromInt(15), day(2025, time.March, 1), &end)
	require.Error(t, err)
	assert.True(t, errors.Is(err, timeclock.ErrInvalidInput))
}

func TestAddPayRate_UnknownUser_NotFound(t *testing.T) {
	svc, _ := newUserService(t)

	_, err := svc.AddPayRate(context.Background(), "ghost", decimal.NewFromInt(15), day(2025, time.March, 1), nil)
	require.Error(t, err)
	assert.True(t, timeclock.IsNotFound(err))
}
