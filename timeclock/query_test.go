package timeclock_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/timeclock-engine/timeclock"
	"github.com/warp/timeclock-engine/timeclock/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type queryFixture struct {
	engine *timeclock.QueryEngine
	mem    *store.Memory
}

func newQueryFixture(t *testing.T) *queryFixture {
	t.Helper()
	mem := store.NewMemory()
	engine := timeclock.NewQueryEngine(mem)
	engine.Now = refNow

	ctx := context.Background()
	users := []timeclock.User{
		{ID: "emp-1", Email: "alice@example.gov", Tag: timeclock.TagIntern, Division: "Reference Room"},
		{ID: "emp-2", Email: "bob@example.gov", Tag: timeclock.TagEmployee, Division: "Administration"},
		{ID: "emp-3", Email: "carol@example.gov", Tag: timeclock.TagIntern, Division: "Administration"},
	}
	for _, u := range users {
		require.NoError(t, mem.SaveUser(ctx, u))
	}

	// One approved event per user on Tuesday March 11, plus one pending
	// timepunch for alice.
	for i, id := range []timeclock.UserID{"emp-1", "emp-2", "emp-3"} {
		require.NoError(t, mem.SaveEvent(ctx, timeclock.Event{
			ID:        timeclock.EventID("evt-" + string(id)),
			UserID:    id,
			Time:      time.Date(2025, time.March, 11, 9+i, 0, 0, 0, time.UTC),
			Direction: timeclock.DirectionIn,
			Approved:  true,
		}))
	}
	require.NoError(t, mem.SaveEvent(ctx, timeclock.Event{
		ID:               "evt-pending",
		UserID:           "emp-1",
		Time:             time.Date(2025, time.March, 11, 17, 0, 0, 0, time.UTC),
		Direction:        timeclock.DirectionOut,
		Pending:          true,
		TimepunchRequest: true,
	}))

	return &queryFixture{engine: engine, mem: mem}
}

// =============================================================================
// FILTER RESOLUTION
// =============================================================================

func TestQuery_DefaultPeriod_IsThisWeek(t *testing.T) {
	// GIVEN: Events this week and one from a month ago
	// WHEN: Querying with no period
	// THEN: Only this week's events match

	f := newQueryFixture(t)
	require.NoError(t, f.mem.SaveEvent(context.Background(), timeclock.Event{
		ID: "evt-old", UserID: "emp-1",
		Time:      time.Date(2025, time.February, 11, 9, 0, 0, 0, time.UTC),
		Direction: timeclock.DirectionIn, Approved: true,
	}))

	events, err := f.engine.Query(context.Background(), timeclock.EventFilter{})
	require.NoError(t, err)
	assert.Len(t, events, 3, "the February event is outside the default range")
}

func TestQuery_ByEmail(t *testing.T) {
	f := newQueryFixture(t)

	events, err := f.engine.Query(context.Background(), timeclock.EventFilter{Email: "Alice@Example.GOV"})
	require.NoError(t, err)
	require.Len(t, events, 1, "email lookup is case-insensitive")
	assert.Equal(t, timeclock.UserID("emp-1"), events[0].UserID)
}

func TestQuery_ByTag(t *testing.T) {
	// GIVEN: Two interns and one employee
	// WHEN: Filtering by the Intern tag
	// THEN: Both interns' events match

	f := newQueryFixture(t)

	events, err := f.engine.Query(context.Background(), timeclock.EventFilter{Tag: timeclock.TagIntern})
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestQuery_TagAndDivision_Intersect(t *testing.T) {
	// GIVEN: Interns in two divisions
	// WHEN: Filtering by Intern AND Administration
	// THEN: Only the intersection (carol) matches

	f := newQueryFixture(t)

	events, err := f.engine.Query(context.Background(), timeclock.EventFilter{
		Tag:      timeclock.TagIntern,
		Division: "Administration",
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, timeclock.UserID("emp-3"), events[0].UserID)
}

func TestQuery_CallerEmailFallback(t *testing.T) {
	// GIVEN: No explicit email filter but a caller identity
	// WHEN: Querying
	// THEN: The caller's own events are returned (self-service view)

	f := newQueryFixture(t)

	events, err := f.engine.Query(context.Background(), timeclock.EventFilter{CallerEmail: "bob@example.gov"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, timeclock.UserID("emp-2"), events[0].UserID)
}

// =============================================================================
// DETERMINISTIC EMPTY RESULTS
// =============================================================================

func TestQuery_UnknownEmail_EmptyNotError(t *testing.T) {
	f := newQueryFixture(t)

	events, err := f.engine.Query(context.Background(), timeclock.EventFilter{Email: "ghost@example.gov"})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestQuery_UnknownTag_EmptyNotError(t *testing.T) {
	f := newQueryFixture(t)

	events, err := f.engine.Query(context.Background(), timeclock.EventFilter{Tag: timeclock.TagVolunteer})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestQuery_DisjointFilters_Empty(t *testing.T) {
	// GIVEN: bob is an Employee in Administration
	// WHEN: Filtering by bob's email AND the Intern tag
	// THEN: The intersection is empty

	f := newQueryFixture(t)

	events, err := f.engine.Query(context.Background(), timeclock.EventFilter{
		Email: "bob@example.gov",
		Tag:   timeclock.TagIntern,
	})
	require.NoError(t, err)
	assert.Empty(t, events)
}

// =============================================================================
// APPROVAL VISIBILITY AND ORDERING
// =============================================================================

func TestQuery_ApprovedOnlyByDefault(t *testing.T) {
	// GIVEN: alice has one approved event and one pending timepunch
	// WHEN: Querying without IncludeUnapproved
	// THEN: The pending request is invisible

	f := newQueryFixture(t)

	events, err := f.engine.Query(context.Background(), timeclock.EventFilter{Email: "alice@example.gov"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].CountsTowardTimeline())
}

func TestQuery_IncludeUnapproved(t *testing.T) {
	f := newQueryFixture(t)

	events, err := f.engine.Query(context.Background(), timeclock.EventFilter{
		Email:             "alice@example.gov",
		IncludeUnapproved: true,
	})
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestQuery_DescendingByDefault(t *testing.T) {
	f := newQueryFixture(t)

	events, err := f.engine.Query(context.Background(), timeclock.EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Time.After(events[i-1].Time), "events must be newest first")
	}

	asc, err := f.engine.Query(context.Background(), timeclock.EventFilter{Ascending: true})
	require.NoError(t, err)
	require.Len(t, asc, 3)
	assert.Equal(t, asc[0].ID, events[len(events)-1].ID)
}

func TestQuery_ExplicitPeriod_HalfOpen(t *testing.T) {
	// GIVEN: Events at 9:00-11:00 on March 11
	// WHEN: Querying [March 11, March 12)
	// THEN: All three match; [March 12, March 13) matches none

	f := newQueryFixture(t)

	events, err := f.engine.Query(context.Background(), timeclock.EventFilter{
		Period: timeclock.ExplicitPeriod(day(2025, time.March, 11), day(2025, time.March, 12)),
	})
	require.NoError(t, err)
	assert.Len(t, events, 3)

	next, err := f.engine.Query(context.Background(), timeclock.EventFilter{
		Period: timeclock.ExplicitPeriod(day(2025, time.March, 12), day(2025, time.March, 13)),
	})
	require.NoError(t, err)
	assert.Empty(t, next)
}
