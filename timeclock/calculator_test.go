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

type calcFixture struct {
	calc *timeclock.Calculator
	mem  *store.Memory
	user timeclock.User
}

func newCalcFixture(t *testing.T) *calcFixture {
	t.Helper()
	mem := store.NewMemory()
	user := timeclock.User{
		ID:       "emp-1",
		Email:    "worker@example.gov",
		IsActive: true,
	}
	require.NoError(t, mem.SaveUser(context.Background(), user))
	return &calcFixture{calc: timeclock.NewCalculator(mem), mem: mem, user: user}
}

func (f *calcFixture) addRate(t *testing.T, rate int64, start time.Time) {
	t.Helper()
	require.NoError(t, f.mem.SavePayRate(context.Background(), timeclock.PayRate{
		ID:     timeclock.PayRateID(start.Format("r-2006-01-02")),
		UserID: f.user.ID,
		Rate:   decimal.NewFromInt(rate),
		Start:  start,
	}))
}

func (f *calcFixture) addShift(t *testing.T, in, out time.Time) {
	t.Helper()
	for _, e := range []timeclock.Event{
		{ID: timeclock.EventID(in.Format("in-2006-01-02T15:04")), UserID: f.user.ID, Time: in, Direction: timeclock.DirectionIn, Approved: true},
		{ID: timeclock.EventID(out.Format("out-2006-01-02T15:04")), UserID: f.user.ID, Time: out, Direction: timeclock.DirectionOut, Approved: true},
	} {
		require.NoError(t, f.mem.SaveEvent(context.Background(), e))
	}
}

// marchWeek is an explicit Monday-to-Monday range in March 2025.
func marchWeek() timeclock.PeriodRequest {
	return timeclock.ExplicitPeriod(day(2025, time.March, 10), day(2025, time.March, 17))
}

func shiftTime(d, hour int) time.Time {
	return time.Date(2025, time.March, d, hour, 0, 0, 0, time.UTC)
}

// =============================================================================
// LUNCH DEDUCTION
// =============================================================================

func TestCalculate_LunchDeduction_AtThreshold(t *testing.T) {
	// GIVEN: A 5-hour shift at $20/hr
	// WHEN: Calculating
	// THEN: Exactly 1 hour is deducted, and pay is on the post-deduction
	// hours: 4.00h, $80.00

	f := newCalcFixture(t)
	f.addRate(t, 20, day(2025, time.January, 1))
	f.addShift(t, shiftTime(10, 9), shiftTime(10, 14))

	s, err := f.calc.Calculate(context.Background(), f.user.Email, marchWeek())
	require.NoError(t, err)
	require.Len(t, s.Days, 1)

	assert.True(t, s.Days[0].Hours.Equal(decimal.NewFromInt(4)), "got %s", s.Days[0].Hours)
	assert.True(t, s.Days[0].Earnings.Equal(decimal.NewFromInt(80)), "got %s", s.Days[0].Earnings)
	assert.True(t, s.TotalHours.Equal(decimal.NewFromInt(4)))
	assert.True(t, s.TotalEarnings.Equal(decimal.NewFromInt(80)))
}

func TestCalculate_LunchDeduction_BelowThreshold_NotApplied(t *testing.T) {
	// GIVEN: A shift just under 5 hours
	// WHEN: Calculating
	// THEN: No deduction

	f := newCalcFixture(t)
	f.addRate(t, 20, day(2025, time.January, 1))
	in := shiftTime(10, 9)
	out := in.Add(4*time.Hour + 48*time.Minute) // 4.8h
	f.addShift(t, in, out)

	s, err := f.calc.Calculate(context.Background(), f.user.Email, marchWeek())
	require.NoError(t, err)
	require.Len(t, s.Days, 1)
	assert.True(t, s.Days[0].Hours.Equal(decimal.NewFromFloat(4.8)), "got %s", s.Days[0].Hours)
}

func TestCalculate_LunchDeduction_FlatNotProRated(t *testing.T) {
	// GIVEN: A 9-hour shift
	// THEN: Still exactly 1 hour deducted

	f := newCalcFixture(t)
	f.addRate(t, 10, day(2025, time.January, 1))
	f.addShift(t, shiftTime(10, 8), shiftTime(10, 17))

	s, err := f.calc.Calculate(context.Background(), f.user.Email, marchWeek())
	require.NoError(t, err)
	require.Len(t, s.Days, 1)
	assert.True(t, s.Days[0].Hours.Equal(decimal.NewFromInt(8)))
}

// =============================================================================
// RATE POLICY
// =============================================================================

func TestCalculate_RateAtClockInCoversWholeInterval(t *testing.T) {
	// GIVEN: A rate change effective mid-shift (old $10, new $20 from noon)
	// WHEN: Calculating a 9:00-13:00 shift
	// THEN: The clock-in rate ($10) covers the whole interval; no pro-rata
	// split. Pinned: changing this means changing payroll output.

	f := newCalcFixture(t)
	f.addRate(t, 10, day(2025, time.January, 1))
	f.addRate(t, 20, shiftTime(10, 12))
	f.addShift(t, shiftTime(10, 9), shiftTime(10, 13))

	s, err := f.calc.Calculate(context.Background(), f.user.Email, marchWeek())
	require.NoError(t, err)
	require.Len(t, s.Days, 1)
	assert.True(t, s.Days[0].Rate.Equal(decimal.NewFromInt(10)))
	assert.True(t, s.Days[0].Earnings.Equal(decimal.NewFromInt(40)), "4h x $10, got %s", s.Days[0].Earnings)
}

func TestCalculate_PerIntervalRates(t *testing.T) {
	// GIVEN: A raise effective Wednesday, shifts Monday and Thursday
	// THEN: Each interval uses the rate in effect at its own clock-in

	f := newCalcFixture(t)
	f.addRate(t, 10, day(2025, time.January, 1))
	f.addRate(t, 20, day(2025, time.March, 12))
	f.addShift(t, shiftTime(10, 9), shiftTime(10, 12)) // Monday, 3h @ $10
	f.addShift(t, shiftTime(13, 9), shiftTime(13, 12)) // Thursday, 3h @ $20

	s, err := f.calc.Calculate(context.Background(), f.user.Email, marchWeek())
	require.NoError(t, err)
	require.Len(t, s.Days, 2)
	assert.True(t, s.TotalEarnings.Equal(decimal.NewFromInt(90)), "30 + 60, got %s", s.TotalEarnings)
}

// =============================================================================
// ERROR CONDITIONS
// =============================================================================

func TestCalculate_NoPayRate_Fails(t *testing.T) {
	// GIVEN: A worked shift but no configured pay rate
	// WHEN: Calculating
	// THEN: NoPayRateError; the caller should offer a timesheet instead

	f := newCalcFixture(t)
	f.addShift(t, shiftTime(10, 9), shiftTime(10, 17))

	_, err := f.calc.Calculate(context.Background(), f.user.Email, marchWeek())
	require.Error(t, err)

	var noRate *timeclock.NoPayRateError
	require.True(t, errors.As(err, &noRate))
	assert.True(t, timeclock.IsNoPayRate(err))
	assert.Equal(t, f.user.Email, noRate.Email)
}

func TestCalculate_MismatchedClocks_Fails(t *testing.T) {
	// GIVEN: Two INs in a row within the period
	// WHEN: Calculating
	// THEN: MismatchedClockError blocks the statement

	f := newCalcFixture(t)
	f.addRate(t, 20, day(2025, time.January, 1))
	ctx := context.Background()
	for i, e := range []timeclock.Event{
		{UserID: f.user.ID, Time: shiftTime(10, 9), Direction: timeclock.DirectionIn, Approved: true},
		{UserID: f.user.ID, Time: shiftTime(10, 12), Direction: timeclock.DirectionIn, Approved: true},
		{UserID: f.user.ID, Time: shiftTime(10, 17), Direction: timeclock.DirectionOut, Approved: true},
		{UserID: f.user.ID, Time: shiftTime(10, 18), Direction: timeclock.DirectionOut, Approved: true},
	} {
		e.ID = timeclock.EventID(string(rune('a' + i)))
		require.NoError(t, f.mem.SaveEvent(ctx, e))
	}

	_, err := f.calc.Calculate(ctx, f.user.Email, marchWeek())
	require.Error(t, err)
	assert.True(t, errors.Is(err, timeclock.ErrMismatchedClock))
}

func TestCalculate_BlankEmail_Rejected(t *testing.T) {
	f := newCalcFixture(t)

	_, err := f.calc.Calculate(context.Background(), "  ", marchWeek())
	require.Error(t, err)
	assert.True(t, errors.Is(err, timeclock.ErrInvalidInput))
}

func TestCalculate_UnknownUser_NotFound(t *testing.T) {
	f := newCalcFixture(t)

	_, err := f.calc.Calculate(context.Background(), "nobody@example.gov", marchWeek())
	require.Error(t, err)
	assert.True(t, timeclock.IsNotFound(err))
}

// =============================================================================
// PENDING AND DENIED EVENTS
// =============================================================================

func TestCalculate_IgnoresPendingAndDeniedEvents(t *testing.T) {
	// GIVEN: An approved pair plus a pending timepunch and a denied event
	// WHEN: Calculating
	// THEN: Only the approved pair contributes

	f := newCalcFixture(t)
	f.addRate(t, 20, day(2025, time.January, 1))
	f.addShift(t, shiftTime(10, 9), shiftTime(10, 13))

	ctx := context.Background()
	require.NoError(t, f.mem.SaveEvent(ctx, timeclock.Event{
		ID: "pending", UserID: f.user.ID, Time: shiftTime(11, 9),
		Direction: timeclock.DirectionIn, Pending: true, TimepunchRequest: true,
	}))
	require.NoError(t, f.mem.SaveEvent(ctx, timeclock.Event{
		ID: "denied", UserID: f.user.ID, Time: shiftTime(11, 17),
		Direction: timeclock.DirectionOut, Approved: false,
	}))

	s, err := f.calc.Calculate(ctx, f.user.Email, marchWeek())
	require.NoError(t, err)
	assert.Len(t, s.Days, 1)
	assert.True(t, s.TotalHours.Equal(decimal.NewFromInt(4)))
}

// =============================================================================
// HOURS-ONLY STATEMENTS
// =============================================================================

func TestHoursOnly_NoRateRequired(t *testing.T) {
	// GIVEN: A worked shift and NO pay rate
	// WHEN: Generating an hours-only statement
	// THEN: It succeeds with zero earnings

	f := newCalcFixture(t)
	f.addShift(t, shiftTime(10, 9), shiftTime(10, 17))

	s, err := f.calc.HoursOnly(context.Background(), f.user.Email, marchWeek())
	require.NoError(t, err)
	require.Len(t, s.Days, 1)
	assert.True(t, s.Days[0].Hours.Equal(decimal.NewFromInt(7)))
	assert.True(t, s.TotalEarnings.IsZero())
}

// =============================================================================
// STATEMENT SPAN AND ROUNDING
// =============================================================================

func TestValidateStatementSpan(t *testing.T) {
	week := timeclock.Period{Start: day(2025, time.March, 10), End: day(2025, time.March, 17)}
	assert.NoError(t, timeclock.ValidateStatementSpan(week))

	eightDays := timeclock.Period{Start: day(2025, time.March, 10), End: day(2025, time.March, 18)}
	assert.NoError(t, timeclock.ValidateStatementSpan(eightDays), "inclusive last day of a week still fits")

	nineDays := timeclock.Period{Start: day(2025, time.March, 10), End: day(2025, time.March, 19)}
	err := timeclock.ValidateStatementSpan(nineDays)
	require.Error(t, err)
	assert.True(t, errors.Is(err, timeclock.ErrInvalidInput))
}

func TestStatement_Rounded_DoesNotMutateOriginal(t *testing.T) {
	// GIVEN: A statement with a repeating-decimal hour figure
	// WHEN: Rounding for presentation
	// THEN: The original keeps full precision

	f := newCalcFixture(t)
	f.addRate(t, 20, day(2025, time.January, 1))
	in := shiftTime(10, 9)
	f.addShift(t, in, in.Add(100*time.Minute)) // 1.666...h

	s, err := f.calc.Calculate(context.Background(), f.user.Email, marchWeek())
	require.NoError(t, err)

	rounded := s.Rounded()
	assert.True(t, rounded.Days[0].Hours.Equal(decimal.NewFromFloat(1.67)), "got %s", rounded.Days[0].Hours)
	assert.False(t, s.Days[0].Hours.Equal(rounded.Days[0].Hours), "original is unrounded")
}
