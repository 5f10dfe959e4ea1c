package timeclock_test

import (
	"context"
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

func newRateResolver(t *testing.T) (*timeclock.RateResolver, *store.Memory) {
	mem := store.NewMemory()
	return timeclock.NewRateResolver(mem), mem
}

func saveRate(t *testing.T, mem *store.Memory, id string, rate int64, start time.Time) {
	t.Helper()
	err := mem.SavePayRate(context.Background(), timeclock.PayRate{
		ID:     timeclock.PayRateID(id),
		UserID: "emp-1",
		Rate:   decimal.NewFromInt(rate),
		Start:  start,
	})
	require.NoError(t, err)
}

// =============================================================================
// RATE BEFORE OR AT
// =============================================================================

func TestRateBeforeOrAt_PicksLatestEffectiveRate(t *testing.T) {
	// GIVEN: Rates effective January 1 ($15) and March 1 ($18)
	// WHEN: Resolving for a date in April
	// THEN: The March rate applies

	resolver, mem := newRateResolver(t)
	saveRate(t, mem, "r1", 15, day(2025, time.January, 1))
	saveRate(t, mem, "r2", 18, day(2025, time.March, 1))

	rate, err := resolver.RateBeforeOrAt(context.Background(), "emp-1", day(2025, time.April, 10))
	require.NoError(t, err)
	require.NotNil(t, rate)
	assert.True(t, rate.Rate.Equal(decimal.NewFromInt(18)))
}

func TestRateBeforeOrAt_StartDateIsInclusive(t *testing.T) {
	// GIVEN: A rate effective exactly on March 1
	// WHEN: Resolving for March 1
	// THEN: That rate applies (at-or-before, not strictly-before)

	resolver, mem := newRateResolver(t)
	saveRate(t, mem, "r1", 15, day(2025, time.January, 1))
	saveRate(t, mem, "r2", 18, day(2025, time.March, 1))

	rate, err := resolver.RateBeforeOrAt(context.Background(), "emp-1", day(2025, time.March, 1))
	require.NoError(t, err)
	require.NotNil(t, rate)
	assert.True(t, rate.Rate.Equal(decimal.NewFromInt(18)))
}

func TestRateBeforeOrAt_NoCoveringRate_ReturnsNil(t *testing.T) {
	// GIVEN: Only a rate starting in March
	// WHEN: Resolving for a February date
	// THEN: nil, nil - "no pay rate" is the calculator's condition to raise

	resolver, mem := newRateResolver(t)
	saveRate(t, mem, "r1", 18, day(2025, time.March, 1))

	rate, err := resolver.RateBeforeOrAt(context.Background(), "emp-1", day(2025, time.February, 10))
	require.NoError(t, err)
	assert.Nil(t, rate)
}

func TestRateBeforeOrAt_UnknownUser_ReturnsNil(t *testing.T) {
	resolver, _ := newRateResolver(t)

	rate, err := resolver.RateBeforeOrAt(context.Background(), "nobody", day(2025, time.March, 1))
	require.NoError(t, err)
	assert.Nil(t, rate)
}

// =============================================================================
// RATE AFTER
// =============================================================================

func TestRateAfter_PicksEarliestFutureRate(t *testing.T) {
	// GIVEN: Rates starting March 1 and June 1
	// WHEN: Resolving after January 15
	// THEN: The March rate is the next one

	resolver, mem := newRateResolver(t)
	saveRate(t, mem, "r1", 18, day(2025, time.March, 1))
	saveRate(t, mem, "r2", 20, day(2025, time.June, 1))

	rate, err := resolver.RateAfter(context.Background(), "emp-1", day(2025, time.January, 15))
	require.NoError(t, err)
	require.NotNil(t, rate)
	assert.True(t, rate.Rate.Equal(decimal.NewFromInt(18)))
}

func TestRateAfter_StrictlyAfter(t *testing.T) {
	// GIVEN: A rate starting exactly on March 1
	// WHEN: Resolving after March 1
	// THEN: That rate does not qualify; only later starts do

	resolver, mem := newRateResolver(t)
	saveRate(t, mem, "r1", 18, day(2025, time.March, 1))

	rate, err := resolver.RateAfter(context.Background(), "emp-1", day(2025, time.March, 1))
	require.NoError(t, err)
	assert.Nil(t, rate)
}
