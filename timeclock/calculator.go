/*
calculator.go - Hours and earnings calculation

PURPOSE:
  Walks a user's reconciled timeline for a period, applies the lunch
  deduction rule, matches each interval to the pay rate in effect, and
  accumulates total hours and earnings. The output Statement is handed
  verbatim to document renderers (timesheet/invoice); the engine is
  independent of rendering format.

PIPELINE (strictly sequential):
  query (approved only) -> reconcile -> rate-resolve -> accumulate

LUNCH RULE:
  If a raw interval is 5 hours or longer, exactly 1 hour is deducted.
  Flat deduction, not pro-rated: 5.00h raw -> 4.00h, 4.99h raw -> 4.99h.

RATE POLICY:
  The rate in effect at the interval's clock-in covers the WHOLE interval.
  Rate changes mid-interval are not split pro-rata. Historical revisions
  disagreed here; the whole-interval policy is the pinned decision (see
  the regression test in calculator_test.go).

NUMERIC SEMANTICS:
  All hours and earnings are decimal.Decimal. Accumulation is unrounded;
  rounding to 2 places happens only in the Rounded() presentation helper.

SEE ALSO:
  - reconcile.go: Interval pairing and MismatchedClockError
  - payrate.go: Rate resolution and the NoPayRateError condition
*/
package timeclock

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	lunchThresholdHours = decimal.NewFromInt(5)
	lunchDeductionHours = decimal.NewFromInt(1)
	secondsPerHour      = decimal.NewFromInt(3600)
)

// MaxStatementSpanDays caps the period length for generated documents.
// A week of data plus the exclusive end bound: spans beyond this are
// rejected with a validation error.
const MaxStatementSpanDays = 8

// =============================================================================
// STATEMENT - Calculator output
// =============================================================================

// DayEntry is one completed work interval with its pay.
type DayEntry struct {
	Date     time.Time
	TimeIn   time.Time
	TimeOut  time.Time
	Hours    decimal.Decimal // post-lunch-deduction
	Rate     decimal.Decimal
	Earnings decimal.Decimal
}

// Statement is the per-day breakdown plus totals for a user and period.
type Statement struct {
	Email         string
	Period        Period
	Days          []DayEntry
	TotalHours    decimal.Decimal
	TotalEarnings decimal.Decimal
}

// Rounded returns a presentation copy with every figure rounded to two
// decimal places. The unrounded statement is kept for accumulation.
func (s *Statement) Rounded() *Statement {
	out := &Statement{
		Email:         s.Email,
		Period:        s.Period,
		Days:          make([]DayEntry, len(s.Days)),
		TotalHours:    Round2(s.TotalHours),
		TotalEarnings: Round2(s.TotalEarnings),
	}
	for i, d := range s.Days {
		d.Hours = Round2(d.Hours)
		d.Rate = Round2(d.Rate)
		d.Earnings = Round2(d.Earnings)
		out.Days[i] = d
	}
	return out
}

// =============================================================================
// CALCULATOR
// =============================================================================

type Calculator struct {
	Queries *QueryEngine
	Rates   *RateResolver
	Users   UserStore
}

func NewCalculator(store Store) *Calculator {
	return &Calculator{
		Queries: NewQueryEngine(store),
		Rates:   NewRateResolver(store),
		Users:   store,
	}
}

// Calculate computes the hours/earnings statement for one user over a
// period. Approved events only. Fails with MismatchedClockError when the
// timeline cannot be reconciled and NoPayRateError when an interval has
// no covering rate; both block document generation without producing a
// partial or incorrect statement.
func (c *Calculator) Calculate(ctx context.Context, email string, period PeriodRequest) (*Statement, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, &ValidationError{Field: "email", Message: "you must specify a user"}
	}

	user, err := c.Users.UserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	resolved, err := period.Resolve(time.Now())
	if err != nil {
		return nil, err
	}

	events, err := c.Queries.Query(ctx, EventFilter{
		Email:  email,
		Period: period,
	})
	if err != nil {
		return nil, err
	}

	intervals, err := Reconcile(events, ReconcileOptions{StrictDirections: true})
	if err != nil {
		return nil, err
	}

	statement := &Statement{
		Email:         email,
		Period:        resolved,
		TotalHours:    decimal.Zero,
		TotalEarnings: decimal.Zero,
	}

	for _, iv := range intervals {
		rate, err := c.Rates.RateBeforeOrAt(ctx, user.ID, iv.TimeIn)
		if err != nil {
			return nil, err
		}
		if rate == nil {
			return nil, &NoPayRateError{Email: email, Date: iv.TimeIn}
		}

		hours := intervalHours(iv)
		earnings := hours.Mul(rate.Rate)

		statement.Days = append(statement.Days, DayEntry{
			Date:     iv.TimeIn,
			TimeIn:   iv.TimeIn,
			TimeOut:  iv.TimeOut,
			Hours:    hours,
			Rate:     rate.Rate,
			Earnings: earnings,
		})
		statement.TotalHours = statement.TotalHours.Add(hours)
		statement.TotalEarnings = statement.TotalEarnings.Add(earnings)
	}

	return statement, nil
}

// HoursOnly computes the statement without pay: rates and earnings are
// zero. Used for timesheets when the user has no configured pay rate.
func (c *Calculator) HoursOnly(ctx context.Context, email string, period PeriodRequest) (*Statement, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, &ValidationError{Field: "email", Message: "you must specify a user"}
	}

	resolved, err := period.Resolve(time.Now())
	if err != nil {
		return nil, err
	}

	events, err := c.Queries.Query(ctx, EventFilter{Email: email, Period: period})
	if err != nil {
		return nil, err
	}

	intervals, err := Reconcile(events, ReconcileOptions{StrictDirections: true})
	if err != nil {
		return nil, err
	}

	statement := &Statement{Email: email, Period: resolved}
	for _, iv := range intervals {
		hours := intervalHours(iv)
		statement.Days = append(statement.Days, DayEntry{
			Date:    iv.TimeIn,
			TimeIn:  iv.TimeIn,
			TimeOut: iv.TimeOut,
			Hours:   hours,
		})
		statement.TotalHours = statement.TotalHours.Add(hours)
	}
	return statement, nil
}

// ValidateStatementSpan enforces the maximum document period.
func ValidateStatementSpan(p Period) error {
	if p.Days() > MaxStatementSpanDays {
		return &ValidationError{
			Field:   "period",
			Message: "maximum timesheet duration is a week, please refine your filters",
		}
	}
	return nil
}

// intervalHours converts an interval to fractional hours and applies the
// lunch deduction. Wall-clock seconds over 3600; a pair spanning midnight
// computes correctly because both timestamps are absolute.
func intervalHours(iv WorkInterval) decimal.Decimal {
	seconds := decimal.NewFromInt(int64(iv.Duration() / time.Second))
	hours := seconds.Div(secondsPerHour)
	if hours.GreaterThanOrEqual(lunchThresholdHours) {
		hours = hours.Sub(lunchDeductionHours)
	}
	return hours
}

// IsNoPayRate reports whether err is the missing-rate condition, which
// callers surface as "generate a timesheet instead of an invoice".
func IsNoPayRate(err error) bool { return errors.Is(err, ErrNoPayRate) }
