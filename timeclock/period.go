/*
period.go - Symbolic period resolution

PURPOSE:
  Maps symbolic period names ("this week", "last month") to concrete date
  ranges. Used as the default date filter for event queries when callers
  do not supply explicit dates.

CONVENTION:
  All periods are half-open: [Start, End). The End bound is exclusive.
  Historical revisions of this system mixed inclusive and exclusive upper
  bounds; every consumer here assumes half-open, so a one-day period is
  [midnight, next midnight).

  Weeks start on Monday.

NO FAILURE MODE:
  ResolvePeriod always returns a valid range. Unrecognized codes fall back
  to "this week".

SEE ALSO:
  - query.go: Uses the resolver for default date filters
*/
package timeclock

import "time"

// =============================================================================
// PERIOD - Half-open [Start, End) date range
// =============================================================================

type Period struct {
	Start time.Time
	End   time.Time // exclusive
}

// Contains reports whether t falls within [Start, End).
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Days returns the number of calendar days spanned by the period.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours() / 24)
}

// IsValid reports whether Start precedes End.
func (p Period) IsValid() bool { return p.Start.Before(p.End) }

func (p Period) String() string {
	return "[" + p.Start.Format("2006-01-02") + ", " + p.End.Format("2006-01-02") + ")"
}

// =============================================================================
// PERIOD CODES
// =============================================================================

type PeriodCode string

const (
	PeriodToday      PeriodCode = "today"
	PeriodThisWeek   PeriodCode = "this_week"
	PeriodThisMonth  PeriodCode = "this_month"
	PeriodYesterday  PeriodCode = "yesterday"
	PeriodLastWeek   PeriodCode = "last_week"
	PeriodLast2Weeks PeriodCode = "last_2_weeks"
	PeriodLastMonth  PeriodCode = "last_month"
)

// =============================================================================
// RESOLVER
// =============================================================================

// ResolvePeriod maps a period code to a concrete half-open range relative
// to now. Unrecognized codes fall back to this week. Never fails.
func ResolvePeriod(now time.Time, code PeriodCode) Period {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monday := midnight.AddDate(0, 0, -mondayOffset(midnight.Weekday()))
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	switch code {
	case PeriodToday:
		return Period{Start: midnight, End: midnight.AddDate(0, 0, 1)}
	case PeriodYesterday:
		return Period{Start: midnight.AddDate(0, 0, -1), End: midnight}
	case PeriodThisWeek:
		return Period{Start: monday, End: monday.AddDate(0, 0, 7)}
	case PeriodLastWeek:
		return Period{Start: monday.AddDate(0, 0, -7), End: monday}
	case PeriodLast2Weeks:
		return Period{Start: monday.AddDate(0, 0, -14), End: monday}
	case PeriodThisMonth:
		return Period{Start: firstOfMonth, End: firstOfMonth.AddDate(0, 1, 0)}
	case PeriodLastMonth:
		return Period{Start: firstOfMonth.AddDate(0, -1, 0), End: firstOfMonth}
	default:
		return Period{Start: monday, End: monday.AddDate(0, 0, 7)}
	}
}

// mondayOffset returns how many days back the most recent Monday is.
func mondayOffset(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// =============================================================================
// PERIOD REQUEST - Tagged variant: named code or explicit range
// =============================================================================

// PeriodRequest is either a named period code or an explicit range.
// It replaces the legacy duck-typed "does this form have field X" checks
// with an explicit tagged variant.
type PeriodRequest struct {
	Code     PeriodCode
	Explicit *Period
}

// NamedPeriod builds a request for a symbolic period.
func NamedPeriod(code PeriodCode) PeriodRequest {
	return PeriodRequest{Code: code}
}

// ExplicitPeriod builds a request for a concrete [start, end) range.
func ExplicitPeriod(start, end time.Time) PeriodRequest {
	return PeriodRequest{Explicit: &Period{Start: start, End: end}}
}

// Resolve produces the concrete period. Explicit ranges win over codes;
// an explicit range with End before Start is a validation error.
func (r PeriodRequest) Resolve(now time.Time) (Period, error) {
	if r.Explicit != nil {
		if !r.Explicit.IsValid() {
			return Period{}, &ValidationError{Field: "period", Message: "end date must be after start date"}
		}
		return *r.Explicit, nil
	}
	return ResolvePeriod(now, r.Code), nil
}
