/*
query.go - Event query engine

PURPOSE:
  Filters the event log by user, date range, tag, division, and approval
  status. This is the single entry point for history views, timesheets,
  and invoices; the approved-only filter applied here is what keeps
  pending/denied events out of every downstream consumer.

FILTERING ORDER:
  1. Date range (defaults to "this week" when unset)
  2. Tag (tag -> set of user ids)
  3. Explicit user (email)
  4. Division
  5. Approved-only, applied last

DETERMINISTIC EMPTY RESULTS:
  If a filter names a user, tag, or division that matches nothing, the
  query returns an empty result rather than silently ignoring the filter.

NO SESSION STATE:
  Filters are explicit parameter objects. The legacy system stashed the
  active filter in a server-side session; that state now lives entirely
  in EventFilter, supplied by the caller on every query.

SEE ALSO:
  - period.go: Default date ranges
  - store.go: Low-level EventQuery executed against the store
*/
package timeclock

import (
	"context"
	"errors"
	"time"
)

// =============================================================================
// EVENT FILTER - Explicit query parameters
// =============================================================================

// EventFilter describes one event query. Zero values mean "no filter",
// except dates, which default to this week.
type EventFilter struct {
	// Email selects a single user's events. When blank, CallerEmail is
	// used in self-service contexts; when both are blank, all users match.
	Email       string
	CallerEmail string

	Period   PeriodRequest
	Tag      Tag
	Division string

	// IncludeUnapproved lifts the approved-only filter. Only review
	// surfaces (timepunch/vacation queues) set this.
	IncludeUnapproved bool

	// Ascending flips the default descending time order.
	Ascending bool
}

// =============================================================================
// QUERY ENGINE
// =============================================================================

type QueryEngine struct {
	Events EventStore
	Users  UserStore

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewQueryEngine(store Store) *QueryEngine {
	return &QueryEngine{Events: store, Users: store}
}

func (q *QueryEngine) now() time.Time {
	if q.Now != nil {
		return q.Now()
	}
	return time.Now()
}

// Query returns events matching the filter, ordered by time (descending
// unless f.Ascending). Unknown users, tags, or divisions yield an empty
// result, never an error.
func (q *QueryEngine) Query(ctx context.Context, f EventFilter) ([]Event, error) {
	period, err := f.Period.Resolve(q.now())
	if err != nil {
		return nil, err
	}

	// Resolve tag/user/division filters into user-id sets, intersecting
	// as we go. nil means "unconstrained"; an empty non-nil set means the
	// filter's target matched nothing.
	var ids []UserID

	if f.Tag != "" {
		users, err := q.Users.UsersByTag(ctx, f.Tag)
		if err != nil {
			return nil, err
		}
		ids = intersectUserIDs(ids, collectIDs(users))
	}

	email := f.Email
	if email == "" {
		email = f.CallerEmail
	}
	if email != "" {
		user, err := q.Users.UserByEmail(ctx, NormalizeEmail(email))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return []Event{}, nil
			}
			return nil, err
		}
		ids = intersectUserIDs(ids, []UserID{user.ID})
	}

	if f.Division != "" {
		users, err := q.Users.UsersByDivision(ctx, f.Division)
		if err != nil {
			return nil, err
		}
		ids = intersectUserIDs(ids, collectIDs(users))
	}

	if ids != nil && len(ids) == 0 {
		return []Event{}, nil
	}

	return q.Events.FindEvents(ctx, EventQuery{
		UserIDs:      ids,
		From:         &period.Start,
		To:           &period.End,
		ApprovedOnly: !f.IncludeUnapproved,
		Descending:   !f.Ascending,
	})
}

// QueryPeriod resolves the filter's period the same way Query does.
func (q *QueryEngine) QueryPeriod(f EventFilter) (Period, error) {
	return f.Period.Resolve(q.now())
}

func collectIDs(users []User) []UserID {
	ids := make([]UserID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

// intersectUserIDs combines constraint sets. nil means unconstrained.
func intersectUserIDs(a, b []UserID) []UserID {
	if a == nil {
		if b == nil {
			return nil
		}
		out := make([]UserID, len(b))
		copy(out, b)
		return out
	}
	if b == nil {
		return a
	}
	in := make(map[UserID]bool, len(b))
	for _, id := range b {
		in[id] = true
	}
	out := make([]UserID, 0, len(a))
	for _, id := range a {
		if in[id] {
			out = append(out, id)
		}
	}
	return out
}
