/*
store.go - Persistence interfaces for the time-accounting engine

PURPOSE:
  Defines the interface between the engine and the database. Any SQL-capable
  store satisfying these query shapes (range filter, equality filter,
  ordering) is sufficient.

INTERFACES:
  EventStore:     Clock event persistence and range queries
  PayRateStore:   Per-user rate records
  UserStore:      Employee records and tag/division lookups
  VacationStore:  Vacation request lifecycle
  ChangeLogStore: Append-only profile-edit audit rows
  Store:          All of the above (what implementations provide)

MUTATION CONTRACT:
  Each mutation (event insert, approval flag update) is a single atomic
  write. Events are never deleted except by explicit admin action, and the
  only in-place mutation is the approval flag transition. ChangeLog rows
  are write-once.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite
  - timeclock/store: In-memory for testing

SEE ALSO:
  - query.go: Higher-level filtering built on EventStore
*/
package timeclock

import (
	"context"
	"time"
)

// =============================================================================
// EVENT STORE
// =============================================================================

// EventQuery is the low-level store filter. Nil fields mean "no filter".
// The date range is half-open: Time >= From, Time < To.
type EventQuery struct {
	UserIDs      []UserID // nil = all users; empty non-nil = match nothing
	From         *time.Time
	To           *time.Time
	ApprovedOnly bool
	PendingOnly  bool
	Timepunches  bool // restrict to timepunch requests
	Descending   bool // order by time descending (default ascending)
}

type EventStore interface {
	// SaveEvent inserts a new event. Single atomic write.
	SaveEvent(ctx context.Context, e Event) error

	// EventByID returns the event or ErrNotFound.
	EventByID(ctx context.Context, id EventID) (*Event, error)

	// FindEvents returns events matching the query, ordered by time.
	FindEvents(ctx context.Context, q EventQuery) ([]Event, error)

	// LastEvent returns the most recent event for a user, nil if none.
	LastEvent(ctx context.Context, userID UserID) (*Event, error)

	// UpdateApproval sets approved=decision and pending=false.
	// This is the only in-place mutation on events.
	UpdateApproval(ctx context.Context, id EventID, approved bool) error

	// DeleteEvent removes an event. Explicit admin action only.
	DeleteEvent(ctx context.Context, id EventID) error
}

// =============================================================================
// PAY RATE STORE
// =============================================================================

type PayRateStore interface {
	// SavePayRate inserts a rate record. Rates are immutable once created.
	SavePayRate(ctx context.Context, r PayRate) error

	// PayRatesByUser returns all rates for a user, ordered by Start ascending.
	PayRatesByUser(ctx context.Context, userID UserID) ([]PayRate, error)
}

// =============================================================================
// USER STORE
// =============================================================================

type UserStore interface {
	SaveUser(ctx context.Context, u User) error
	UpdateUser(ctx context.Context, u User) error

	// UserByID returns the user or ErrNotFound.
	UserByID(ctx context.Context, id UserID) (*User, error)

	// UserByEmail returns the user or ErrNotFound. Emails are matched
	// lowercase-normalized.
	UserByEmail(ctx context.Context, email string) (*User, error)

	// UsersByTag returns users carrying the tag. Empty slice if none.
	UsersByTag(ctx context.Context, tag Tag) ([]User, error)

	// UsersByDivision returns users in the division. Empty slice if none.
	UsersByDivision(ctx context.Context, division string) ([]User, error)

	// UsersSupervisedBy returns users whose supervisor is the given user.
	UsersSupervisedBy(ctx context.Context, supervisorID UserID) ([]User, error)

	// ClockedInUsers returns all currently clocked-in users.
	ClockedInUsers(ctx context.Context) ([]User, error)

	// SetClockedIn flips the clocked-in flag.
	SetClockedIn(ctx context.Context, id UserID, clockedIn bool) error
}

// =============================================================================
// VACATION STORE
// =============================================================================

type VacationStore interface {
	SaveVacation(ctx context.Context, v VacationRequest) error

	// VacationByID returns the request or ErrNotFound.
	VacationByID(ctx context.Context, id VacationID) (*VacationRequest, error)

	// PendingVacations returns pending requests from the given users.
	PendingVacations(ctx context.Context, userIDs []UserID) ([]VacationRequest, error)

	// UpdateVacationApproval sets approved=decision and pending=false.
	UpdateVacationApproval(ctx context.Context, id VacationID, approved bool) error
}

// =============================================================================
// CHANGE LOG STORE - Append-only
// =============================================================================

type ChangeLogStore interface {
	// AppendChange records a profile edit. Write-once; no update, no delete.
	AppendChange(ctx context.Context, entry ChangeEntry) error

	// ChangesForUser returns audit rows for a user, newest first.
	ChangesForUser(ctx context.Context, userID UserID) ([]ChangeEntry, error)
}

// =============================================================================
// AGGREGATE STORE
// =============================================================================

// Store is what full implementations provide.
type Store interface {
	EventStore
	PayRateStore
	UserStore
	VacationStore
	ChangeLogStore
}
