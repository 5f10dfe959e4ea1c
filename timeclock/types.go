/*
Package timeclock provides the core time-accounting engine.

PURPOSE:
  This package contains the domain types and algorithms for reconstructing an
  employee's clock-in/clock-out timeline from a raw event log, resolving it
  into well-formed work intervals, matching pay rates active during the
  queried period, and computing worked hours and earnings.

KEY CONCEPTS IN THIS FILE (types.go):
  - Event: A single clock-in or clock-out record (or a pending timepunch request)
  - PayRate: A dollar-per-hour rate effective from a start date
  - User: An employee record with division, tag, and supervisor relation
  - Direction: Whether an event is a clock-in or a clock-out
  - VacationRequest: A supervisor-reviewed request for time off

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for all rate and hour arithmetic
  2. Type Safety: Strong typing for IDs prevents mixing user/event IDs
  3. Explicit Boundaries: Free-form request strings are parsed exactly once,
     at the system boundary, by ParseDirection/ParseRequestBool

USAGE:
  event := timeclock.Event{
      UserID:    "emp-123",
      Time:      time.Now().UTC(),
      Direction: timeclock.DirectionIn,
      Approved:  true,
  }

SEE ALSO:
  - reconcile.go: Pairing events into work intervals
  - calculator.go: Hours and earnings computation
  - store.go: Persistence interfaces
*/
package timeclock

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string
type EventID string
type PayRateID string
type VacationID string
type ChangeID string

// =============================================================================
// DIRECTION - Clock-in vs clock-out
// =============================================================================

type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == DirectionIn {
		return DirectionOut
	}
	return DirectionIn
}

// ParseDirection converts a raw request value into a Direction.
// This is the single boundary parser for direction values; the legacy
// frontend submitted "True"/"False" for in/out, so those spellings are
// still accepted alongside "in"/"out".
func ParseDirection(raw string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "in", "true", "1":
		return DirectionIn, nil
	case "out", "false", "0":
		return DirectionOut, nil
	default:
		return "", &ValidationError{Field: "direction", Message: fmt.Sprintf("unrecognized direction %q", raw)}
	}
}

// ParseRequestBool evaluates the boolean value of a request parameter.
// Unrecognized values fall back to the provided default.
func ParseRequestBool(raw string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "y", "yes", "on":
		return true
	case "false", "0", "n", "no", "off":
		return false
	default:
		return def
	}
}

// =============================================================================
// EVENT - A single clock record
// =============================================================================

// MaxNoteLength is the longest note accepted on a clock event.
const MaxNoteLength = 120

// Event is one clock-in or clock-out record for a user.
//
// INVARIANT: a user's events, ordered by time, should alternate in/out.
// Violations are a detectable error state (see reconcile.go), never
// silently resolved.
//
// Events are created on clock actions and timepunch requests, and mutated
// only by the approval workflow (Approved/Pending flags).
type Event struct {
	ID        EventID
	UserID    UserID
	Time      time.Time
	Direction Direction
	Note      string
	IP        string

	// Approval state. Clock actions are born approved; timepunch
	// requests are born pending and unapproved.
	Approved bool
	Pending  bool

	// TimepunchRequest marks a user-submitted correction to their own
	// event log, subject to supervisor approval.
	TimepunchRequest bool

	CreatedAt time.Time
}

// CountsTowardTimeline reports whether the event is visible to downstream
// consumers (history, timesheets, invoices).
func (e Event) CountsTowardTimeline() bool {
	return e.Approved && !e.Pending
}

// =============================================================================
// PAY RATE - Dollar-per-hour rate effective over a date range
// =============================================================================

// PayRate is a per-user hourly rate effective from Start. End may be unset.
// Rows are not required to be contiguous or non-overlapping; the resolver
// tolerates gaps (see payrate.go).
type PayRate struct {
	ID     PayRateID
	UserID UserID
	Rate   decimal.Decimal
	Start  time.Time
	End    *time.Time

	CreatedAt time.Time
}

// =============================================================================
// USER - Employee record
// =============================================================================

type Role string

const (
	RoleUser          Role = "User"
	RoleAdministrator Role = "Administrator"
)

// Tag is an employment-category label used for filtering and reporting.
type Tag string

const (
	TagIntern     Tag = "Intern"
	TagContractor Tag = "Contractor"
	TagSYEP       Tag = "SYEP"
	TagPENCIL     Tag = "PENCIL"
	TagEmployee   Tag = "Employee"
	TagVolunteer  Tag = "Volunteer"
	TagOther      Tag = "Other"
)

// Tags is the catalog of recognized employment categories.
var Tags = []Tag{TagIntern, TagContractor, TagSYEP, TagPENCIL, TagEmployee, TagVolunteer, TagOther}

// Divisions is the catalog of department divisions.
var Divisions = []string{
	"Administration",
	"Archives",
	"Executive",
	"External Affairs",
	"IT",
	"Library",
	"Records Management",
	"Reference Room",
}

// User is an employee or administrator account.
// SupervisorID is a back-reference only (lookup, not ownership) and must
// never point at the user itself.
type User struct {
	ID           UserID
	Email        string // unique, lowercase-normalized
	FirstName    string
	LastName     string
	Division     string
	Tag          Tag
	Role         Role
	SupervisorID *UserID
	IsSupervisor bool
	IsActive     bool
	ClockedIn    bool

	BudgetCode string
	ObjectCode string
	ObjectName string

	CreatedAt time.Time
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FullName returns "First Last".
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// =============================================================================
// VACATION REQUEST - Supervisor-reviewed time off
// =============================================================================

// VacationRequest follows the same pending -> approved/denied lifecycle as
// timepunch requests.
type VacationRequest struct {
	ID       VacationID
	UserID   UserID
	Start    time.Time
	End      time.Time
	Reason   string
	Approved bool
	Pending  bool

	CreatedAt time.Time
}

// =============================================================================
// CHANGE LOG - Append-only audit rows for profile edits
// =============================================================================

// ChangeEntry records a single field edit on a user profile.
// Write-once, read-many; entries are never mutated.
type ChangeEntry struct {
	ID        ChangeID
	UserID    UserID
	Field     string
	Old       string
	New       string
	ChangedBy UserID
	Timestamp time.Time
}

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

// Round2 rounds to two decimal places. Presentation only: accumulation is
// always done on unrounded decimals to avoid compounding rounding error.
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// MustParseDecimal parses a decimal string, returning zero on failure.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
