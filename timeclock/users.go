/*
users.go - User administration

PURPOSE:
  Admin operations on employee records: creation with lowercase-normalized
  unique emails, profile updates with append-only change logging,
  supervisor assignment (self-supervision rejected), and pay rate
  creation.

CHANGE LOG:
  Every profile edit writes one ChangeEntry per changed field:
  (field, old, new, changed_by, timestamp). Entries are write-once and
  never mutated.

SEE ALSO:
  - store.go: UserStore / ChangeLogStore / PayRateStore interfaces
*/
package timeclock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type UserService struct {
	Users   UserStore
	Changes ChangeLogStore
	Rates   PayRateStore

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewUserService(store Store) *UserService {
	return &UserService{Users: store, Changes: store, Rates: store}
}

func (s *UserService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create registers a new user. The email is lowercase-normalized and
// must be unique; self-supervision is rejected.
func (s *UserService) Create(ctx context.Context, u User) (*User, error) {
	u.Email = NormalizeEmail(u.Email)
	if u.Email == "" {
		return nil, &ValidationError{Field: "email", Message: "email is required"}
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.ID == "" {
		u.ID = UserID(uuid.NewString())
	}
	if u.SupervisorID != nil && *u.SupervisorID == u.ID {
		return nil, ErrSelfSupervision
	}
	u.CreatedAt = s.now()

	if _, err := s.Users.UserByEmail(ctx, u.Email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if err := s.Users.SaveUser(ctx, u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Update applies profile edits and records one change-log entry per
// changed field, attributed to the acting user.
func (s *UserService) Update(ctx context.Context, actorID UserID, updated User) (*User, error) {
	current, err := s.Users.UserByID(ctx, updated.ID)
	if err != nil {
		return nil, err
	}

	updated.Email = NormalizeEmail(updated.Email)
	if updated.SupervisorID != nil && *updated.SupervisorID == updated.ID {
		return nil, ErrSelfSupervision
	}
	// Creation metadata and clock state are not editable here.
	updated.CreatedAt = current.CreatedAt
	updated.ClockedIn = current.ClockedIn

	changes := diffUsers(*current, updated)
	if err := s.Users.UpdateUser(ctx, updated); err != nil {
		return nil, err
	}

	now := s.now()
	for _, ch := range changes {
		entry := ChangeEntry{
			ID:        ChangeID(uuid.NewString()),
			UserID:    updated.ID,
			Field:     ch.field,
			Old:       ch.old,
			New:       ch.new,
			ChangedBy: actorID,
			Timestamp: now,
		}
		if err := s.Changes.AppendChange(ctx, entry); err != nil {
			return nil, err
		}
	}

	return &updated, nil
}

// SetSupervisor assigns a supervisor, rejecting self-reference.
func (s *UserService) SetSupervisor(ctx context.Context, actorID, userID, supervisorID UserID) (*User, error) {
	if userID == supervisorID {
		return nil, ErrSelfSupervision
	}
	user, err := s.Users.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Users.UserByID(ctx, supervisorID); err != nil {
		return nil, err
	}
	updated := *user
	updated.SupervisorID = &supervisorID
	return s.Update(ctx, actorID, updated)
}

// AddPayRate creates an immutable pay rate record for a user.
func (s *UserService) AddPayRate(ctx context.Context, userID UserID, rate decimal.Decimal, start time.Time, end *time.Time) (*PayRate, error) {
	if rate.IsNegative() {
		return nil, &ValidationError{Field: "rate", Message: "rate must not be negative"}
	}
	if end != nil && end.Before(start) {
		return nil, &ValidationError{Field: "end", Message: "end date must not precede start date"}
	}
	if _, err := s.Users.UserByID(ctx, userID); err != nil {
		return nil, err
	}

	record := PayRate{
		ID:        PayRateID(uuid.NewString()),
		UserID:    userID,
		Rate:      rate,
		Start:     start,
		End:       end,
		CreatedAt: s.now(),
	}
	if err := s.Rates.SavePayRate(ctx, record); err != nil {
		return nil, err
	}
	return &record, nil
}

// History returns the user's profile-edit audit trail, newest first.
func (s *UserService) History(ctx context.Context, userID UserID) ([]ChangeEntry, error) {
	return s.Changes.ChangesForUser(ctx, userID)
}

// =============================================================================
// FIELD DIFF
// =============================================================================

type fieldChange struct {
	field string
	old   string
	new   string
}

func diffUsers(old, new User) []fieldChange {
	var changes []fieldChange
	add := func(field, o, n string) {
		if o != n {
			changes = append(changes, fieldChange{field: field, old: o, new: n})
		}
	}

	add("email", old.Email, new.Email)
	add("first_name", old.FirstName, new.FirstName)
	add("last_name", old.LastName, new.LastName)
	add("division", old.Division, new.Division)
	add("tag", string(old.Tag), string(new.Tag))
	add("role", string(old.Role), string(new.Role))
	add("supervisor", userIDString(old.SupervisorID), userIDString(new.SupervisorID))
	add("is_supervisor", boolString(old.IsSupervisor), boolString(new.IsSupervisor))
	add("is_active", boolString(old.IsActive), boolString(new.IsActive))
	add("budget_code", old.BudgetCode, new.BudgetCode)
	add("object_code", old.ObjectCode, new.ObjectCode)
	add("object_name", old.ObjectName, new.ObjectName)

	return changes
}

func userIDString(id *UserID) string {
	if id == nil {
		return ""
	}
	return string(*id)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
