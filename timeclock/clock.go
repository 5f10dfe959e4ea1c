/*
clock.go - Clock in/out service

PURPOSE:
  Records clock actions. A clock action toggles the user's clocked-in
  state: the event direction is always the opposite of the current state,
  so a clocked-out user clocks IN and vice versa. Clock events are born
  approved (only timepunch requests need review).

OVERTIME:
  A user clocked in for more than 8 hours since their last IN event
  produces an overtime notification signal for their supervisor.
  Detection only; delivery is external.

SEE ALSO:
  - reconcile.go: How these events become work intervals
  - approval.go: Timepunch corrections to this log
*/
package timeclock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OvertimeThreshold is how long a user may be clocked in before an
// overtime signal is raised.
const OvertimeThreshold = 8 * time.Hour

type ClockService struct {
	Events   EventStore
	Users    UserStore
	Notifier Notifier

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewClockService(store Store, notifier Notifier) *ClockService {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &ClockService{Events: store, Users: store, Notifier: notifier}
}

func (s *ClockService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ClockInOut records a clock event for the user and toggles their
// clocked-in flag. Event insert and flag update are the only writes;
// the event is approved immediately.
func (s *ClockService) ClockInOut(ctx context.Context, userID UserID, note, ip string) (*Event, error) {
	if len(note) > MaxNoteLength {
		return nil, &ValidationError{Field: "note", Message: fmt.Sprintf("note exceeds %d characters", MaxNoteLength)}
	}

	user, err := s.Users.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	direction := DirectionIn
	if user.ClockedIn {
		direction = DirectionOut
	}

	event := Event{
		ID:        EventID(uuid.NewString()),
		UserID:    userID,
		Time:      s.now(),
		Direction: direction,
		Note:      note,
		IP:        ip,
		Approved:  true,
		CreatedAt: s.now(),
	}
	if err := s.Events.SaveEvent(ctx, event); err != nil {
		return nil, err
	}
	if err := s.Users.SetClockedIn(ctx, userID, direction == DirectionIn); err != nil {
		return nil, err
	}
	return &event, nil
}

// LastClock returns the user's most recent clock event, nil if they have
// never clocked in.
func (s *ClockService) LastClock(ctx context.Context, userID UserID) (*Event, error) {
	return s.Events.LastEvent(ctx, userID)
}

// ClockedInUsers returns everyone currently clocked in.
func (s *ClockService) ClockedInUsers(ctx context.Context) ([]User, error) {
	return s.Users.ClockedInUsers(ctx)
}

// CheckOvertime returns an overtime notification for the user's
// supervisor when the user has been clocked in past the threshold, nil
// otherwise.
func (s *ClockService) CheckOvertime(ctx context.Context, userID UserID) (*Notification, error) {
	user, err := s.Users.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.ClockedIn {
		return nil, nil
	}

	last, err := s.Events.LastEvent(ctx, userID)
	if err != nil {
		return nil, err
	}
	if last == nil || last.Direction != DirectionIn {
		return nil, nil
	}

	elapsed := s.now().Sub(last.Time)
	if elapsed <= OvertimeThreshold {
		return nil, nil
	}

	recipient := user.Email
	if user.SupervisorID != nil {
		if supervisor, err := s.Users.UserByID(ctx, *user.SupervisorID); err == nil {
			recipient = supervisor.Email
		}
	}

	return &Notification{
		Recipient: recipient,
		Subject:   fmt.Sprintf("Overtime: %s has been clocked in over 8 hours", user.FullName()),
		Context: map[string]string{
			"user":     user.Email,
			"since":    last.Time.Format(time.RFC3339),
			"duration": elapsed.String(),
		},
	}, nil
}

// NotifyOvertime runs detection and fires the notification when due.
func (s *ClockService) NotifyOvertime(ctx context.Context, userID UserID) error {
	n, err := s.CheckOvertime(ctx, userID)
	if err != nil || n == nil {
		return err
	}
	return s.Notifier.Notify(ctx, *n)
}
