/*
approval.go - Approval workflow for timepunch and vacation requests

PURPOSE:
  State transitions for supervisor-reviewed requests:

      PENDING ──▶ APPROVED
      PENDING ──▶ DENIED

  Terminal once resolved: there is no un-approve transition in the engine.
  Re-opening requires a new request.

IDEMPOTENCE:
  Re-invoking a transition with the same decision is a no-op, not an
  error. Two supervisors approving concurrently resolve as "last write
  wins, but idempotent": the first writer determines the decision; a
  second invocation that agrees is a no-op, one that disagrees is a
  logged anomaly and leaves the stored decision unchanged.

VISIBILITY:
  A denied request remains in the event store but fails the approved-only
  filter, so it never reaches history views or the calculator.

SEE ALSO:
  - query.go: Approved-only filtering
  - notify.go: Supervisor notification on submission
*/
package timeclock

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

type ApprovalService struct {
	Events    EventStore
	Vacations VacationStore
	Users     UserStore
	Notifier  Notifier

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewApprovalService(store Store, notifier Notifier) *ApprovalService {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &ApprovalService{Events: store, Vacations: store, Users: store, Notifier: notifier}
}

func (s *ApprovalService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// =============================================================================
// TIMEPUNCH REQUESTS
// =============================================================================

// SubmitTimepunch records a pending, unapproved event flagged as a
// timepunch request and signals the user's supervisor for review.
func (s *ApprovalService) SubmitTimepunch(ctx context.Context, userID UserID, direction Direction, punchTime time.Time, reason string) (*Event, error) {
	if len(reason) > MaxNoteLength {
		return nil, &ValidationError{Field: "reason", Message: fmt.Sprintf("note exceeds %d characters", MaxNoteLength)}
	}

	user, err := s.Users.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	event := Event{
		ID:               EventID(uuid.NewString()),
		UserID:           userID,
		Time:             punchTime,
		Direction:        direction,
		Note:             reason,
		Approved:         false,
		Pending:          true,
		TimepunchRequest: true,
		CreatedAt:        s.now(),
	}
	if err := s.Events.SaveEvent(ctx, event); err != nil {
		return nil, err
	}

	s.notifySupervisor(ctx, user, Notification{
		Subject: fmt.Sprintf("TimePunch Request from %s", user.FullName()),
		Context: map[string]string{
			"user":       user.Email,
			"punch_time": punchTime.Format(time.RFC3339),
			"direction":  string(direction),
			"note":       reason,
		},
	})

	return &event, nil
}

// TimepunchesForReview returns pending timepunch requests submitted by
// users supervised by the given supervisor.
func (s *ApprovalService) TimepunchesForReview(ctx context.Context, supervisorEmail string) ([]Event, error) {
	supervisor, err := s.Users.UserByEmail(ctx, NormalizeEmail(supervisorEmail))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []Event{}, nil
		}
		return nil, err
	}

	reports, err := s.Users.UsersSupervisedBy(ctx, supervisor.ID)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return []Event{}, nil
	}

	return s.Events.FindEvents(ctx, EventQuery{
		UserIDs:     collectIDs(reports),
		PendingOnly: true,
		Timepunches: true,
	})
}

// ApproveOrDeny resolves a pending timepunch request. Idempotent: an
// agreeing repeat is a no-op; a disagreeing decision on an already
// resolved request is logged and ignored.
func (s *ApprovalService) ApproveOrDeny(ctx context.Context, id EventID, approve bool) (*Event, error) {
	event, err := s.Events.EventByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !event.Pending {
		if event.Approved != approve {
			log.Printf("[Approval] conflicting decision on resolved event %s (stored approved=%t, requested=%t)",
				id, event.Approved, approve)
		}
		return event, nil
	}

	if err := s.Events.UpdateApproval(ctx, id, approve); err != nil {
		return nil, err
	}
	event.Approved = approve
	event.Pending = false
	return event, nil
}

// =============================================================================
// VACATION REQUESTS
// =============================================================================

// SubmitVacation records a pending vacation request and signals the
// user's supervisor.
func (s *ApprovalService) SubmitVacation(ctx context.Context, userID UserID, start, end time.Time, reason string) (*VacationRequest, error) {
	if !start.Before(end) {
		return nil, &ValidationError{Field: "period", Message: "end date must be after start date"}
	}

	user, err := s.Users.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	request := VacationRequest{
		ID:        VacationID(uuid.NewString()),
		UserID:    userID,
		Start:     start,
		End:       end,
		Reason:    reason,
		Pending:   true,
		CreatedAt: s.now(),
	}
	if err := s.Vacations.SaveVacation(ctx, request); err != nil {
		return nil, err
	}

	s.notifySupervisor(ctx, user, Notification{
		Subject: fmt.Sprintf("Vacation Request from %s", user.FullName()),
		Context: map[string]string{
			"user":  user.Email,
			"start": start.Format("2006-01-02"),
			"end":   end.Format("2006-01-02"),
			"note":  reason,
		},
	})

	return &request, nil
}

// VacationsForReview returns pending vacation requests from the
// supervisor's reports.
func (s *ApprovalService) VacationsForReview(ctx context.Context, supervisorEmail string) ([]VacationRequest, error) {
	supervisor, err := s.Users.UserByEmail(ctx, NormalizeEmail(supervisorEmail))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []VacationRequest{}, nil
		}
		return nil, err
	}

	reports, err := s.Users.UsersSupervisedBy(ctx, supervisor.ID)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return []VacationRequest{}, nil
	}

	return s.Vacations.PendingVacations(ctx, collectIDs(reports))
}

// ApproveOrDenyVacation resolves a pending vacation request with the
// same idempotence semantics as ApproveOrDeny.
func (s *ApprovalService) ApproveOrDenyVacation(ctx context.Context, id VacationID, approve bool) (*VacationRequest, error) {
	request, err := s.Vacations.VacationByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !request.Pending {
		if request.Approved != approve {
			log.Printf("[Approval] conflicting decision on resolved vacation %s (stored approved=%t, requested=%t)",
				id, request.Approved, approve)
		}
		return request, nil
	}

	if err := s.Vacations.UpdateVacationApproval(ctx, id, approve); err != nil {
		return nil, err
	}
	request.Approved = approve
	request.Pending = false
	return request, nil
}

// notifySupervisor resolves the recipient and fires the notification.
// Best-effort: failures are logged, never propagated.
func (s *ApprovalService) notifySupervisor(ctx context.Context, user *User, n Notification) {
	if user.SupervisorID == nil {
		log.Printf("[Approval] user %s has no supervisor, skipping notification", user.Email)
		return
	}
	supervisor, err := s.Users.UserByID(ctx, *user.SupervisorID)
	if err != nil {
		log.Printf("[Approval] failed to resolve supervisor for %s: %v", user.Email, err)
		return
	}
	n.Recipient = supervisor.Email
	if err := s.Notifier.Notify(ctx, n); err != nil {
		log.Printf("[Approval] notification to %s failed: %v", supervisor.Email, err)
	}
}
