/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request bodies carry validator struct tags and are checked with
  go-playground/validator in handlers before any domain call. Dates use
  YYYY-MM-DD; timestamps use RFC3339.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/timeclock-engine/timeclock"
)

const dateLayout = "2006-01-02"

// =============================================================================
// CLOCK
// =============================================================================

type ClockRequest struct {
	Email string `json:"email" validate:"required,email"`
	Note  string `json:"note" validate:"max=120"`
}

type EventDTO struct {
	ID               string `json:"id"`
	UserID           string `json:"user_id"`
	Time             string `json:"time"`
	Direction        string `json:"direction"`
	Note             string `json:"note,omitempty"`
	IP               string `json:"ip,omitempty"`
	Approved         bool   `json:"approved"`
	Pending          bool   `json:"pending"`
	TimepunchRequest bool   `json:"timepunch_request"`
}

func toEventDTO(e timeclock.Event) EventDTO {
	return EventDTO{
		ID:               string(e.ID),
		UserID:           string(e.UserID),
		Time:             e.Time.UTC().Format(time.RFC3339),
		Direction:        string(e.Direction),
		Note:             e.Note,
		IP:               e.IP,
		Approved:         e.Approved,
		Pending:          e.Pending,
		TimepunchRequest: e.TimepunchRequest,
	}
}

type ClockStatusDTO struct {
	Email     string    `json:"email"`
	ClockedIn bool      `json:"clocked_in"`
	LastClock *EventDTO `json:"last_clock,omitempty"`
}

// =============================================================================
// TIMEPUNCH / VACATION REQUESTS
// =============================================================================

type TimepunchRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Direction string `json:"direction" validate:"required"`
	Time      string `json:"time" validate:"required"`
	Reason    string `json:"reason" validate:"max=120"`
}

type VacationRequestBody struct {
	Email  string `json:"email" validate:"required,email"`
	Start  string `json:"start" validate:"required"`
	End    string `json:"end" validate:"required"`
	Reason string `json:"reason" validate:"max=500"`
}

type VacationDTO struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Reason   string `json:"reason,omitempty"`
	Approved bool   `json:"approved"`
	Pending  bool   `json:"pending"`
}

func toVacationDTO(v timeclock.VacationRequest) VacationDTO {
	return VacationDTO{
		ID:       string(v.ID),
		UserID:   string(v.UserID),
		Start:    v.Start.UTC().Format(dateLayout),
		End:      v.End.UTC().Format(dateLayout),
		Reason:   v.Reason,
		Approved: v.Approved,
		Pending:  v.Pending,
	}
}

type DecisionRequest struct {
	Approve bool `json:"approve"`
}

// =============================================================================
// USERS
// =============================================================================

type UserDTO struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Division     string `json:"division,omitempty"`
	Tag          string `json:"tag,omitempty"`
	Role         string `json:"role"`
	SupervisorID string `json:"supervisor_id,omitempty"`
	IsSupervisor bool   `json:"is_supervisor"`
	IsActive     bool   `json:"is_active"`
	ClockedIn    bool   `json:"clocked_in"`
	BudgetCode   string `json:"budget_code,omitempty"`
	ObjectCode   string `json:"object_code,omitempty"`
	ObjectName   string `json:"object_name,omitempty"`
}

func toUserDTO(u timeclock.User) UserDTO {
	dto := UserDTO{
		ID:           string(u.ID),
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Division:     u.Division,
		Tag:          string(u.Tag),
		Role:         string(u.Role),
		IsSupervisor: u.IsSupervisor,
		IsActive:     u.IsActive,
		ClockedIn:    u.ClockedIn,
		BudgetCode:   u.BudgetCode,
		ObjectCode:   u.ObjectCode,
		ObjectName:   u.ObjectName,
	}
	if u.SupervisorID != nil {
		dto.SupervisorID = string(*u.SupervisorID)
	}
	return dto
}

type CreateUserRequest struct {
	Email        string `json:"email" validate:"required,email"`
	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name" validate:"required"`
	Division     string `json:"division"`
	Tag          string `json:"tag"`
	Role         string `json:"role" validate:"omitempty,oneof=User Administrator"`
	SupervisorID string `json:"supervisor_id"`
	IsSupervisor bool   `json:"is_supervisor"`
	BudgetCode   string `json:"budget_code"`
	ObjectCode   string `json:"object_code"`
	ObjectName   string `json:"object_name"`
}

type UpdateUserRequest struct {
	Email        string `json:"email" validate:"required,email"`
	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name" validate:"required"`
	Division     string `json:"division"`
	Tag          string `json:"tag"`
	Role         string `json:"role" validate:"omitempty,oneof=User Administrator"`
	SupervisorID string `json:"supervisor_id"`
	IsSupervisor bool   `json:"is_supervisor"`
	IsActive     bool   `json:"is_active"`
	BudgetCode   string `json:"budget_code"`
	ObjectCode   string `json:"object_code"`
	ObjectName   string `json:"object_name"`
}

type CreatePayRateRequest struct {
	Rate  string `json:"rate" validate:"required"`
	Start string `json:"start" validate:"required"`
	End   string `json:"end"`
}

type PayRateDTO struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Rate   string `json:"rate"`
	Start  string `json:"start"`
	End    string `json:"end,omitempty"`
}

func toPayRateDTO(r timeclock.PayRate) PayRateDTO {
	dto := PayRateDTO{
		ID:     string(r.ID),
		UserID: string(r.UserID),
		Rate:   r.Rate.StringFixed(2),
		Start:  r.Start.UTC().Format(dateLayout),
	}
	if r.End != nil {
		dto.End = r.End.UTC().Format(dateLayout)
	}
	return dto
}

type ChangeEntryDTO struct {
	Field     string `json:"field"`
	Old       string `json:"old"`
	New       string `json:"new"`
	ChangedBy string `json:"changed_by"`
	Timestamp string `json:"timestamp"`
}

func toChangeEntryDTO(e timeclock.ChangeEntry) ChangeEntryDTO {
	return ChangeEntryDTO{
		Field:     e.Field,
		Old:       e.Old,
		New:       e.New,
		ChangedBy: string(e.ChangedBy),
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
	}
}

// =============================================================================
// STATEMENTS (timesheet/invoice)
// =============================================================================

type DayEntryDTO struct {
	Date     string `json:"date"`
	TimeIn   string `json:"time_in"`
	TimeOut  string `json:"time_out"`
	Hours    string `json:"hours"`
	Rate     string `json:"rate,omitempty"`
	Earnings string `json:"earnings,omitempty"`
}

type StatementDTO struct {
	Email         string        `json:"email"`
	Start         string        `json:"start"`
	End           string        `json:"end"`
	Days          []DayEntryDTO `json:"days"`
	TotalHours    string        `json:"total_hours"`
	TotalEarnings string        `json:"total_earnings,omitempty"`
}

// toStatementDTO renders the rounded presentation copy. withPay controls
// whether rate/earnings columns are included (invoices) or left off
// (timesheets).
func toStatementDTO(s *timeclock.Statement, withPay bool) StatementDTO {
	rounded := s.Rounded()
	dto := StatementDTO{
		Email:      rounded.Email,
		Start:      rounded.Period.Start.Format(dateLayout),
		End:        rounded.Period.End.Format(dateLayout),
		Days:       make([]DayEntryDTO, 0, len(rounded.Days)),
		TotalHours: rounded.TotalHours.StringFixed(2),
	}
	if withPay {
		dto.TotalEarnings = rounded.TotalEarnings.StringFixed(2)
	}
	for _, d := range rounded.Days {
		entry := DayEntryDTO{
			Date:    d.Date.Format(dateLayout),
			TimeIn:  d.TimeIn.Format("15:04"),
			TimeOut: d.TimeOut.Format("15:04"),
			Hours:   d.Hours.StringFixed(2),
		}
		if withPay {
			entry.Rate = d.Rate.StringFixed(2)
			entry.Earnings = d.Earnings.StringFixed(2)
		}
		dto.Days = append(dto.Days, entry)
	}
	return dto
}

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
}
