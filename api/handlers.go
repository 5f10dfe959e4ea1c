/*
handlers.go - HTTP API handlers for the timeclock engine

PURPOSE:
  Exposes the time-accounting engine via REST. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Clock:
    POST   /api/clock                   Clock in or out (toggles state)
    GET    /api/clock/status            Clock state + last event for a user
    GET    /api/clock/active            Currently clocked-in users

  Events:
    GET    /api/events                  Filtered event history

  Timepunches:
    POST   /api/timepunches             Submit a timepunch request
    GET    /api/timepunches/review      Pending requests for a supervisor
    POST   /api/timepunches/{id}/approve
    POST   /api/timepunches/{id}/deny

  Vacations:
    POST   /api/vacations               Submit a vacation request
    GET    /api/vacations/review        Pending requests for a supervisor
    POST   /api/vacations/{id}/approve
    POST   /api/vacations/{id}/deny

  Users (admin):
    POST   /api/users                   Create user
    PUT    /api/users/{id}              Update user (change-logged)
    GET    /api/users/{id}/history      Profile-edit audit trail
    POST   /api/users/{id}/payrates     Create pay rate
    GET    /api/users/{id}/payrates     List pay rates

  Reports:
    GET    /api/reports/timesheet       Hours-only statement
    GET    /api/reports/invoice         Hours + earnings statement

ERROR HANDLING:
  Domain errors map to HTTP status by class:
  - 400: Validation errors, invalid input
  - 404: Unknown record in a direct lookup
  - 409: Duplicate email
  - 422: Correctable data conditions (mismatched clocks, missing pay
         rate), each with an actionable hint

IDENTITY:
  No authentication (out of scope). Self-service defaults read the
  caller identity from the X-User-Email header set by the fronting
  proxy.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/warp/timeclock-engine/timeclock"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      timeclock.Store
	Clock      *timeclock.ClockService
	Approvals  *timeclock.ApprovalService
	Users      *timeclock.UserService
	Queries    *timeclock.QueryEngine
	Calculator *timeclock.Calculator

	validate *validator.Validate
}

// NewHandler wires the engine services over the given store.
func NewHandler(store timeclock.Store, notifier timeclock.Notifier) *Handler {
	return &Handler{
		Store:      store,
		Clock:      timeclock.NewClockService(store, notifier),
		Approvals:  timeclock.NewApprovalService(store, notifier),
		Users:      timeclock.NewUserService(store),
		Queries:    timeclock.NewQueryEngine(store),
		Calculator: timeclock.NewCalculator(store),
		validate:   validator.New(),
	}
}

// =============================================================================
// CLOCK
// =============================================================================

func (h *Handler) ClockInOut(w http.ResponseWriter, r *http.Request) {
	var req ClockRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.Store.UserByEmail(r.Context(), req.Email)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	event, err := h.Clock.ClockInOut(r.Context(), user.ID, req.Note, clientIP(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	// Overtime detection piggybacks on clock actions; best-effort.
	_ = h.Clock.NotifyOvertime(r.Context(), user.ID)

	writeJSON(w, http.StatusCreated, toEventDTO(*event))
}

func (h *Handler) ClockStatus(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		email = callerEmail(r)
	}
	user, err := h.Store.UserByEmail(r.Context(), email)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	last, err := h.Clock.LastClock(r.Context(), user.ID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	status := ClockStatusDTO{Email: user.Email, ClockedIn: user.ClockedIn}
	if last != nil {
		dto := toEventDTO(*last)
		status.LastClock = &dto
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) ActiveUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Clock.ClockedInUsers(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	dtos := make([]UserDTO, 0, len(users))
	for _, u := range users {
		dtos = append(dtos, toUserDTO(u))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// EVENTS
// =============================================================================

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	filter, err := h.filterFromQuery(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	events, err := h.Queries.Query(r.Context(), filter)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	dtos := make([]EventDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, toEventDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// filterFromQuery builds an explicit EventFilter from URL parameters.
// Accepted: email, tag, division, period (symbolic code), first_date,
// last_date (YYYY-MM-DD, both inclusive; first_date == last_date selects
// a single day).
func (h *Handler) filterFromQuery(r *http.Request) (timeclock.EventFilter, error) {
	q := r.URL.Query()
	filter := timeclock.EventFilter{
		Email:       q.Get("email"),
		CallerEmail: callerEmail(r),
		Tag:         timeclock.Tag(q.Get("tag")),
		Division:    q.Get("division"),
	}

	first, last := q.Get("first_date"), q.Get("last_date")
	switch {
	case first != "" || last != "":
		start, err := parseDate(first, "first_date")
		if err != nil {
			return filter, err
		}
		end, err := parseDate(last, "last_date")
		if err != nil {
			return filter, err
		}
		// Inclusive last_date becomes the exclusive upper bound.
		filter.Period = timeclock.ExplicitPeriod(start, end.AddDate(0, 0, 1))
	default:
		filter.Period = timeclock.NamedPeriod(timeclock.PeriodCode(q.Get("period")))
	}
	return filter, nil
}

// =============================================================================
// TIMEPUNCHES
// =============================================================================

func (h *Handler) SubmitTimepunch(w http.ResponseWriter, r *http.Request) {
	var req TimepunchRequest
	if !h.decode(w, r, &req) {
		return
	}

	direction, err := timeclock.ParseDirection(req.Direction)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	punchTime, err := time.Parse(time.RFC3339, req.Time)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid time format (use RFC3339)", err)
		return
	}

	user, err := h.Store.UserByEmail(r.Context(), req.Email)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	event, err := h.Approvals.SubmitTimepunch(r.Context(), user.ID, direction, punchTime, req.Reason)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventDTO(*event))
}

func (h *Handler) TimepunchesForReview(w http.ResponseWriter, r *http.Request) {
	supervisor := r.URL.Query().Get("supervisor")
	if supervisor == "" {
		supervisor = callerEmail(r)
	}
	events, err := h.Approvals.TimepunchesForReview(r.Context(), supervisor)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	dtos := make([]EventDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, toEventDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) ApproveTimepunch(w http.ResponseWriter, r *http.Request) {
	h.decideTimepunch(w, r, true)
}

func (h *Handler) DenyTimepunch(w http.ResponseWriter, r *http.Request) {
	h.decideTimepunch(w, r, false)
}

func (h *Handler) decideTimepunch(w http.ResponseWriter, r *http.Request, approve bool) {
	id := timeclock.EventID(chi.URLParam(r, "id"))
	event, err := h.Approvals.ApproveOrDeny(r.Context(), id, approve)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTO(*event))
}

// =============================================================================
// VACATIONS
// =============================================================================

func (h *Handler) SubmitVacation(w http.ResponseWriter, r *http.Request) {
	var req VacationRequestBody
	if !h.decode(w, r, &req) {
		return
	}

	start, err := parseDate(req.Start, "start")
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	end, err := parseDate(req.End, "end")
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	user, err := h.Store.UserByEmail(r.Context(), req.Email)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	vacation, err := h.Approvals.SubmitVacation(r.Context(), user.ID, start, end, req.Reason)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toVacationDTO(*vacation))
}

func (h *Handler) VacationsForReview(w http.ResponseWriter, r *http.Request) {
	supervisor := r.URL.Query().Get("supervisor")
	if supervisor == "" {
		supervisor = callerEmail(r)
	}
	vacations, err := h.Approvals.VacationsForReview(r.Context(), supervisor)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	dtos := make([]VacationDTO, 0, len(vacations))
	for _, v := range vacations {
		dtos = append(dtos, toVacationDTO(v))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) ApproveVacation(w http.ResponseWriter, r *http.Request) {
	h.decideVacation(w, r, true)
}

func (h *Handler) DenyVacation(w http.ResponseWriter, r *http.Request) {
	h.decideVacation(w, r, false)
}

func (h *Handler) decideVacation(w http.ResponseWriter, r *http.Request, approve bool) {
	id := timeclock.VacationID(chi.URLParam(r, "id"))
	vacation, err := h.Approvals.ApproveOrDenyVacation(r.Context(), id, approve)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVacationDTO(*vacation))
}

// =============================================================================
// USERS
// =============================================================================

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	user := timeclock.User{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Division:     req.Division,
		Tag:          timeclock.Tag(req.Tag),
		Role:         timeclock.Role(req.Role),
		IsSupervisor: req.IsSupervisor,
		IsActive:     true,
		BudgetCode:   req.BudgetCode,
		ObjectCode:   req.ObjectCode,
		ObjectName:   req.ObjectName,
	}
	if req.SupervisorID != "" {
		id := timeclock.UserID(req.SupervisorID)
		user.SupervisorID = &id
	}

	created, err := h.Users.Create(r.Context(), user)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(*created))
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	updated := timeclock.User{
		ID:           timeclock.UserID(chi.URLParam(r, "id")),
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Division:     req.Division,
		Tag:          timeclock.Tag(req.Tag),
		Role:         timeclock.Role(req.Role),
		IsSupervisor: req.IsSupervisor,
		IsActive:     req.IsActive,
		BudgetCode:   req.BudgetCode,
		ObjectCode:   req.ObjectCode,
		ObjectName:   req.ObjectName,
	}
	if req.SupervisorID != "" {
		id := timeclock.UserID(req.SupervisorID)
		updated.SupervisorID = &id
	}

	actor := timeclock.UserID(callerEmail(r))
	if caller, err := h.Store.UserByEmail(r.Context(), callerEmail(r)); err == nil {
		actor = caller.ID
	}

	user, err := h.Users.Update(r.Context(), actor, updated)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(*user))
}

func (h *Handler) UserHistory(w http.ResponseWriter, r *http.Request) {
	id := timeclock.UserID(chi.URLParam(r, "id"))
	entries, err := h.Users.History(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	dtos := make([]ChangeEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, toChangeEntryDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreatePayRate(w http.ResponseWriter, r *http.Request) {
	var req CreatePayRateRequest
	if !h.decode(w, r, &req) {
		return
	}

	rate, err := decimal.NewFromString(req.Rate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rate value", err)
		return
	}
	start, err := parseDate(req.Start, "start")
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	var end *time.Time
	if req.End != "" {
		e, err := parseDate(req.End, "end")
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		end = &e
	}

	userID := timeclock.UserID(chi.URLParam(r, "id"))
	created, err := h.Users.AddPayRate(r.Context(), userID, rate, start, end)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPayRateDTO(*created))
}

func (h *Handler) ListPayRates(w http.ResponseWriter, r *http.Request) {
	userID := timeclock.UserID(chi.URLParam(r, "id"))
	rates, err := h.Store.PayRatesByUser(r.Context(), userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	dtos := make([]PayRateDTO, 0, len(rates))
	for _, rate := range rates {
		dtos = append(dtos, toPayRateDTO(rate))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// REPORTS
// =============================================================================

func (h *Handler) Timesheet(w http.ResponseWriter, r *http.Request) {
	h.statement(w, r, false)
}

func (h *Handler) Invoice(w http.ResponseWriter, r *http.Request) {
	h.statement(w, r, true)
}

func (h *Handler) statement(w http.ResponseWriter, r *http.Request, withPay bool) {
	filter, err := h.filterFromQuery(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	email := filter.Email
	if email == "" {
		email = filter.CallerEmail
	}

	period, err := h.Queries.QueryPeriod(filter)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if err := timeclock.ValidateStatementSpan(period); err != nil {
		h.writeDomainError(w, err)
		return
	}

	var statement *timeclock.Statement
	if withPay {
		statement, err = h.Calculator.Calculate(r.Context(), email, filter.Period)
	} else {
		statement, err = h.Calculator.HoursOnly(r.Context(), email, filter.Period)
	}
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatementDTO(statement, withPay))
}

// =============================================================================
// HELPERS
// =============================================================================

// decode parses and validates a JSON request body. Writes the error
// response itself and returns false when the body is unusable.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dest); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// writeDomainError maps engine errors onto HTTP responses, attaching the
// actionable hint the legacy UI flashed for each condition.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, timeclock.ErrMismatchedClock):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   err.Error(),
			Hint:    "Each clock in must have a corresponding clock out. Please submit a timepunch for missing times.",
		})
	case errors.Is(err, timeclock.ErrNoPayRate):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   err.Error(),
			Hint:    "User has no pay rate. Maybe you meant to generate a timesheet instead.",
		})
	case errors.Is(err, timeclock.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "Email already registered", err)
	case errors.Is(err, timeclock.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found", err)
	case timeclock.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func parseDate(value, field string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, &timeclock.ValidationError{Field: field, Message: "invalid date format (use YYYY-MM-DD)"}
	}
	return t, nil
}

// callerEmail reads the identity header set by the fronting proxy.
func callerEmail(r *http.Request) string {
	return r.Header.Get("X-User-Email")
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
