/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates users, pay rates,
	and clock events that demonstrate specific features.

AVAILABLE SCENARIOS:

	small-staff:      Supervisor with two reports, a week of clock events
	pending-requests: Timepunch and vacation requests awaiting review
	payroll-week:     A complete week ready for invoice generation

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create users with supervisor links
 3. Add pay rates
 4. Insert clock events at fixed offsets from now
 5. Optionally submit pending requests

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "small-staff"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, h)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Service wiring used by the loaders
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/timeclock-engine/timeclock"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "small-staff",
		Name:        "Small Staff",
		Description: "A supervisor with two reports and a week of clock events",
	},
	{
		ID:          "pending-requests",
		Name:        "Pending Requests",
		Description: "Timepunch and vacation requests awaiting supervisor review",
	},
	{
		ID:          "payroll-week",
		Name:        "Payroll Week",
		Description: "A complete week of paired events ready for invoicing",
	},
}

// resetter is implemented by stores that can wipe all data. The sqlite
// and memory stores both qualify; anything else rejects scenario loads.
type resetter interface {
	Reset(ctx context.Context) error
}

// =============================================================================
// HANDLERS
// =============================================================================

func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if !h.resetStore(w, r.Context()) {
		return
	}

	var err error
	switch req.ScenarioID {
	case "small-staff":
		err = loadSmallStaffScenario(r.Context(), h)
	case "pending-requests":
		err = loadPendingRequestsScenario(r.Context(), h)
	case "payroll-week":
		err = loadPayrollWeekScenario(r.Context(), h)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario_id": req.ScenarioID})
}

func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if !h.resetStore(w, r.Context()) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) resetStore(w http.ResponseWriter, ctx context.Context) bool {
	r, ok := h.Store.(resetter)
	if !ok {
		writeError(w, http.StatusNotImplemented, "Store does not support reset", nil)
		return false
	}
	if err := r.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return false
	}
	return true
}

// =============================================================================
// LOADERS
// =============================================================================

// seedStaff creates a supervisor and two reports with pay rates.
// Returned in order: supervisor, alice, bob.
func seedStaff(ctx context.Context, h *Handler) ([]*timeclock.User, error) {
	supervisor, err := h.Users.Create(ctx, timeclock.User{
		Email:        "dana.chief@example.gov",
		FirstName:    "Dana",
		LastName:     "Chief",
		Division:     "Administration",
		Tag:          timeclock.TagEmployee,
		Role:         timeclock.RoleAdministrator,
		IsSupervisor: true,
		IsActive:     true,
	})
	if err != nil {
		return nil, err
	}

	alice, err := h.Users.Create(ctx, timeclock.User{
		Email:        "alice.intern@example.gov",
		FirstName:    "Alice",
		LastName:     "Intern",
		Division:     "Reference Room",
		Tag:          timeclock.TagIntern,
		SupervisorID: &supervisor.ID,
		IsActive:     true,
	})
	if err != nil {
		return nil, err
	}

	bob, err := h.Users.Create(ctx, timeclock.User{
		Email:        "bob.clerk@example.gov",
		FirstName:    "Bob",
		LastName:     "Clerk",
		Division:     "Administration",
		Tag:          timeclock.TagEmployee,
		SupervisorID: &supervisor.ID,
		IsActive:     true,
	})
	if err != nil {
		return nil, err
	}

	yearAgo := time.Now().AddDate(-1, 0, 0)
	if _, err := h.Users.AddPayRate(ctx, alice.ID, decimal.NewFromInt(15), yearAgo, nil); err != nil {
		return nil, err
	}
	if _, err := h.Users.AddPayRate(ctx, bob.ID, decimal.NewFromInt(22), yearAgo, nil); err != nil {
		return nil, err
	}

	return []*timeclock.User{supervisor, alice, bob}, nil
}

// seedWorkDay inserts an approved in/out pair for the given day.
func seedWorkDay(ctx context.Context, h *Handler, userID timeclock.UserID, day time.Time, startHour, endHour int) error {
	in := time.Date(day.Year(), day.Month(), day.Day(), startHour, 0, 0, 0, day.Location())
	out := time.Date(day.Year(), day.Month(), day.Day(), endHour, 0, 0, 0, day.Location())

	for _, e := range []timeclock.Event{
		{ID: timeclock.EventID(uuid.NewString()), UserID: userID, Time: in, Direction: timeclock.DirectionIn, Approved: true, CreatedAt: in},
		{ID: timeclock.EventID(uuid.NewString()), UserID: userID, Time: out, Direction: timeclock.DirectionOut, Approved: true, CreatedAt: out},
	} {
		if err := h.Store.SaveEvent(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func loadSmallStaffScenario(ctx context.Context, h *Handler) error {
	staff, err := seedStaff(ctx, h)
	if err != nil {
		return err
	}

	// Monday through Friday of the current week for both reports.
	now := time.Now()
	week := timeclock.ResolvePeriod(now, timeclock.PeriodThisWeek)
	for d := 0; d < 5; d++ {
		day := week.Start.AddDate(0, 0, d)
		if day.After(now) {
			break
		}
		if err := seedWorkDay(ctx, h, staff[1].ID, day, 9, 17); err != nil {
			return err
		}
		if err := seedWorkDay(ctx, h, staff[2].ID, day, 8, 16); err != nil {
			return err
		}
	}
	return nil
}

func loadPendingRequestsScenario(ctx context.Context, h *Handler) error {
	staff, err := seedStaff(ctx, h)
	if err != nil {
		return err
	}

	// Alice forgot to clock out yesterday and requests the correction.
	yesterday := time.Now().AddDate(0, 0, -1)
	missedOut := time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 17, 0, 0, 0, yesterday.Location())
	if _, err := h.Approvals.SubmitTimepunch(ctx, staff[1].ID, timeclock.DirectionOut, missedOut, "forgot to clock out"); err != nil {
		return err
	}

	// Bob requests next week off.
	nextMonday := timeclock.ResolvePeriod(time.Now(), timeclock.PeriodThisWeek).End
	if _, err := h.Approvals.SubmitVacation(ctx, staff[2].ID, nextMonday, nextMonday.AddDate(0, 0, 5), "family trip"); err != nil {
		return err
	}
	return nil
}

func loadPayrollWeekScenario(ctx context.Context, h *Handler) error {
	staff, err := seedStaff(ctx, h)
	if err != nil {
		return err
	}

	// Last week, fully paired: Monday through Friday, 9-17 (lunch rule
	// applies, so each day pays 7 hours).
	week := timeclock.ResolvePeriod(time.Now(), timeclock.PeriodLastWeek)
	for d := 0; d < 5; d++ {
		day := week.Start.AddDate(0, 0, d)
		if err := seedWorkDay(ctx, h, staff[1].ID, day, 9, 17); err != nil {
			return err
		}
		if err := seedWorkDay(ctx, h, staff[2].ID, day, 9, 17); err != nil {
			return err
		}
	}
	return nil
}
