/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/clock/*         Clock in/out, status, active users
  /api/events          Filtered event history
  /api/timepunches/*   Timepunch requests and review
  /api/vacations/*     Vacation requests and review
  /api/users/*         User admin, pay rates, audit trail
  /api/reports/*       Timesheet and invoice statements
  /api/scenarios/*     Demo scenarios (dev only)

SECURITY NOTE:
  No authentication middleware. Identity comes from the X-User-Email
  header set by the fronting proxy.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-Email"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Clock routes
		r.Route("/clock", func(r chi.Router) {
			r.Post("/", h.ClockInOut)
			r.Get("/status", h.ClockStatus)
			r.Get("/active", h.ActiveUsers)
		})

		// Event history
		r.Get("/events", h.ListEvents)

		// Timepunch request routes
		r.Route("/timepunches", func(r chi.Router) {
			r.Post("/", h.SubmitTimepunch)
			r.Get("/review", h.TimepunchesForReview)
			r.Post("/{id}/approve", h.ApproveTimepunch)
			r.Post("/{id}/deny", h.DenyTimepunch)
		})

		// Vacation request routes
		r.Route("/vacations", func(r chi.Router) {
			r.Post("/", h.SubmitVacation)
			r.Get("/review", h.VacationsForReview)
			r.Post("/{id}/approve", h.ApproveVacation)
			r.Post("/{id}/deny", h.DenyVacation)
		})

		// User admin routes
		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.CreateUser)
			r.Put("/{id}", h.UpdateUser)
			r.Get("/{id}/history", h.UserHistory)
			r.Get("/{id}/payrates", h.ListPayRates)
			r.Post("/{id}/payrates", h.CreatePayRate)
		})

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/timesheet", h.Timesheet)
			r.Get("/invoice", h.Invoice)
		})

		// Scenario routes (dev/demo only)
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
