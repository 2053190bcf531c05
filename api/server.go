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
  /api/clock/*          Clock in/out
  /api/clock-entries    Raw clock log
  /api/payroll/*        Payroll computation and billing status
  /api/payrates/*       Rate history admin
  /api/workers/*        Worker admin
  /api/projects/*       Project admin

SECURITY NOTE:
  No authentication middleware. All endpoints are public; session login and
  authorization are handled outside this service.

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
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Clock routes
		r.Route("/clock", func(r chi.Router) {
			r.Post("/in", h.ClockIn)
			r.Post("/out", h.ClockOut)
		})
		r.Get("/clock-entries", h.ListEntries)

		// Payroll routes
		r.Route("/payroll", func(r chi.Router) {
			r.Get("/", h.GetPayroll)
			r.Post("/bill", h.BillEntries)
			r.Post("/paid", h.PaidEntries)
			r.Post("/update-status", h.UpdateStatus)
		})

		// Pay rate routes
		r.Route("/payrates", func(r chi.Router) {
			r.Get("/current/{worker_id}", h.GetCurrentRate)
			r.Get("/history/{worker_id}", h.GetRateHistory)
			r.Post("/", h.CreateRate)
		})

		// Admin routes
		r.Route("/workers", func(r chi.Router) {
			r.Get("/", h.ListWorkers)
			r.Post("/", h.CreateWorker)
		})
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.CreateProject)
		})
	})

	return r
}
