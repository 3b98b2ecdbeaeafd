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
 1. RequestID:  Unique ID per request for tracing
 2. RealIP:     Client IP behind proxies, feeds the rate limiter
 3. Logger:     Request logging
 4. Recoverer:  Panic recovery (500 instead of crash)
 5. CORS:       Cross-origin requests for planning tools
 6. httprate:   Per-IP request rate limiting

ROUTE GROUPS:

	/api/crew/*         Roster management
	/api/requests/*     Request lifecycle (submit, approve, deny, withdraw)
	/api/queue          Priority-ordered adjudication queue
	/api/periods/*      Roster period calendar
	/api/availability   Per-day crew availability
	/api/renewals/*     Qualification renewal queue and allocation
	/api/capacity       Training capacity ceilings

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(httprate.LimitByIP(300, time.Minute))

	r.Route("/api", func(r chi.Router) {
		// Roster routes
		r.Route("/crew", func(r chi.Router) {
			r.Get("/", h.ListCrew)
			r.Post("/", h.CreateCrewMember)
			r.Get("/{id}", h.GetCrewMember)
		})

		// Request lifecycle routes
		r.Route("/requests", func(r chi.Router) {
			r.Get("/", h.ListRequests)
			r.Post("/", h.SubmitRequest)
			r.Get("/{id}", h.GetRequest)
			r.Get("/{id}/conflicts", h.GetConflicts)
			r.Post("/{id}/approve", h.ApproveRequest)
			r.Post("/{id}/deny", h.DenyRequest)
			r.Post("/{id}/withdraw", h.WithdrawRequest)
		})

		// Adjudication queue
		r.Get("/queue", h.GetQueue)

		// Calendar routes
		r.Route("/periods", func(r chi.Router) {
			r.Get("/", h.ListPeriods)
			r.Get("/current", h.GetCurrentPeriod)
			r.Get("/{id}", h.GetPeriod)
		})
		r.Get("/availability", h.GetAvailability)

		// Renewal routes
		r.Route("/renewals", func(r chi.Router) {
			r.Get("/", h.ListRenewals)
			r.Post("/", h.CreateRenewal)
			r.Post("/allocate", h.RunAllocation)
			r.Get("/runs", h.ListAllocationRuns)
		})
		r.Route("/capacity", func(r chi.Router) {
			r.Get("/", h.GetCapacity)
			r.Put("/", h.SetCapacity)
		})

		// Engine configuration (read-only)
		r.Get("/config", h.GetConfig)
	})

	return r
}
