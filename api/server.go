/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

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
  4. CORS:       Cross-origin requests for admin frontends

TENANCY:
  Every route nests under /api/tenants/{tenant}; the tenant segment is
  the only scoping mechanism and is passed through to every store call
  unchanged. Authentication and tenant routing live upstream of this
  service.

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
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api/tenants/{tenant}", func(r chi.Router) {
		// Chart of accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.SaveAccount)
		})

		// Ledger entries (append + delta query)
		r.Route("/ledger/entries", func(r chi.Router) {
			r.Post("/", h.AppendEntries)
			r.Get("/", h.QueryEntries)
		})

		// Fiscal periods (close/reopen workflow)
		r.Route("/periods", func(r chi.Router) {
			r.Post("/", h.SavePeriod)
			r.Post("/{year}/{period}/close", h.ClosePeriod)
			r.Post("/{year}/{period}/reopen", h.ReopenPeriod)
		})

		// Snapshots
		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/latest", h.LocateSnapshot)
			r.Get("/{key}", h.GetSnapshot)
		})
	})

	return r
}
