package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rentgrid/rentgrid-core/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Auth endpoints (no auth required)
		r.Post("/auth/login", s.handleLogin)

		// Any active principal, regardless of role
		r.Group(func(r chi.Router) {
			r.Use(s.requireRole())
			r.Get("/auth/me", s.handleMe)
		})

		// Role-gated dashboard entry points
		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(auth.RoleCustomer))
			r.Get("/dashboard/customer", s.handleCustomerDashboard)
		})
		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(auth.RoleOwner))
			r.Get("/dashboard/owner", s.handleOwnerDashboard)
		})
		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(auth.RoleAdmin))
			r.Get("/dashboard/admin", s.handleAdminDashboard)
		})

		// Admin-only management routes
		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(auth.RoleAdmin))

			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", s.handleListAccounts)
				r.Post("/", s.handleCreateAccount)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetAccount)
					r.Patch("/", s.handleUpdateAccount)
					r.Delete("/", s.handleDeleteAccount)
					r.Put("/password", s.handleChangePassword)
				})
			})

			r.Get("/audit/decisions", s.handleListDecisions)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
