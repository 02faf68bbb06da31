package api

import (
	"net/http"
)

// Dashboard entry points. Each returns a small descriptor confirming
// which workspace the caller landed in; the role gate in front of the
// route is the actual access control. Clients use these as cheap probes
// for whether their stored session still grants the workspace.

// handleCustomerDashboard is the entry point for the customer workspace.
func (s *Server) handleCustomerDashboard(w http.ResponseWriter, r *http.Request) {
	s.writeDashboard(w, r, "customer", "browse and book vehicles")
}

// handleOwnerDashboard is the entry point for the fleet owner workspace.
func (s *Server) handleOwnerDashboard(w http.ResponseWriter, r *http.Request) {
	s.writeDashboard(w, r, "owner", "manage fleet listings and bookings")
}

// handleAdminDashboard is the entry point for the platform admin workspace.
func (s *Server) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	s.writeDashboard(w, r, "admin", "manage accounts and platform settings")
}

func (s *Server) writeDashboard(w http.ResponseWriter, r *http.Request, workspace, description string) {
	ac := AuthContextFrom(r.Context())

	writeJSON(w, http.StatusOK, map[string]any{
		"workspace":   workspace,
		"description": description,
		"account_id":  ac.Account.ID,
		"role":        ac.Account.Role,
	})
}
