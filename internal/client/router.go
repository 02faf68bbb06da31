package client

import (
	"github.com/rentgrid/rentgrid-core/internal/auth"
)

// View identifies a top-level workspace the front end can render.
type View string

// Workspace views. Exactly one is selected for any session state.
const (
	ViewLogin             View = "login"
	ViewCustomerDashboard View = "customer_dashboard"
	ViewOwnerDashboard    View = "owner_dashboard"
	ViewAdminDashboard    View = "admin_dashboard"
)

// SelectView maps a session to the workspace view to render. It is a
// pure function: no I/O, no server round trip. An unauthenticated
// session or an unknown role lands on the login view; the role used is
// whatever the client last fetched, and the server re-checks the live
// role on every request regardless.
func SelectView(session Session) View {
	if !session.Authenticated() {
		return ViewLogin
	}

	switch session.Account.Role {
	case auth.RoleCustomer:
		return ViewCustomerDashboard
	case auth.RoleOwner:
		return ViewOwnerDashboard
	case auth.RoleAdmin:
		return ViewAdminDashboard
	default:
		// A role this build doesn't know about gets no workspace.
		return ViewLogin
	}
}
