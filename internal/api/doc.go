// Package api provides the HTTP REST API for RentGrid Core.
//
// It exposes authentication endpoints (login, me), account management, and
// role-gated dashboard entry points. The authorisation gate in gate.go is
// the per-request guard for every protected operation: it decodes the
// bearer credential, resolves the live principal, enforces the route's
// allowed-role set, and attaches the result to the request context.
//
// The server follows the standard lifecycle pattern:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple
// goroutines.
package api
