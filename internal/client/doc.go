// Package client implements the client-side session layer for RentGrid
// front ends.
//
// It holds the bearer credential and account snapshot as a single unit
// (SessionStore), persists them across restarts (Storage), and selects
// which workspace view to render for the current session (SelectView).
// View selection is a pure function of session state; the server remains
// the authority on every request.
package client
