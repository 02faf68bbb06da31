// Package database manages the SQLite connection and schema migrations
// for RentGrid Core.
//
// Migrations are embedded into the binary (see the migrations package) and
// applied on startup, each in its own transaction.
package database
