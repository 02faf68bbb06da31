// Package logging provides structured, leveled logging for RentGrid Core.
//
// It wraps log/slog with service defaults and config-driven level, format,
// and output selection. Authorisation decisions (admit/reject with error
// kind) are emitted through this package at defined points rather than as
// narrated control flow.
package logging
