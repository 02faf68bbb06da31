// Package config loads and validates RentGrid Core configuration.
//
// Configuration is read from a YAML file with hardcoded defaults applied
// first and environment variable overrides (RENTGRID_*) applied last.
// Validation runs after loading; a config that fails validation is never
// returned to the caller.
package config
