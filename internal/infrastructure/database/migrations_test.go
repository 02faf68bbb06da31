package database

import (
	"context"
	"testing"
)

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion string
		wantName    string
		wantOK      bool
	}{
		{"001_accounts.sql", "001", "accounts", true},
		{"002_audit_decisions.sql", "002", "audit_decisions", true},
		{"README.md", "", "", false},
		{"nounderscores.sql", "", "", false},
		{"_missing_version.sql", "", "", false},
		{"003_.sql", "", "", false},
	}

	for _, tt := range tests {
		version, name, ok := parseMigrationFilename(tt.filename)
		if version != tt.wantVersion || name != tt.wantName || ok != tt.wantOK {
			t.Errorf("parseMigrationFilename(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.filename, version, name, ok, tt.wantVersion, tt.wantName, tt.wantOK)
		}
	}
}

func TestMigrate_NoEmbeddedMigrations(t *testing.T) {
	// MigrationsFS is the zero value in this package's tests; Migrate
	// should succeed with nothing to do.
	db, err := Open(Config{Path: t.TempDir() + "/m.db", BusyTimeout: 1})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Errorf("Migrate() error = %v", err)
	}

	// The migrations bookkeeping table should exist regardless.
	var count int
	err = db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	if err != nil {
		t.Errorf("schema_migrations should exist: %v", err)
	}
	if count != 0 {
		t.Errorf("schema_migrations rows = %d, want 0", count)
	}
}
