package auth

import (
	"context"
	"errors"
	"testing"
)

func TestResolver_ActiveAccount(t *testing.T) {
	db := testDB(t)
	account := seedTestAccount(t, db, "alice@example.com", RoleCustomer, true)

	resolver := NewResolver(NewAccountRepository(db))

	resolved, err := resolver.Resolve(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if resolved.ID != account.ID {
		t.Errorf("ID = %q, want %q", resolved.ID, account.ID)
	}
	if resolved.Role != RoleCustomer {
		t.Errorf("Role = %q, want %q", resolved.Role, RoleCustomer)
	}
}

func TestResolver_NotFound(t *testing.T) {
	db := testDB(t)
	resolver := NewResolver(NewAccountRepository(db))

	_, err := resolver.Resolve(context.Background(), "acc-missing")
	if !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("Resolve() error = %v, want ErrAccountNotFound", err)
	}
}

func TestResolver_InactiveAccount(t *testing.T) {
	db := testDB(t)
	account := seedTestAccount(t, db, "blocked@example.com", RoleOwner, false)

	resolver := NewResolver(NewAccountRepository(db))

	_, err := resolver.Resolve(context.Background(), account.ID)
	if !errors.Is(err, ErrAccountInactive) {
		t.Errorf("Resolve() error = %v, want ErrAccountInactive", err)
	}
}

func TestResolver_LiveRoleWins(t *testing.T) {
	db := testDB(t)
	repo := NewAccountRepository(db)
	account := seedTestAccount(t, db, "promoted@example.com", RoleCustomer, true)

	// Role changes after credential issuance; resolution must return the
	// stored role, not whatever an old credential embeds.
	account.Role = RoleAdmin
	if err := repo.Update(context.Background(), account); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	resolver := NewResolver(repo)
	resolved, err := resolver.Resolve(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if resolved.Role != RoleAdmin {
		t.Errorf("Role = %q, want %q (stored role must win)", resolved.Role, RoleAdmin)
	}
}
