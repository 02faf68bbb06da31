package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleCustomer, true},
		{RoleOwner, true},
		{RoleAdmin, true},
		{Role("superuser"), false},
		{Role(""), false},
		{Role("Admin"), false}, // roles are case-sensitive
	}

	for _, tt := range tests {
		if got := IsValidRole(tt.role); got != tt.want {
			t.Errorf("IsValidRole(%q) = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"alice@example.com", true},
		{"a.b-c_d@sub.example.co.uk", true},
		{"no-at-sign", false},
		{"two@@example.com", false},
		{"spaces in@example.com", false},
		{"", false},
		{"noTLD@example", false},
	}

	for _, tt := range tests {
		if got := IsValidEmail(tt.email); got != tt.want {
			t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func TestRoleDeniedError(t *testing.T) {
	err := &RoleDeniedError{
		Required: []Role{RoleAdmin},
		Actual:   RoleCustomer,
	}

	if !errors.Is(err, ErrInsufficientRole) {
		t.Error("RoleDeniedError should unwrap to ErrInsufficientRole")
	}

	msg := err.Error()
	if !strings.Contains(msg, "customer") || !strings.Contains(msg, "admin") {
		t.Errorf("Error() = %q, should mention both actual and required roles", msg)
	}
}
