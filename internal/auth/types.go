package auth

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// emailPattern is a pragmatic email format check, not a full RFC 5322 parse.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// maxEmailLength is the maximum allowed email length.
const maxEmailLength = 254

// IsValidEmail checks if an email address meets format requirements.
func IsValidEmail(email string) bool {
	return len(email) <= maxEmailLength && emailPattern.MatchString(email)
}

// Role represents an authorisation tier in the system.
type Role string

const (
	// RoleCustomer rents vehicles: browses listings, makes and manages
	// their own bookings.
	RoleCustomer Role = "customer"

	// RoleOwner lists vehicles on the platform and manages their own
	// fleet and booking requests.
	RoleOwner Role = "owner"

	// RoleAdmin oversees the platform: account management, listing
	// moderation, platform settings.
	RoleAdmin Role = "admin"
)

// KnownRoles is the closed set of roles the platform recognises.
// Any role outside this set follows the explicit unknown-role path:
// the server refuses authorisation and the client routes to login.
var KnownRoles = []Role{RoleCustomer, RoleOwner, RoleAdmin}

// IsValidRole returns true if the role is a member of KnownRoles.
func IsValidRole(r Role) bool {
	for _, v := range KnownRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Account represents the authoritative account record backing a credential's
// claimed identity. It is the "principal" in authorisation decisions: the
// role and active flag stored here always win over whatever a previously
// issued credential claims.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"` // never serialised
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedBy    string    `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Sentinel errors for auth operations. Each maps to exactly one error kind
// at the HTTP boundary; none are retried.
var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountInactive   = errors.New("account is inactive")
	ErrInsufficientRole  = errors.New("insufficient role")
	ErrInvalidLogin      = errors.New("invalid email or password")
	ErrEmailExists       = errors.New("email already registered")
)

// RoleDeniedError carries the required role set and the principal's actual
// role alongside ErrInsufficientRole. The detail exists for diagnostics and
// decision logging only; it never grants partial access.
type RoleDeniedError struct {
	Required []Role
	Actual   Role
}

func (e *RoleDeniedError) Error() string {
	return fmt.Sprintf("insufficient role: have %q, need one of %v", e.Actual, e.Required)
}

// Unwrap allows errors.Is(err, ErrInsufficientRole) checks.
func (e *RoleDeniedError) Unwrap() error {
	return ErrInsufficientRole
}
