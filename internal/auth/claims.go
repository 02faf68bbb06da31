package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims extends JWT registered claims with the RentGrid role claim.
//
// The embedded role is a hint for clients (dashboard selection before the
// first /auth/me round trip); the server re-reads the live role from the
// account store on every request and never treats this claim as
// authoritative.
type Claims struct {
	jwt.RegisteredClaims
	Role Role `json:"role"`
}

// DefaultCredentialTTLMinutes is the credential lifetime applied when no
// TTL is configured.
const DefaultCredentialTTLMinutes = 30

// IssueCredential creates a signed JWT bearer credential for an account.
// Credentials are short-lived (configured TTL) and stateless: the server
// keeps no record of issued credentials.
func IssueCredential(account *Account, secret string, ttlMinutes int) (string, error) {
	if ttlMinutes <= 0 {
		ttlMinutes = DefaultCredentialTTLMinutes
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ttlMinutes) * time.Minute)),
			ID:        uuid.NewString(),
		},
		Role: account.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing credential: %w", err)
	}
	return signed, nil
}

// DecodeCredential validates and parses a bearer credential, returning its
// claims. It checks the signature against the shared secret and the expiry
// against the current time, accepting HS256 only.
//
// Signature failure, malformed payload, expiry, and a missing subject claim
// all collapse to ErrInvalidCredential. Callers cannot distinguish which
// check failed, so a rejected credential leaks nothing about why.
func DecodeCredential(raw, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidCredential
	}

	// A credential without a subject cannot be resolved; reject it here
	// rather than attempting an account lookup with an empty key.
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidCredential)
	}

	return claims, nil
}
