package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndDecodeCredential(t *testing.T) {
	account := &Account{
		ID:   "acc-001",
		Role: RoleAdmin,
	}
	secret := "test-secret-key-for-credential-signing"

	token, err := IssueCredential(account, secret, 30)
	if err != nil {
		t.Fatalf("IssueCredential() error = %v", err)
	}

	if token == "" {
		t.Fatal("IssueCredential() returned empty token")
	}

	claims, err := DecodeCredential(token, secret)
	if err != nil {
		t.Fatalf("DecodeCredential() error = %v", err)
	}

	if claims.Subject != "acc-001" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "acc-001")
	}

	if claims.Role != RoleAdmin {
		t.Errorf("Role = %q, want %q", claims.Role, RoleAdmin)
	}

	if claims.ID == "" {
		t.Error("JTI (ID) should not be empty")
	}
}

func TestDecodeCredential_WrongSecret(t *testing.T) {
	account := &Account{ID: "acc-001", Role: RoleCustomer}

	token, err := IssueCredential(account, "correct-secret", 30)
	if err != nil {
		t.Fatalf("IssueCredential() error = %v", err)
	}

	_, err = DecodeCredential(token, "wrong-secret")
	if !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("DecodeCredential() error = %v, want ErrInvalidCredential", err)
	}
}

func TestDecodeCredential_Expired(t *testing.T) {
	// Sign a credential whose expiry is already in the past. The signature
	// is valid, so rejection can only come from the expiry check.
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acc-001",
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
		},
		Role: RoleCustomer,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("signing expired credential: %v", err)
	}

	_, err = DecodeCredential(signed, "secret")
	if !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("DecodeCredential() error = %v, want ErrInvalidCredential", err)
	}
}

func TestDecodeCredential_MissingSubject(t *testing.T) {
	// A structurally valid, correctly signed credential with no subject
	// must be rejected as invalid rather than resolved with an empty key.
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Role: RoleOwner,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("signing credential: %v", err)
	}

	_, err = DecodeCredential(signed, "secret")
	if !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("DecodeCredential() error = %v, want ErrInvalidCredential", err)
	}
}

func TestDecodeCredential_Malformed(t *testing.T) {
	for _, raw := range []string{"", "abc.def", "not-a-valid-jwt"} {
		_, err := DecodeCredential(raw, "secret")
		if !errors.Is(err, ErrInvalidCredential) {
			t.Errorf("DecodeCredential(%q) error = %v, want ErrInvalidCredential", raw, err)
		}
	}
}

func TestDecodeCredential_WrongSigningMethod(t *testing.T) {
	// alg=none tokens must be rejected by the HS256 allow-list.
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "acc-001"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing unsecured token: %v", err)
	}

	_, err = DecodeCredential(signed, "secret")
	if !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("DecodeCredential() error = %v, want ErrInvalidCredential", err)
	}
}

func TestIssueCredential_DefaultTTL(t *testing.T) {
	account := &Account{ID: "acc-001", Role: RoleCustomer}

	// TTL of 0 should default to 30 minutes
	token, err := IssueCredential(account, "secret", 0)
	if err != nil {
		t.Fatalf("IssueCredential() error = %v", err)
	}

	claims, err := DecodeCredential(token, "secret")
	if err != nil {
		t.Fatalf("DecodeCredential() error = %v", err)
	}

	expectedExpiry := time.Now().Add(30 * time.Minute)
	diff := claims.ExpiresAt.Time.Sub(expectedExpiry)
	if diff < -time.Minute || diff > time.Minute {
		t.Errorf("default TTL should be ~30 minutes, got expiry diff of %v", diff)
	}
}

func TestIssueCredential_OpaqueErrors(t *testing.T) {
	// Decode errors should wrap ErrInvalidCredential so the boundary maps
	// them all to one kind; the message may vary but the kind must not.
	account := &Account{ID: "acc-001", Role: RoleCustomer}
	token, _ := IssueCredential(account, "secret", 30)

	tampered := token + "AAAA"
	_, err := DecodeCredential(tampered, "secret")
	if !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("tampered credential error = %v, want ErrInvalidCredential", err)
	}
	if !strings.Contains(err.Error(), "invalid credential") {
		t.Errorf("error message %q should carry the invalid credential kind", err)
	}
}
