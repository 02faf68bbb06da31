package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rentgrid/rentgrid-core/internal/audit"
	"github.com/rentgrid/rentgrid-core/internal/auth"
	"github.com/rentgrid/rentgrid-core/internal/infrastructure/config"
	"github.com/rentgrid/rentgrid-core/internal/infrastructure/logging"
)

const testSecret = "test-secret-key-at-least-32-characters-long"

// testServer creates a Server backed by in-memory SQLite.
func testServer(t *testing.T) (*Server, auth.AccountRepository) {
	t.Helper()

	db := setupTestDB(t)
	accounts := auth.NewAccountRepository(db)

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		Security: config.SecurityConfig{
			JWT: config.JWTConfig{
				Secret:        testSecret,
				CredentialTTL: 15,
			},
		},
		Logger:   log,
		Accounts: accounts,
		Resolver: auth.NewResolver(accounts),
		Audit:    audit.NewSQLiteRepository(db),
		Metrics:  nil,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	return srv, accounts
}

// setupTestDB creates an in-memory SQLite database with the accounts and
// auth_decisions schemas.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE accounts (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'customer',
			is_active INTEGER NOT NULL DEFAULT 1,
			created_by TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (created_by) REFERENCES accounts(id) ON DELETE SET NULL
		) STRICT;
		CREATE UNIQUE INDEX idx_accounts_email ON accounts(email);

		CREATE TABLE auth_decisions (
			id TEXT PRIMARY KEY,
			outcome TEXT NOT NULL,
			kind TEXT,
			subject_id TEXT,
			role TEXT,
			route TEXT NOT NULL,
			created_at TEXT NOT NULL
		) STRICT;
		CREATE INDEX idx_auth_decisions_subject ON auth_decisions(subject_id);
	`
	if _, execErr := db.Exec(schema); execErr != nil {
		t.Fatalf("failed to create test schema: %v", execErr)
	}

	return db
}

// seedAccount creates an account with a known password ("test-password").
func seedAccount(t *testing.T, accounts auth.AccountRepository, email string, role auth.Role, active bool) *auth.Account {
	t.Helper()

	hash, err := auth.HashPassword("test-password")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	account := &auth.Account{
		Email:        email,
		DisplayName:  email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     active,
	}
	if err := accounts.Create(context.Background(), account); err != nil {
		t.Fatalf("creating test account %s: %v", email, err)
	}
	return account
}

// credentialFor issues a valid bearer credential for the account.
func credentialFor(t *testing.T, account *auth.Account) string {
	t.Helper()

	token, err := auth.IssueCredential(account, testSecret, 15)
	if err != nil {
		t.Fatalf("issuing credential: %v", err)
	}
	return token
}

// doRequest runs a request through the router and returns the recorder.
func doRequest(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ─── Health Endpoint Tests ─────────────────────────────────────────

func TestHealth(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	w := doRequest(router, http.MethodGet, "/api/v1/health", "", "")

	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("status = %v, want ok", resp["status"])
	}
	if resp["version"] != "test" {
		t.Errorf("version = %v, want test", resp["version"])
	}
}

// ─── Middleware Tests ──────────────────────────────────────────────

func TestRequestID_Generated(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	w := doRequest(router, http.MethodGet, "/api/v1/health", "", "")

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}
}

func TestRequestID_PreservesClient(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "client-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "client-123" {
		t.Errorf("X-Request-ID = %q, want %q", got, "client-123")
	}
}

func TestCORS_Preflight(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("ACAO = %q, want %q", got, "http://localhost:3000")
	}
}

// ─── Login Tests ───────────────────────────────────────────────────

func TestLogin_Success(t *testing.T) {
	srv, accounts := testServer(t)
	router := srv.buildRouter()

	seedAccount(t, accounts, "alice@example.com", auth.RoleCustomer, true)

	body := `{"email": "alice@example.com", "password": "test-password"}`
	w := doRequest(router, http.MethodPost, "/api/v1/auth/login", "", body)

	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp loginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp.AccessToken == "" {
		t.Error("expected access_token to be non-empty")
	}
	if resp.TokenType != "Bearer" {
		t.Errorf("token_type = %q, want Bearer", resp.TokenType)
	}
	if resp.Account == nil || resp.Account.Role != auth.RoleCustomer {
		t.Errorf("account role = %v, want customer", resp.Account)
	}
	if resp.ExpiresIn != 15*60 {
		t.Errorf("expires_in = %d, want %d", resp.ExpiresIn, 15*60)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	srv, accounts := testServer(t)
	router := srv.buildRouter()

	seedAccount(t, accounts, "alice@example.com", auth.RoleCustomer, true)

	body := `{"email": "alice@example.com", "password": "wrong"}`
	w := doRequest(router, http.MethodPost, "/api/v1/auth/login", "", body)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestLogin_UnknownEmailSameResponse(t *testing.T) {
	srv, accounts := testServer(t)
	router := srv.buildRouter()

	seedAccount(t, accounts, "alice@example.com", auth.RoleCustomer, true)

	known := doRequest(router, http.MethodPost, "/api/v1/auth/login", "",
		`{"email": "alice@example.com", "password": "wrong"}`)
	unknown := doRequest(router, http.MethodPost, "/api/v1/auth/login", "",
		`{"email": "nobody@example.com", "password": "wrong"}`)

	if known.Code != unknown.Code {
		t.Errorf("status mismatch: known = %d, unknown = %d", known.Code, unknown.Code)
	}
	if known.Body.String() != unknown.Body.String() {
		t.Errorf("body mismatch leaks registration state:\nknown   = %s\nunknown = %s",
			known.Body.String(), unknown.Body.String())
	}
}

func TestLogin_InactiveAccountRejected(t *testing.T) {
	srv, accounts := testServer(t)
	router := srv.buildRouter()

	seedAccount(t, accounts, "gone@example.com", auth.RoleOwner, false)

	body := `{"email": "gone@example.com", "password": "test-password"}`
	w := doRequest(router, http.MethodPost, "/api/v1/auth/login", "", body)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	var resp Error
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Code != ErrCodeAccountInactive {
		t.Errorf("code = %q, want %q", resp.Code, ErrCodeAccountInactive)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	w := doRequest(router, http.MethodPost, "/api/v1/auth/login", "", `{"email": "a@b.co"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// ─── Me Endpoint Tests ─────────────────────────────────────────────

func TestMe_ReturnsLiveAccount(t *testing.T) {
	srv, accounts := testServer(t)
	router := srv.buildRouter()

	account := seedAccount(t, accounts, "bob@example.com", auth.RoleOwner, true)
	token := credentialFor(t, account)

	w := doRequest(router, http.MethodGet, "/api/v1/auth/me", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var got auth.Account
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != account.ID {
		t.Errorf("id = %q, want %q", got.ID, account.ID)
	}
	if got.PasswordHash != "" {
		t.Error("password hash must never appear in responses")
	}
}

func TestMe_ReflectsRoleChange(t *testing.T) {
	srv, accounts := testServer(t)
	router := srv.buildRouter()

	account := seedAccount(t, accounts, "bob@example.com", auth.RoleCustomer, true)
	token := credentialFor(t, account)

	// Promote after the credential was issued.
	account.Role = auth.RoleAdmin
	if err := accounts.Update(context.Background(), account); err != nil {
		t.Fatalf("Update: %v", err)
	}

	w := doRequest(router, http.MethodGet, "/api/v1/auth/me", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var got auth.Account
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Role != auth.RoleAdmin {
		t.Errorf("role = %q, want %q (live role, not credential role)", got.Role, auth.RoleAdmin)
	}
}
