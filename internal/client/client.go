package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rentgrid/rentgrid-core/internal/auth"
)

// defaultRequestTimeout bounds every API round trip.
const defaultRequestTimeout = 15 * time.Second

// Client talks to the RentGrid Core API and keeps the session store in
// step with the server's answers.
type Client struct {
	baseURL  string
	http     *http.Client
	sessions *SessionStore
}

// NewClient creates an API client. The session store is shared with the
// front end so view selection sees the same state the client updates.
// Requests pick up the stored credential through the transport, so
// callers never handle the raw token.
func NewClient(baseURL string, sessions *SessionStore) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   defaultRequestTimeout,
			Transport: &credentialTransport{sessions: sessions},
		},
		sessions: sessions,
	}
}

// credentialTransport attaches the current session credential to every
// outgoing request. Requests already carrying an Authorization header
// pass through untouched.
type credentialTransport struct {
	sessions *SessionStore
	base     http.RoundTripper
}

func (t *credentialTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Authorization") == "" {
		if credential := t.sessions.Credential(); credential != "" {
			req = req.Clone(req.Context())
			req.Header.Set("Authorization", "Bearer "+credential)
		}
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// Sessions returns the session store this client updates.
func (c *Client) Sessions() *SessionStore {
	return c.sessions
}

// Login authenticates with the server and, on success, stores the
// credential and account as one atomic session transition.
func (c *Client) Login(ctx context.Context, email, password string) (*auth.Account, error) {
	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var result struct {
		AccessToken string        `json:"access_token"`
		Account     *auth.Account `json:"account"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding login response: %w", err)
	}
	if result.AccessToken == "" || result.Account == nil {
		return nil, fmt.Errorf("login response missing credential or account")
	}

	if err := c.sessions.SetSession(ctx, result.AccessToken, result.Account); err != nil {
		return nil, err
	}

	return result.Account, nil
}

// Logout clears the stored session. Credentials are stateless so there
// is nothing to revoke server-side; dropping the session is the logout.
func (c *Client) Logout(ctx context.Context) error {
	return c.sessions.ClearSession(ctx)
}

// RefreshAccount fetches the live account for the stored credential and
// updates the session. A rejected credential clears the session so the
// front end falls back to the login view.
func (c *Client) RefreshAccount(ctx context.Context) (*auth.Account, error) {
	credential := c.sessions.Credential()
	if credential == "" {
		return nil, auth.ErrMissingCredential
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/v1/auth/me", nil)
	if err != nil {
		return nil, fmt.Errorf("building me request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("me request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode == http.StatusUnauthorized {
		// The credential no longer works (expired, revoked account,
		// deactivation). Sign out locally.
		if clearErr := c.sessions.ClearSession(ctx); clearErr != nil {
			return nil, clearErr
		}
		return nil, apiError(resp)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var account auth.Account
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return nil, fmt.Errorf("decoding account: %w", err)
	}

	if err := c.sessions.SetSession(ctx, credential, &account); err != nil {
		return nil, err
	}

	return &account, nil
}

// apiError converts a non-200 response into an error carrying the
// server's error code where one was returned.
func apiError(resp *http.Response) error {
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Code == "" {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	switch body.Code {
	case "missing_credential":
		return auth.ErrMissingCredential
	case "invalid_credential":
		return auth.ErrInvalidCredential
	case "account_not_found":
		return auth.ErrAccountNotFound
	case "account_inactive":
		return auth.ErrAccountInactive
	case "insufficient_role":
		return auth.ErrInsufficientRole
	case "invalid_login":
		return auth.ErrInvalidLogin
	default:
		return fmt.Errorf("server error %s: %s", body.Code, body.Message)
	}
}
