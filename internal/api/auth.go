package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rentgrid/rentgrid-core/internal/auth"
)

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse is the response body for POST /auth/login.
type loginResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresIn   int           `json:"expires_in"` // seconds
	Account     *auth.Account `json:"account"`
}

// handleLogin authenticates an account by email and password and returns
// a signed bearer credential. Unknown emails and wrong passwords produce
// the same response so callers cannot probe for registered addresses.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeBadRequest(w, "email and password are required")
		return
	}

	account, err := s.accounts.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, auth.ErrAccountNotFound) {
			writeError(w, http.StatusUnauthorized, ErrCodeInvalidLogin, "invalid email or password")
			return
		}
		s.logger.Error("login lookup failed", "error", err)
		writeInternalError(w, "login failed")
		return
	}

	ok, err := auth.VerifyPassword(req.Password, account.PasswordHash)
	if err != nil || !ok {
		writeError(w, http.StatusUnauthorized, ErrCodeInvalidLogin, "invalid email or password")
		return
	}

	// A valid password is not enough: deactivated accounts cannot obtain
	// credentials.
	if !account.IsActive {
		writeError(w, http.StatusUnauthorized, ErrCodeAccountInactive, "account is deactivated")
		return
	}

	ttl := s.secCfg.JWT.CredentialTTL
	if ttl == 0 {
		ttl = auth.DefaultCredentialTTLMinutes
	}

	token, err := auth.IssueCredential(account, s.secCfg.JWT.Secret, ttl)
	if err != nil {
		s.logger.Error("credential issue failed", "error", err, "account_id", account.ID)
		writeInternalError(w, "failed to issue credential")
		return
	}

	s.logger.Info("login succeeded", "account_id", account.ID, "role", account.Role)

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   ttl * 60,
		Account:     account,
	})
}

// handleMe returns the live account for the presented credential. The
// response reflects current stored state, so a role change made after
// login shows up here immediately.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	ac := AuthContextFrom(r.Context())
	if ac == nil {
		// Unreachable behind the gate; kept as a guard against route
		// wiring mistakes.
		writeAuthError(w, auth.ErrMissingCredential)
		return
	}

	writeJSON(w, http.StatusOK, ac.Account)
}
