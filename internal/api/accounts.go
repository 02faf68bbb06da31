package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rentgrid/rentgrid-core/internal/auth"
)

// minPasswordLength is the minimum accepted password length for new and
// changed passwords.
const minPasswordLength = 8

type createAccountRequest struct {
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Password    string    `json:"password"`
	Role        auth.Role `json:"role"`
}

type updateAccountRequest struct {
	DisplayName *string    `json:"display_name,omitempty"`
	Role        *auth.Role `json:"role,omitempty"`
	IsActive    *bool      `json:"is_active,omitempty"`
}

type changePasswordRequest struct {
	Password string `json:"password"`
}

// handleListAccounts returns all accounts.
func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.accounts.List(r.Context())
	if err != nil {
		s.logger.Error("list accounts failed", "error", err)
		writeInternalError(w, "failed to list accounts")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

// handleCreateAccount creates a new account.
func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Email == "" || req.Password == "" || req.DisplayName == "" {
		writeBadRequest(w, "email, password, and display_name are required")
		return
	}

	if !auth.IsValidEmail(req.Email) {
		writeBadRequest(w, "invalid email address")
		return
	}

	if len(req.Password) < minPasswordLength {
		writeBadRequest(w, "password must be at least 8 characters")
		return
	}

	if req.Role == "" {
		req.Role = auth.RoleCustomer
	}

	if !auth.IsValidRole(req.Role) {
		writeBadRequest(w, "invalid role: must be customer, owner, or admin")
		return
	}

	ac := AuthContextFrom(r.Context())

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("hash password failed", "error", err)
		writeInternalError(w, "failed to create account")
		return
	}

	account := &auth.Account{
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		PasswordHash: hash,
		Role:         req.Role,
		IsActive:     true,
		CreatedBy:    ac.Account.ID,
	}

	if err := s.accounts.Create(r.Context(), account); err != nil {
		if errors.Is(err, auth.ErrEmailExists) {
			writeConflict(w, "email already registered")
			return
		}
		s.logger.Error("create account failed", "error", err)
		writeInternalError(w, "failed to create account")
		return
	}

	s.logger.Info("account created",
		"account_id", account.ID,
		"email", account.Email,
		"role", account.Role,
		"created_by", ac.Account.ID,
	)

	writeJSON(w, http.StatusCreated, account)
}

// handleGetAccount returns a single account by ID.
func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	account, err := s.accounts.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, auth.ErrAccountNotFound) {
			writeNotFound(w, "account not found")
			return
		}
		s.logger.Error("get account failed", "error", err)
		writeInternalError(w, "failed to get account")
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// handleUpdateAccount modifies an account's mutable fields. A demoted or
// deactivated account loses access on its very next request because the
// gate resolves the live record every time.
func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ac := AuthContextFrom(r.Context())

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	account, err := s.accounts.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, auth.ErrAccountNotFound) {
			writeNotFound(w, "account not found")
			return
		}
		s.logger.Error("get account for update failed", "error", err)
		writeInternalError(w, "failed to update account")
		return
	}

	// Self-protection: cannot deactivate or demote yourself.
	if req.IsActive != nil && !*req.IsActive && id == ac.Account.ID {
		writeError(w, http.StatusForbidden, ErrCodeInsufficientRole, "cannot deactivate your own account")
		return
	}
	if req.Role != nil && id == ac.Account.ID && *req.Role != ac.Account.Role {
		writeError(w, http.StatusForbidden, ErrCodeInsufficientRole, "cannot change your own role")
		return
	}

	if req.Role != nil && !auth.IsValidRole(*req.Role) {
		writeBadRequest(w, "invalid role: must be customer, owner, or admin")
		return
	}

	if req.DisplayName != nil {
		account.DisplayName = *req.DisplayName
	}
	if req.Role != nil {
		account.Role = *req.Role
	}
	if req.IsActive != nil {
		account.IsActive = *req.IsActive
	}

	if err := s.accounts.Update(r.Context(), account); err != nil {
		s.logger.Error("update account failed", "error", err)
		writeInternalError(w, "failed to update account")
		return
	}

	s.logger.Info("account updated", "account_id", id, "updated_by", ac.Account.ID)

	writeJSON(w, http.StatusOK, account)
}

// handleChangePassword replaces an account's password.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ac := AuthContextFrom(r.Context())

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if len(req.Password) < minPasswordLength {
		writeBadRequest(w, "password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("hash password failed", "error", err)
		writeInternalError(w, "failed to change password")
		return
	}

	if err := s.accounts.UpdatePassword(r.Context(), id, hash); err != nil {
		if errors.Is(err, auth.ErrAccountNotFound) {
			writeNotFound(w, "account not found")
			return
		}
		s.logger.Error("change password failed", "error", err)
		writeInternalError(w, "failed to change password")
		return
	}

	s.logger.Info("password changed", "account_id", id, "changed_by", ac.Account.ID)

	writeJSON(w, http.StatusOK, map[string]string{"status": "password_changed"})
}

// handleDeleteAccount removes an account.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ac := AuthContextFrom(r.Context())

	// Cannot delete yourself
	if id == ac.Account.ID {
		writeError(w, http.StatusForbidden, ErrCodeInsufficientRole, "cannot delete your own account")
		return
	}

	if err := s.accounts.Delete(r.Context(), id); err != nil {
		if errors.Is(err, auth.ErrAccountNotFound) {
			writeNotFound(w, "account not found")
			return
		}
		s.logger.Error("delete account failed", "error", err)
		writeInternalError(w, "failed to delete account")
		return
	}

	s.logger.Info("account deleted", "account_id", id, "deleted_by", ac.Account.ID)

	w.WriteHeader(http.StatusNoContent)
}
