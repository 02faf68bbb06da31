package api

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/rentgrid/rentgrid-core/internal/audit"
	"github.com/rentgrid/rentgrid-core/internal/auth"
)

// AuthContext carries the resolved principal for an admitted request.
// The Account is the live stored record, not the credential's embedded
// claims; role checks downstream must read Account.Role.
type AuthContext struct {
	Account *auth.Account
}

// ctxKeyAuth is the context key for the admitted principal.
const ctxKeyAuth contextKey = "auth"

// AuthContextFrom returns the AuthContext attached by the authorisation
// gate, or nil when the request did not pass through a gated route.
func AuthContextFrom(ctx context.Context) *AuthContext {
	ac, _ := ctx.Value(ctxKeyAuth).(*AuthContext)
	return ac
}

const bearerPrefix = "Bearer "

// extractBearer pulls the bearer credential out of the Authorization
// header. An absent or empty header is a missing credential; a present
// header in the wrong shape is an invalid one.
func extractBearer(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", auth.ErrMissingCredential
	}

	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", fmt.Errorf("%w: authorization header is not a bearer credential", auth.ErrInvalidCredential)
	}

	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", fmt.Errorf("%w: empty bearer credential", auth.ErrInvalidCredential)
	}

	return token, nil
}

// authenticate runs the credential-to-principal pipeline shared by every
// gated route: extract the bearer credential, decode and verify it, then
// resolve the live account. The returned account reflects current stored
// state; a role change or deactivation after issuance takes effect here,
// not at the next credential refresh.
func (s *Server) authenticate(r *http.Request) (*auth.Account, error) {
	token, err := extractBearer(r)
	if err != nil {
		return nil, err
	}

	claims, err := auth.DecodeCredential(token, s.secCfg.JWT.Secret)
	if err != nil {
		return nil, err
	}

	account, err := s.resolver.Resolve(r.Context(), claims.Subject)
	if err != nil {
		return nil, err
	}

	return account, nil
}

// requireRole returns middleware admitting only principals whose live
// stored role is in the allowed set. With no roles given, any active
// principal is admitted. Rejections are written immediately; the wrapped
// handler never runs for a rejected request.
func (s *Server) requireRole(allowed ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, err := s.authenticate(r)
			if err != nil {
				s.recordDecision(r, audit.OutcomeReject, err, nil)
				writeAuthError(w, err)
				return
			}

			if len(allowed) > 0 && !slices.Contains(allowed, account.Role) {
				denied := &auth.RoleDeniedError{Required: allowed, Actual: account.Role}
				s.recordDecision(r, audit.OutcomeReject, denied, account)
				writeAuthError(w, denied)
				return
			}

			s.recordDecision(r, audit.OutcomeAdmit, nil, account)

			ctx := context.WithValue(r.Context(), ctxKeyAuth, &AuthContext{Account: account})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// recordDecision logs an authorisation decision and, best effort, persists
// it to the audit trail and emits a metrics point. Audit and metrics
// failures never change the request outcome.
func (s *Server) recordDecision(r *http.Request, outcome string, cause error, account *auth.Account) {
	route := r.Method + " " + r.URL.Path

	var kind string
	if cause != nil {
		_, kind = authErrorKind(cause)
	}

	decision := &audit.Decision{
		Outcome:   outcome,
		Kind:      kind,
		Route:     route,
		CreatedAt: time.Now().UTC(),
	}
	if account != nil {
		decision.SubjectID = account.ID
		decision.Role = string(account.Role)
	}

	if outcome == audit.OutcomeAdmit {
		s.logger.Debug("authorisation admitted",
			"route", route,
			"subject_id", decision.SubjectID,
			"role", decision.Role,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
	} else {
		s.logger.Info("authorisation rejected",
			"route", route,
			"kind", kind,
			"subject_id", decision.SubjectID,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
	}

	if s.auditRepo != nil {
		if err := s.auditRepo.Create(r.Context(), decision); err != nil {
			s.logger.Warn("audit write failed", "error", err)
		}
	}

	s.metrics.RecordDecision(route, outcome, kind)
}
