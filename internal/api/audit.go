package api

import (
	"net/http"
	"strconv"

	"github.com/rentgrid/rentgrid-core/internal/audit"
)

// handleListDecisions returns recent authorisation decisions from the
// audit trail, newest first. Admin only.
func (s *Server) handleListDecisions(w http.ResponseWriter, r *http.Request) {
	if s.auditRepo == nil {
		writeNotFound(w, "audit trail is not enabled")
		return
	}

	filter := audit.Filter{
		Outcome:   r.URL.Query().Get("outcome"),
		Kind:      r.URL.Query().Get("kind"),
		SubjectID: r.URL.Query().Get("subject_id"),
	}

	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			filter.Limit = limit
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if offset, err := strconv.Atoi(v); err == nil {
			filter.Offset = offset
		}
	}

	result, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("list decisions failed", "error", err)
		writeInternalError(w, "failed to list decisions")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
