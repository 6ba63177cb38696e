package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/edscope/edscope/internal/application/command"
	"github.com/edscope/edscope/internal/application/query"
	"github.com/edscope/edscope/internal/domain/shared"
	"github.com/edscope/edscope/pkg/logger"
	"github.com/edscope/edscope/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "EdScope API",
		"version":     "v1",
		"description": "Scoped plain-language queries over the student roster",
		"endpoints": map[string]string{
			"health":  "/health",
			"query":   "/api/v1/query",
			"explain": "/api/v1/query/explain",
			"admins":  "/api/v1/admins",
			"reload":  "/api/v1/roster/reload",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	// Default health response
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERY HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// QueryRequest is the request body for the query endpoints.
type QueryRequest struct {
	// AdminID identifies the asking admin. Scope always comes from the
	// registry, never from the request.
	AdminID string `json:"admin_id"`

	// Question is the plain-language question to answer.
	Question string `json:"question"`

	// AsOf optionally pins the reference date (YYYY-MM-DD) used to
	// resolve relative phrases like "last week". Defaults to today.
	AsOf string `json:"as_of,omitempty"`

	// SkipRefinement bypasses the optional refinement hook.
	SkipRefinement bool `json:"skip_refinement,omitempty"`
}

func (req *QueryRequest) now() (time.Time, error) {
	if req.AsOf == "" {
		return time.Time{}, nil
	}
	return timeutil.ParseDateLenient(req.AsOf)
}

// handleAskQuestion handles POST /api/v1/query
func (s *Server) handleAskQuestion(w http.ResponseWriter, r *http.Request) {
	if s.deps.AskQuestionHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Query handler not configured")
		return
	}

	req, ok := s.decodeQueryRequest(w, r)
	if !ok {
		return
	}

	now, err := req.now()
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "as_of must be a date like 2024-04-16")
		return
	}

	q := query.AskQuestionQuery{
		AdminID:        req.AdminID,
		Question:       req.Question,
		Now:            now,
		SkipRefinement: req.SkipRefinement,
	}

	result, err := s.deps.AskQuestionHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeQueryError(w, r, err)
		return
	}

	meta := &ResponseMeta{TotalCount: result.RowCount}
	writeJSONWithMeta(w, r, http.StatusOK, result, meta)
}

// handleExplainQuestion handles POST /api/v1/query/explain
func (s *Server) handleExplainQuestion(w http.ResponseWriter, r *http.Request) {
	if s.deps.ExplainQuestionHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Explain handler not configured")
		return
	}

	req, ok := s.decodeQueryRequest(w, r)
	if !ok {
		return
	}

	now, err := req.now()
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "as_of must be a date like 2024-04-16")
		return
	}

	q := query.ExplainQuestionQuery{
		AdminID:        req.AdminID,
		Question:       req.Question,
		Now:            now,
		SkipRefinement: req.SkipRefinement,
	}

	result, err := s.deps.ExplainQuestionHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeQueryError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// decodeQueryRequest reads and validates the shared query request body.
func (s *Server) decodeQueryRequest(w http.ResponseWriter, r *http.Request) (QueryRequest, bool) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return req, false
	}
	return req, true
}

// writeQueryError maps application errors onto HTTP status codes.
func (s *Server) writeQueryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, shared.ErrEmptyValue):
		writeJSONErrorWithDetails(w, http.StatusBadRequest, "invalid_request", "admin_id and question are required", err.Error())
	case shared.IsUnknownAdmin(err):
		// Unknown admins get nothing, not even a row count.
		writeJSONError(w, http.StatusForbidden, "unknown_admin", "Admin is not registered")
	case errors.Is(err, shared.ErrTableNotLoaded):
		writeJSONError(w, http.StatusServiceUnavailable, "roster_unavailable", "Roster has not been loaded yet")
	default:
		s.logger.Error("query failed", logger.Err(err), logger.RequestID(getRequestID(r.Context())))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to answer question")
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN SCOPE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListAdmins handles GET /api/v1/admins
func (s *Server) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	if s.deps.Registry == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Admin registry not configured")
		return
	}

	scopes := query.ListAdminScopes(s.deps.Registry)
	meta := &ResponseMeta{TotalCount: len(scopes)}
	writeJSONWithMeta(w, r, http.StatusOK, scopes, meta)
}

// handleGetAdminScope handles GET /api/v1/admins/{id}/scope
func (s *Server) handleGetAdminScope(w http.ResponseWriter, r *http.Request) {
	adminID := r.PathValue("id")
	if adminID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Admin ID is required")
		return
	}

	if s.deps.GetAdminScopeHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Scope handler not configured")
		return
	}

	result, err := s.deps.GetAdminScopeHandler.Handle(r.Context(), query.GetAdminScopeQuery{AdminID: adminID})
	if err != nil {
		if shared.IsUnknownAdmin(err) {
			writeJSONError(w, http.StatusNotFound, "not_found", "Admin not found")
			return
		}
		s.logger.Error("failed to get admin scope", logger.Err(err), logger.AdminID(adminID))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to get admin scope")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ROSTER ADMINISTRATION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleReloadRoster handles POST /api/v1/roster/reload
func (s *Server) handleReloadRoster(w http.ResponseWriter, r *http.Request) {
	if s.deps.ReloadRosterHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Reload handler not configured")
		return
	}

	cmd := command.ReloadRosterCommand{Requester: getClientIP(r)}

	result, err := s.deps.ReloadRosterHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.logger.Error("roster reload failed", logger.Err(err))
		if errors.Is(err, shared.ErrNoUsableRows) || errors.Is(err, shared.ErrMissingColumns) {
			writeJSONErrorWithDetails(w, http.StatusUnprocessableEntity, "invalid_roster", "Roster source was rejected", err.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to reload roster")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
