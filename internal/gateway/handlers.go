package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/soyeahso/arbiter/internal/domain"
	"github.com/soyeahso/arbiter/internal/version"
)

// maxRequestBody caps the analyze request body at 1MB.
const maxRequestBody = 1 << 20

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not_found", "unknown route")
}

// handleAnalyze runs one dispute analysis turn.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req domain.AnalyzeRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	resp, err := s.orch.Analyze(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, "session_not_found", err.Error())
		case errors.Is(err, domain.ErrMissingDescription),
			errors.Is(err, domain.ErrInvalidEvidence):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		default:
			s.log.Error().Err(err).Msg("analysis failed")
			writeError(w, http.StatusInternalServerError, "internal_error", "dispute analysis failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleHealth reports server liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"version":        version.Version,
		"uptimeSeconds":  int(time.Since(s.startedAt).Seconds()),
		"activeSessions": s.orch.Sessions().Len(),
	})
}

// handleSessions lists active session ids for operators.
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	ids := s.orch.Sessions().ActiveIDs()
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(ids),
		"sessions": ids,
	})
}

// handleDecisions returns the audited rulings for a transaction.
func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	txID := r.URL.Query().Get("transactionId")
	if txID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "transactionId query parameter is required")
		return
	}

	recs, err := s.audit.ListByTransaction(txID)
	if err != nil {
		s.log.Error().Err(err).Str("transaction", txID).Msg("decision lookup failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "decision lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactionId": txID,
		"decisions":     recs,
	})
}
