package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"caretrust-hq/minerva/pkg/action"
	"caretrust-hq/minerva/pkg/config"
	"caretrust-hq/minerva/pkg/fallback"
	"caretrust-hq/minerva/pkg/governance"
	"caretrust-hq/minerva/pkg/riskgate"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

// actionRequest is the wire form for submitting an action to the
// governance pipeline.
type actionRequest struct {
	AgentType  string         `json:"agent_type"`
	ActionType string         `json:"action_type"`
	UserID     string         `json:"user_id"`
	SessionID  string         `json:"session_id"`
	SubjectID  string         `json:"subject_id,omitempty"`
	Confidence float64        `json:"confidence"`
	Rationale  string         `json:"rationale,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

func (s *Server) handleProcessAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.UserID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	agentType, err := action.ParseAgentType(req.AgentType)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := []action.Option{action.WithConfidence(req.Confidence)}
	if req.SubjectID != "" {
		opts = append(opts, action.WithSubject(req.SubjectID))
	}
	if req.Rationale != "" {
		opts = append(opts, action.WithRationale(req.Rationale))
	}
	if len(req.Parameters) > 0 {
		opts = append(opts, action.WithParameters(req.Parameters))
	}
	a := action.New(agentType, req.ActionType, opts...)

	resp, err := s.engine.ProcessAction(r.Context(), a, req.UserID, req.SessionID)
	if err != nil {
		if a.Validate() != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("Action processing failed", "action_id", a.ID, "error", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListApprovals(w http.ResponseWriter, r *http.Request) {
	agentType := action.AgentType(r.URL.Query().Get("agent_type"))
	if agentType != "" {
		if _, err := action.ParseAgentType(string(agentType)); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	pending := s.engine.Gate().PendingApprovals(agentType)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"approvals": pending,
		"count":     len(pending),
	})
}

// decisionRequest is the wire form for an approval decision.
type decisionRequest struct {
	ApproverID string `json:"approver_id"`
	Approved   bool   `json:"approved"`
	Reason     string `json:"reason,omitempty"`
}

func (s *Server) handleApprovalDecision(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("id")

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.ApproverID == "" {
		s.writeError(w, http.StatusBadRequest, "approver_id is required")
		return
	}

	resp, err := s.engine.ProcessApproval(r.Context(), requestID, req.ApproverID, req.Approved, req.Reason)
	if err != nil {
		var notFound *riskgate.RequestNotFoundError
		var terminal *riskgate.TerminalRequestError
		switch {
		case errors.As(err, &notFound):
			s.writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, governance.ErrNotAuthorized):
			s.writeError(w, http.StatusForbidden, err.Error())
		case errors.As(err, &terminal):
			s.writeError(w, http.StatusConflict, err.Error())
		default:
			s.logger.Error("Approval processing failed", "request_id", requestID, "error", err)
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListEscalations(w http.ResponseWriter, r *http.Request) {
	pending := s.engine.Fallback().PendingEscalations()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"escalations": pending,
		"count":       len(pending),
		"statistics":  s.engine.Fallback().Statistics(),
	})
}

// resolveRequest is the wire form for resolving an escalation.
type resolveRequest struct {
	ResolvedBy string `json:"resolved_by"`
	Resolution string `json:"resolution"`
}

func (s *Server) handleResolveEscalation(w http.ResponseWriter, r *http.Request) {
	escalationID := r.PathValue("id")

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.ResolvedBy == "" {
		s.writeError(w, http.StatusBadRequest, "resolved_by is required")
		return
	}

	if err := s.engine.Fallback().ResolveEscalation(escalationID, req.ResolvedBy, req.Resolution); err != nil {
		var notFound *fallback.EscalationNotFoundError
		if errors.As(err, &notFound) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// Keep the audit mirror in step. The escalation itself is already
	// resolved, so a mirror failure is logged but not surfaced.
	if err := s.engine.Audit().ResolveEscalation(r.Context(), escalationID, req.ResolvedBy, req.Resolution); err != nil {
		s.logger.Warn("Failed to update escalation audit record",
			"escalation_id", escalationID,
			"error", err,
		)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"resolved": true, "id": escalationID})
}

func (s *Server) handleAuditStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Audit().Statistics(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data, err := s.engine.DashboardData(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Configuration())
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg config.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if err := s.engine.UpdateConfiguration(&cfg); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.engine.Configuration())
}
