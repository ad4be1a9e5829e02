package httpapi

import (
	"net/http"
)

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := s.api.ListAgents(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agents)
}

type registerAgentRequest struct {
	IDE          string         `json:"ide"`
	Model        string         `json:"model"`
	Name         string         `json:"name,omitempty"`
	Capabilities map[string]any `json:"capabilities,omitempty"`
}

func (s *Server) handleRegisterAgent(w http.ResponseWriter, r *http.Request) {
	var req registerAgentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"kind": "InvalidInput", "reason": "malformed JSON body"})
		return
	}

	a, err := s.api.RegisterAgent(r.Context(), req.Name, req.IDE, req.Model, req.Capabilities)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"agent_id": a.ID, "token": a.Token})
}

type agentTokenRequest struct {
	AgentID string `json:"agent_id"`
	Token   string `json:"token"`
}

func (s *Server) handleHeartbeatAgent(w http.ResponseWriter, r *http.Request) {
	var req agentTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"kind": "InvalidInput", "reason": "malformed JSON body"})
		return
	}
	if err := s.api.HeartbeatAgent(r.Context(), req.AgentID, req.Token); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUnregisterAgent(w http.ResponseWriter, r *http.Request) {
	var req agentTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"kind": "InvalidInput", "reason": "malformed JSON body"})
		return
	}
	if err := s.api.UnregisterAgent(r.Context(), req.AgentID, req.Token); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type inviteAgentRequest struct {
	AgentName string `json:"agent_name"`
	ThreadID  string `json:"thread_id"`
}

func (s *Server) handleInviteAgent(w http.ResponseWriter, r *http.Request) {
	var req inviteAgentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"kind": "InvalidInput", "reason": "malformed JSON body"})
		return
	}

	res, err := s.api.InviteAgent(r.Context(), req.AgentName, req.ThreadID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
