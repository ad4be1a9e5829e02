package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dohr-michael/agentbus/internal/store"
)

type createThreadRequest struct {
	Topic    string         `json:"topic"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (s *Server) handleCreateThread(w http.ResponseWriter, r *http.Request) {
	var req createThreadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"kind": "InvalidInput", "reason": "malformed JSON body"})
		return
	}

	t, err := s.api.CreateThread(r.Context(), req.Topic, req.Metadata)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleFetchThread(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "threadID")
	t, err := s.api.FetchThread(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleListThreads(w http.ResponseWriter, r *http.Request) {
	statusFilter := store.ThreadStatus(r.URL.Query().Get("status"))
	includeArchived := r.URL.Query().Get("include_archived") == "1"

	ts, err := s.api.ListThreads(r.Context(), statusFilter, includeArchived)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

type setThreadStateRequest struct {
	State string `json:"state"`
}

func (s *Server) handleSetThreadState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "threadID")
	var req setThreadStateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"kind": "InvalidInput", "reason": "malformed JSON body"})
		return
	}

	if err := s.api.SetThreadState(r.Context(), id, store.ThreadStatus(req.State)); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type closeThreadRequest struct {
	Summary string `json:"summary,omitempty"`
}

func (s *Server) handleCloseThread(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "threadID")
	var req closeThreadRequest
	_ = decodeJSON(r, &req) // summary is optional; an empty/absent body is valid

	if err := s.api.CloseThread(r.Context(), id, req.Summary); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleArchiveThread(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "threadID")
	if err := s.api.ArchiveThread(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUnarchiveThread(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "threadID")
	if err := s.api.UnarchiveThread(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDeleteThread(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "threadID")
	if err := s.api.DeleteThread(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseIntQuery(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
