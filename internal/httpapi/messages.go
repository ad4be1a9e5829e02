package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dohr-michael/agentbus/internal/store"
)

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")
	afterSeq := int64(parseIntQuery(r, "after_seq", 0))
	limit := parseIntQuery(r, "limit", 100)
	includeSystemPrompt := r.URL.Query().Get("include_system_prompt") == "1"

	// wait_ms opts into the long-poll wait-for-messages primitive rather
	// than an immediate snapshot read (§4.4), keeping one REST route for
	// both history reads and waits, distinguished by this query param.
	if waitMs := parseIntQuery(r, "wait_ms", 0); waitMs > 0 {
		msgs, err := s.api.WaitForMessages(r.Context(), threadID, afterSeq, waitMs, r.URL.Query().Get("agent_id"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, msgs)
		return
	}

	msgs, err := s.api.ListMessages(r.Context(), threadID, afterSeq, limit, includeSystemPrompt)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

type postMessageRequest struct {
	Author   string         `json:"author"`
	Role     string         `json:"role"`
	Content  string         `json:"content"`
	Mentions []string       `json:"mentions,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Images   []uploadedFile `json:"images,omitempty"`
}

type uploadedFile struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")
	var req postMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"kind": "InvalidInput", "reason": "malformed JSON body"})
		return
	}

	metadata := req.Metadata
	if len(req.Images) > 0 {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata["images"] = req.Images
	}

	m, err := s.api.PostMessage(r.Context(), threadID, "", req.Author, store.Role(req.Role), req.Content, req.Mentions, metadata)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}
