// Package httpapi is the REST + SSE surface (§6) consumed by the browser
// console and scripts: a thin marshaling layer over internal/core.
package httpapi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dohr-michael/agentbus/internal/core"
)

// Server is the agent bus REST + SSE gateway. It only ever builds and
// serves a router; the process embedding it (cmd/commands/serve.go) owns
// the actual *http.Server and its listen/shutdown lifecycle so that the
// MCP-over-SSE mount can share the same listener and shutdown sequence.
type Server struct {
	addr       string
	handler    http.Handler
	api        *core.API
	uploadsDir string
}

// NewServer builds the router only; host:port is recorded but no
// *http.Server is created here. uploadsDir, if non-empty, is served under
// /uploads/.
func NewServer(api *core.API, host string, port int, uploadsDir string) *Server {
	s := &Server{api: api, uploadsDir: uploadsDir}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/events", s.handleEvents)

	r.Route("/api/threads", func(r chi.Router) {
		r.Get("/", s.handleListThreads)
		r.Post("/", s.handleCreateThread)
		r.Route("/{threadID}", func(r chi.Router) {
			r.Get("/", s.handleFetchThread)
			r.Get("/messages", s.handleListMessages)
			r.Post("/messages", s.handlePostMessage)
			r.Post("/state", s.handleSetThreadState)
			r.Post("/close", s.handleCloseThread)
			r.Post("/archive", s.handleArchiveThread)
			r.Post("/unarchive", s.handleUnarchiveThread)
			r.Delete("/", s.handleDeleteThread)
		})
	})

	r.Route("/api/agents", func(r chi.Router) {
		r.Get("/", s.handleListAgents)
		r.Post("/register", s.handleRegisterAgent)
		r.Post("/heartbeat", s.handleHeartbeatAgent)
		r.Post("/unregister", s.handleUnregisterAgent)
		r.Post("/invite", s.handleInviteAgent)
	})

	r.Post("/api/upload/image", s.handleUploadImage)

	if uploadsDir != "" {
		fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsDir)))
		r.Get("/uploads/*", fileServer.ServeHTTP)
	}

	s.addr = fmt.Sprintf("%s:%d", host, port)
	s.handler = r
	return s
}

// Handler exposes the router for mounting behind the caller's own
// *http.Server (cmd/commands/serve.go), for embedding behind another
// listener, and for tests.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
