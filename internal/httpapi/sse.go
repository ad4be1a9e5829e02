package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dohr-michael/agentbus/internal/metrics"
)

// drainPollInterval is how often the SSE loop drains the subscriber's
// queue; there is no push-driven wake, so it bounds delivery latency. It is
// unrelated to the Wait Coordinator's 1s floor (§4.4) since this path
// polls only the in-memory queue, never the store.
const drainPollInterval = 200 * time.Millisecond

const keepaliveInterval = 15 * time.Second

// handleEvents streams every bus event as `data: {...}\n\n` (§6 SSE wire
// format) until the client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h := s.api.SubscribeEvents()
	defer s.api.UnsubscribeEvents(h)

	metrics.SSESubscribers.Inc()
	defer metrics.SSESubscribers.Dec()

	ctx := r.Context()
	poll := time.NewTicker(drainPollInterval)
	defer poll.Stop()
	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case <-poll.C:
			events := s.api.DrainEvents(h)
			for _, e := range events {
				data, err := json.Marshal(e)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "data: %s\n\n", data)
			}
			if len(events) > 0 {
				flusher.Flush()
			}
		}
	}
}
