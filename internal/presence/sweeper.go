package presence

import (
	"context"
	"log/slog"
	"time"

	"github.com/dohr-michael/agentbus/internal/bus"
	"github.com/dohr-michael/agentbus/internal/metrics"
)

// StartSweeper launches the background liveness sweeper (§4.5): every
// sweepInterval it scans agents whose heartbeat has gone stale and emits
// agent.offline for each one previously considered online. It returns
// immediately; the sweeper stops when ctx is cancelled, and the caller
// should wait on the returned done channel during shutdown to honor the
// 2s quiescence bound (§5, §8 P8).
func (m *Manager) StartSweeper(ctx context.Context) (done <-chan struct{}) {
	ch := make(chan struct{})
	go func() {
		defer close(ch)

		ticker := time.NewTicker(m.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.sweep(ctx)
			}
		}
	}()
	return ch
}

func (m *Manager) sweep(ctx context.Context) {
	agents, err := m.store.ListAgents(ctx)
	if err != nil {
		slog.Warn("presence sweeper: list agents failed", "error", err)
		return
	}

	var onlineCount float64
	for _, a := range agents {
		online := IsOnline(a, m.heartbeatTimeout)
		if online {
			onlineCount++
		}

		m.mu.Lock()
		wasOnline, tracked := m.online[a.ID]
		if !tracked {
			// First time the sweeper has seen this agent (e.g. after a
			// restart); adopt its current classification without firing
			// a spurious transition event.
			m.online[a.ID] = online
			m.mu.Unlock()
			continue
		}
		if !online && wasOnline {
			m.online[a.ID] = false
		}
		m.mu.Unlock()

		if !online && wasOnline {
			m.bus.Publish(bus.Event{Type: bus.EventAgentOffline, Payload: map[string]any{"agent_id": a.ID}})
		}
	}
	metrics.AgentsOnline.Set(onlineCount)
}
