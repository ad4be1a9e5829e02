// Package presence is the Presence Manager (§4.5): agent registry,
// heartbeat-driven liveness, typing signals, and online/offline
// classification derived functionally from stored timestamps rather than
// stored as a flag.
package presence

import (
	"context"
	"sync"
	"time"

	"github.com/dohr-michael/agentbus/internal/bus"
	"github.com/dohr-michael/agentbus/internal/store"
)

// State is the derived presentation state of an agent (§3).
type State string

const (
	StateActive  State = "active"
	StateWaiting State = "waiting"
	StateIdle    State = "idle"
	StateOffline State = "offline"
)

const (
	activeWindow  = 30 * time.Second
	waitingWindow = 60 * time.Second
)

// View is an agent with its derived presentation fields attached, the
// shape adapters return from agent.list/agent.fetch.
type View struct {
	store.Agent
	IsOnline bool
	State    State
}

// Manager is the Presence Manager over a Store and Bus.
type Manager struct {
	store            *store.Store
	bus              *bus.Bus
	heartbeatTimeout time.Duration
	sweepInterval    time.Duration

	mu     sync.Mutex
	online map[string]bool // last-known online classification, for edge-triggered agent.offline/agent.online emission
}

// New creates a Manager. heartbeatTimeout is the "is_online" freshness
// window (default 30s); sweepInterval governs the background sweeper
// (default 1s, §4.5).
func New(s *store.Store, b *bus.Bus, heartbeatTimeout, sweepInterval time.Duration) *Manager {
	return &Manager{
		store:            s,
		bus:              b,
		heartbeatTimeout: heartbeatTimeout,
		sweepInterval:    sweepInterval,
		online:           make(map[string]bool),
	}
}

// Register creates a new agent and emits agent.online.
func (m *Manager) Register(ctx context.Context, name, ide, model string, capabilities map[string]any) (store.Agent, error) {
	a, err := m.store.UpsertRegister(ctx, name, ide, model, capabilities)
	if err != nil {
		return store.Agent{}, err
	}

	m.mu.Lock()
	m.online[a.ID] = true
	m.mu.Unlock()

	m.bus.Publish(bus.Event{Type: bus.EventAgentOnline, Payload: map[string]any{"agent_id": a.ID}})
	return a, nil
}

// Heartbeat validates the token, refreshes last_heartbeat_at, and emits
// agent.online if the agent had been derived-offline.
func (m *Manager) Heartbeat(ctx context.Context, agentID, token string) error {
	m.mu.Lock()
	wasOnline := m.online[agentID]
	m.mu.Unlock()

	if err := m.store.TouchHeartbeat(ctx, agentID, token); err != nil {
		return err
	}

	if !wasOnline {
		m.mu.Lock()
		m.online[agentID] = true
		m.mu.Unlock()
		m.bus.Publish(bus.Event{Type: bus.EventAgentOnline, Payload: map[string]any{"agent_id": agentID}})
	}
	return nil
}

// Unregister validates the token, removes the agent row, and emits
// agent.offline.
func (m *Manager) Unregister(ctx context.Context, agentID, token string) error {
	if err := m.store.Unregister(ctx, agentID, token); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.online, agentID)
	m.mu.Unlock()

	m.bus.Publish(bus.Event{Type: bus.EventAgentOffline, Payload: map[string]any{"agent_id": agentID}})
	return nil
}

// SetTyping is ephemeral: it emits agent.typing and persists nothing.
func (m *Manager) SetTyping(threadID, agentID string, isTyping bool) {
	m.bus.Publish(bus.Event{Type: bus.EventAgentTyping, Payload: map[string]any{
		"thread_id": threadID,
		"agent_id":  agentID,
		"is_typing": isTyping,
	}})
}

// Fetch returns a single agent with its derived fields.
func (m *Manager) Fetch(ctx context.Context, agentID string) (View, error) {
	a, err := m.store.FetchAgent(ctx, agentID)
	if err != nil {
		return View{}, err
	}
	return m.view(a), nil
}

// List returns every registered agent with derived fields attached.
func (m *Manager) List(ctx context.Context) ([]View, error) {
	agents, err := m.store.ListAgents(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]View, len(agents))
	for i, a := range agents {
		out[i] = m.view(a)
	}
	return out, nil
}

func (m *Manager) view(a store.Agent) View {
	return View{
		Agent:    a,
		IsOnline: IsOnline(a, m.heartbeatTimeout),
		State:    DeriveState(a, m.heartbeatTimeout),
	}
}

// IsOnline reports whether a's heartbeat is fresh (§3: "now − last_heartbeat_at ≤ heartbeat_timeout").
func IsOnline(a store.Agent, heartbeatTimeout time.Duration) bool {
	if a.LastHeartbeatAt.IsZero() {
		return false
	}
	return time.Since(a.LastHeartbeatAt) <= heartbeatTimeout
}

// DeriveState computes the presentation state purely from timestamps
// (§3, §9: "avoid per-request locks by computing the derived state
// functionally").
func DeriveState(a store.Agent, heartbeatTimeout time.Duration) State {
	if !IsOnline(a, heartbeatTimeout) {
		return StateOffline
	}
	if a.LastActivityAt.IsZero() {
		return StateIdle
	}
	age := time.Since(a.LastActivityAt)
	if age <= activeWindow {
		return StateActive
	}
	if a.LastActivityKind == "wait" && age <= waitingWindow {
		return StateWaiting
	}
	return StateIdle
}
