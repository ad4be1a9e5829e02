// Package core is the Core API façade (§4.7): the single value that owns
// the Store, Event Bus, Wait Coordinator, Presence Manager, and Invitation
// Executor (§9: "Cyclic or deeply-shared references"). Every adapter
// (internal/httpapi, internal/mcpapi, cmd/agentbusd) talks only to this
// package — never to internal/store, internal/bus, internal/wait,
// internal/presence, or internal/invite directly.
package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/dohr-michael/agentbus/internal/bus"
	"github.com/dohr-michael/agentbus/internal/invite"
	"github.com/dohr-michael/agentbus/internal/metrics"
	"github.com/dohr-michael/agentbus/internal/presence"
	"github.com/dohr-michael/agentbus/internal/store"
	"github.com/dohr-michael/agentbus/internal/wait"
)

// API is the façade. The zero value is not usable; use New.
type API struct {
	store    *store.Store
	bus      *bus.Bus
	wait     *wait.Coordinator
	presence *presence.Manager
	invite   *invite.Executor
	cfg      BusConfig
}

// New wires the façade over its five subsystems.
func New(s *store.Store, b *bus.Bus, w *wait.Coordinator, p *presence.Manager, inv *invite.Executor, cfg BusConfig) *API {
	return &API{store: s, bus: b, wait: w, presence: p, invite: inv, cfg: cfg}
}

// Config returns the static bus configuration snapshot.
func (a *API) Config() BusConfig { return a.cfg }

// --- Threads (§4.1, §4.7 state machine) ---

// CreateThread validates topic (non-empty, enforced by the Store) and
// publishes thread.new on success.
func (a *API) CreateThread(ctx context.Context, topic string, metadata map[string]any) (store.Thread, error) {
	t, err := a.store.InsertThread(ctx, topic, metadata)
	if err != nil {
		return store.Thread{}, wrapErr(err)
	}
	a.bus.Publish(bus.Event{Type: bus.EventThreadNew, Payload: map[string]any{"thread_id": t.ID, "topic": t.Topic}})
	metrics.ThreadsCreated.Inc()
	return t, nil
}

func (a *API) FetchThread(ctx context.Context, id string) (store.Thread, error) {
	t, err := a.store.FetchThread(ctx, id)
	if err != nil {
		return store.Thread{}, wrapErr(err)
	}
	return t, nil
}

func (a *API) ListThreads(ctx context.Context, statusFilter store.ThreadStatus, includeArchived bool) ([]store.Thread, error) {
	ts, err := a.store.ListThreads(ctx, statusFilter, includeArchived)
	if err != nil {
		return nil, wrapErr(err)
	}
	return ts, nil
}

// SetThreadState transitions status among the non-terminal states or into
// closed; illegal transitions surface as Conflict (the Store enforces
// this). Publishes thread.state on success.
func (a *API) SetThreadState(ctx context.Context, id string, newStatus store.ThreadStatus) error {
	if err := a.store.UpdateStatus(ctx, id, newStatus); err != nil {
		return wrapErr(err)
	}
	a.bus.Publish(bus.Event{Type: bus.EventThreadState, Payload: map[string]any{"thread_id": id, "status": string(newStatus)}})
	return nil
}

// CloseThread sets status to closed and publishes thread.closed.
func (a *API) CloseThread(ctx context.Context, id, summary string) error {
	if err := a.store.Close(ctx, id, summary); err != nil {
		return wrapErr(err)
	}
	a.bus.Publish(bus.Event{Type: bus.EventThreadClosed, Payload: map[string]any{"thread_id": id}})
	return nil
}

// ArchiveThread is orthogonal to status (§3: "archive any status").
func (a *API) ArchiveThread(ctx context.Context, id string) error {
	if err := a.store.Archive(ctx, id); err != nil {
		return wrapErr(err)
	}
	a.bus.Publish(bus.Event{Type: bus.EventThreadArchived, Payload: map[string]any{"thread_id": id}})
	return nil
}

// UnarchiveThread restores the pre-archive status (P5).
func (a *API) UnarchiveThread(ctx context.Context, id string) error {
	if err := a.store.Unarchive(ctx, id); err != nil {
		return wrapErr(err)
	}
	a.bus.Publish(bus.Event{Type: bus.EventThreadUnarchived, Payload: map[string]any{"thread_id": id}})
	return nil
}

// DeleteThread hard-deletes a thread and cascades to its messages.
func (a *API) DeleteThread(ctx context.Context, id string) error {
	if err := a.store.Delete(ctx, id); err != nil {
		return wrapErr(err)
	}
	a.bus.Publish(bus.Event{Type: bus.EventThreadDeleted, Payload: map[string]any{"thread_id": id}})
	return nil
}

// --- Messages (§4.1, §4.2) ---

// PostMessage validates role against the closed set, inserts the message
// (seq assignment happens under the Store's write transaction), records
// the attributed agent's activity, and publishes msg.new after commit
// (§4.1: "the event is published after commit succeeds").
func (a *API) PostMessage(ctx context.Context, threadID, authorID, authorName string, role store.Role, content string, mentions []string, metadata map[string]any) (store.Message, error) {
	switch role {
	case store.RoleUser, store.RoleAssistant, store.RoleSystem:
	default:
		return store.Message{}, wrapErr(fmt.Errorf("%w: invalid role %q", store.ErrInvalidInput, role))
	}

	m, err := a.store.InsertMessage(ctx, threadID, authorID, authorName, role, content, mentions, metadata)
	if err != nil {
		return store.Message{}, wrapErr(err)
	}

	if authorID != "" {
		_ = a.store.TouchActivity(ctx, authorID, "msg_post")
	}

	a.bus.Publish(bus.Event{Type: bus.EventMsgNew, Payload: map[string]any{
		"thread_id":  threadID,
		"message_id": m.ID,
		"seq":        m.Seq,
	}})
	metrics.MessagesPosted.Inc()
	return m, nil
}

func (a *API) ListMessages(ctx context.Context, threadID string, afterSeq int64, limit int, includeSystemPrompt bool) ([]store.Message, error) {
	msgs, err := a.store.ListMessages(ctx, threadID, afterSeq, limit, includeSystemPrompt)
	if err != nil {
		return nil, wrapErr(err)
	}
	return msgs, nil
}

// WaitForMessages suspends until a matching event, the configured
// timeout, or cancellation. Per §7, only InvalidInput ever escapes here —
// timeout and cancellation both surface as an empty, error-free result.
func (a *API) WaitForMessages(ctx context.Context, threadID string, afterSeq int64, timeoutMs int, agentID string) ([]store.Message, error) {
	msgs, err := a.wait.WaitForMessages(ctx, threadID, afterSeq, timeoutMs, agentID)
	if err != nil {
		return nil, wrapErr(err)
	}
	return msgs, nil
}

// --- Agents / Presence (§4.5) ---

func (a *API) RegisterAgent(ctx context.Context, name, ide, model string, capabilities map[string]any) (store.Agent, error) {
	ag, err := a.presence.Register(ctx, name, ide, model, capabilities)
	if err != nil {
		return store.Agent{}, wrapErr(err)
	}
	return ag, nil
}

// HeartbeatAgent validates token (§3: "mandatory on every mutating agent
// operation") inside the Presence Manager / Store.
func (a *API) HeartbeatAgent(ctx context.Context, agentID, token string) error {
	if err := a.presence.Heartbeat(ctx, agentID, token); err != nil {
		return wrapErr(err)
	}
	return nil
}

func (a *API) UnregisterAgent(ctx context.Context, agentID, token string) error {
	if err := a.presence.Unregister(ctx, agentID, token); err != nil {
		return wrapErr(err)
	}
	return nil
}

// SetAgentTyping is fire-and-forget; it carries no token per §3/§4.5 and
// never fails.
func (a *API) SetAgentTyping(threadID, agentID string, isTyping bool) {
	a.presence.SetTyping(threadID, agentID, isTyping)
}

func (a *API) FetchAgent(ctx context.Context, agentID string) (presence.View, error) {
	v, err := a.presence.Fetch(ctx, agentID)
	if err != nil {
		return presence.View{}, wrapErr(err)
	}
	return v, nil
}

func (a *API) ListAgents(ctx context.Context) ([]presence.View, error) {
	vs, err := a.presence.List(ctx)
	if err != nil {
		return nil, wrapErr(err)
	}
	return vs, nil
}

// --- Invitation (§4.6) ---

// InviteAgent validates the target thread exists before handing off to
// the Invitation Executor (an unknown thread is InvalidInput, as in
// WaitForMessages); the executor itself validates the catalog entry and
// placeholder whitelist.
func (a *API) InviteAgent(ctx context.Context, catalogName, threadID string) (invite.Result, error) {
	if _, err := a.store.FetchThread(ctx, threadID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = fmt.Errorf("%w: unknown thread %s", store.ErrInvalidInput, threadID)
		}
		return invite.Result{}, wrapErr(err)
	}
	res, err := a.invite.Invite(ctx, catalogName, threadID)
	if err != nil {
		metrics.InvitationsTotal.WithLabelValues("false").Inc()
		return invite.Result{}, wrapErr(err)
	}
	metrics.InvitationsTotal.WithLabelValues(fmt.Sprintf("%t", res.OK)).Inc()
	return res, nil
}

// --- Event Bus passthroughs, for the SSE adapter ---

func (a *API) SubscribeEvents() bus.Handle { return a.bus.Subscribe() }
func (a *API) UnsubscribeEvents(h bus.Handle) { a.bus.Unsubscribe(h) }
func (a *API) DrainEvents(h bus.Handle) []bus.Event { return a.bus.Drain(h) }
