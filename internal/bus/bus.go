// Package bus is the in-memory event fan-out described by spec §4.3: every
// mutation produces a typed Event delivered to all SSE subscribers and to
// every matching long-poll waiter.
package bus

import (
	"log/slog"
	"sync"

	"github.com/dohr-michael/agentbus/internal/metrics"
)

// EventType is the closed set of event types (§3).
type EventType string

const (
	EventMsgNew           EventType = "msg.new"
	EventThreadNew        EventType = "thread.new"
	EventThreadState      EventType = "thread.state"
	EventThreadClosed     EventType = "thread.closed"
	EventThreadArchived   EventType = "thread.archived"
	EventThreadUnarchived EventType = "thread.unarchived"
	EventThreadDeleted    EventType = "thread.deleted"
	EventAgentOnline      EventType = "agent.online"
	EventAgentOffline     EventType = "agent.offline"
	EventAgentTyping      EventType = "agent.typing"
)

// Event is an ephemeral, in-memory-only notification (§3). Payload always
// includes "thread_id" where applicable.
type Event struct {
	Type    EventType      `json:"type"`
	Payload map[string]any `json:"payload"`
}

// ThreadID extracts the thread_id field from the payload, if present.
func (e Event) ThreadID() string {
	if v, ok := e.Payload["thread_id"].(string); ok {
		return v
	}
	return ""
}

// Handle identifies a registered subscriber (§4.3: subscribe() → Handle).
type Handle int

type subscriber struct {
	queue *droppingQueue
}

// Bus is the in-memory pub/sub hub. The zero value is not usable; use New.
type Bus struct {
	mu        sync.RWMutex
	subs      map[Handle]*subscriber
	nextID    Handle
	queueSize int

	waitMu  sync.Mutex
	waiters map[string][]chan struct{} // keyed by thread_id, never-drop fast path
}

// New creates a Bus whose per-subscriber queues hold up to queueSize
// events before the oldest is dropped (suggested capacity 256, §4.3).
func New(queueSize int) *Bus {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Bus{
		subs:      make(map[Handle]*subscriber),
		queueSize: queueSize,
		waiters:   make(map[string][]chan struct{}),
	}
}

// Subscribe registers a new SSE-style subscriber and returns its handle.
func (b *Bus) Subscribe() Handle {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = &subscriber{queue: newDroppingQueue(b.queueSize)}
	return id
}

// Unsubscribe removes a subscriber. Idempotent.
func (b *Bus) Unsubscribe(h Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, h)
}

// Publish delivers event to every subscriber's queue (dropping the oldest
// entry on overflow); for msg.new events only, it also signals any waiters
// registered against the event's thread_id.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	for _, sub := range b.subs {
		if sub.queue.Push(event) {
			metrics.QueueDropsTotal.Inc()
			slog.Debug("bus: subscriber queue overflow, dropped oldest event", "event_type", event.Type)
		}
	}
	b.mu.RUnlock()

	if event.Type == EventMsgNew {
		b.signalWaiters(event.ThreadID())
	}
}

// Drain returns and clears the events queued for h. Non-blocking.
func (b *Bus) Drain(h Handle) []Event {
	b.mu.RLock()
	sub, ok := b.subs[h]
	b.mu.RUnlock()
	if !ok {
		return nil
	}
	return sub.queue.DrainAll()
}

// SubscribeWaiter registers a wake channel for a single thread. The
// channel is buffered (capacity 1) and carries a coalesced wake signal
// rather than individual events — the Wait Coordinator always re-queries
// the store on wake, so collapsing a burst of msg.new events into one
// signal loses nothing (§4.4). This is the "distinct fast path that never
// drops" promised by §4.3: a pending signal is never silently discarded,
// it is simply already set.
func (b *Bus) SubscribeWaiter(threadID string) (ch chan struct{}, cancel func()) {
	ch = make(chan struct{}, 1)

	b.waitMu.Lock()
	b.waiters[threadID] = append(b.waiters[threadID], ch)
	b.waitMu.Unlock()

	cancel = func() {
		b.waitMu.Lock()
		defer b.waitMu.Unlock()
		list := b.waiters[threadID]
		for i, c := range list {
			if c == ch {
				b.waiters[threadID] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(b.waiters[threadID]) == 0 {
			delete(b.waiters, threadID)
		}
	}
	return ch, cancel
}

func (b *Bus) signalWaiters(threadID string) {
	b.waitMu.Lock()
	defer b.waitMu.Unlock()
	for _, ch := range b.waiters[threadID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// BroadcastShutdown wakes every registered waiter unconditionally, used on
// server shutdown so in-flight wait-for-messages calls return promptly
// (§5: quiescence within 2s).
func (b *Bus) BroadcastShutdown() {
	b.waitMu.Lock()
	defer b.waitMu.Unlock()
	for _, list := range b.waiters {
		for _, ch := range list {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}
