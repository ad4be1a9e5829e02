// Package wait implements wait-for-messages(thread_id, after_seq,
// timeout_ms) — the single most performance-sensitive primitive in the
// bus (§4.4): a suspending read that wakes on a matching event, a
// timeout, or cancellation, without busy-polling tighter than 1s.
package wait

import (
	"context"
	"fmt"
	"time"

	"github.com/dohr-michael/agentbus/internal/bus"
	"github.com/dohr-michael/agentbus/internal/metrics"
	"github.com/dohr-michael/agentbus/internal/store"
)

// listLimit bounds how many messages a single wake re-query returns; a
// long-poll caller is expected to keep up, unlike a replaying history read.
const listLimit = 500

// Coordinator implements wait-for-messages over a Store and Bus.
type Coordinator struct {
	store *store.Store
	bus   *bus.Bus

	defaultTimeout time.Duration
	maxTimeout     time.Duration
	safetyNetPoll  time.Duration
}

// New creates a Coordinator. defaultTimeout is used when a caller omits
// timeout_ms; maxTimeout clamps any caller-supplied value; safetyNetPoll
// is the periodic re-check interval and MUST be at least 1s (§4.4).
func New(s *store.Store, b *bus.Bus, defaultTimeout, maxTimeout, safetyNetPoll time.Duration) *Coordinator {
	if safetyNetPoll < time.Second {
		safetyNetPoll = time.Second
	}
	return &Coordinator{
		store:          s,
		bus:            b,
		defaultTimeout: defaultTimeout,
		maxTimeout:     maxTimeout,
		safetyNetPoll:  safetyNetPoll,
	}
}

// WaitForMessages blocks until a message with seq > afterSeq exists in
// threadID, timeoutMs elapses, or ctx is cancelled. agentID, if non-empty,
// has its presence activity touched on entry (§4.4's presence-accounting
// side effect) before the call does anything else.
func (c *Coordinator) WaitForMessages(ctx context.Context, threadID string, afterSeq int64, timeoutMs int, agentID string) ([]store.Message, error) {
	if agentID != "" {
		_ = c.store.TouchActivity(ctx, agentID, "wait")
	}

	if _, err := c.store.FetchThread(ctx, threadID); err != nil {
		return nil, fmt.Errorf("%w: unknown thread %s", store.ErrInvalidInput, threadID)
	}

	timeout := c.clampTimeout(timeoutMs)

	msgs, err := c.store.ListMessages(ctx, threadID, afterSeq, listLimit, true)
	if err != nil {
		return nil, err
	}
	if len(msgs) > 0 {
		return msgs, nil
	}

	ch, cancel := c.bus.SubscribeWaiter(threadID)
	defer cancel()

	metrics.ActiveWaiters.Inc()
	defer metrics.ActiveWaiters.Dec()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	safetyNet := time.NewTicker(c.safetyNetPoll)
	defer safetyNet.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, nil
		case <-deadline.C:
			return nil, nil
		case <-safetyNet.C:
		case <-ch:
		}

		msgs, err := c.store.ListMessages(ctx, threadID, afterSeq, listLimit, true)
		if err != nil {
			return nil, err
		}
		if len(msgs) > 0 {
			return msgs, nil
		}
	}
}

func (c *Coordinator) clampTimeout(timeoutMs int) time.Duration {
	if timeoutMs <= 0 {
		return c.defaultTimeout
	}
	t := time.Duration(timeoutMs) * time.Millisecond
	if t > c.maxTimeout {
		return c.maxTimeout
	}
	return t
}
