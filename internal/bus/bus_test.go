package bus_test

import (
	"testing"
	"time"

	"github.com/dohr-michael/agentbus/internal/bus"
)

func TestSubscribePublishDrain(t *testing.T) {
	b := bus.New(8)
	h := b.Subscribe()

	b.Publish(bus.Event{Type: bus.EventThreadNew, Payload: map[string]any{"thread_id": "t1"}})
	b.Publish(bus.Event{Type: bus.EventMsgNew, Payload: map[string]any{"thread_id": "t1"}})

	got := b.Drain(h)
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	if got[0].Type != bus.EventThreadNew || got[1].Type != bus.EventMsgNew {
		t.Errorf("unexpected order: %+v", got)
	}

	if got := b.Drain(h); len(got) != 0 {
		t.Errorf("expected drain to clear the queue, got %d leftover", len(got))
	}
}

func TestDrain_UnknownHandle(t *testing.T) {
	b := bus.New(8)
	if got := b.Drain(bus.Handle(999)); got != nil {
		t.Errorf("expected nil for unknown handle, got %v", got)
	}
}

func TestUnsubscribe_Idempotent(t *testing.T) {
	b := bus.New(8)
	h := b.Subscribe()
	b.Unsubscribe(h)
	b.Unsubscribe(h) // must not panic
}

func TestQueueDropsOldestOnOverflow(t *testing.T) {
	b := bus.New(2)
	h := b.Subscribe()

	for i := 0; i < 5; i++ {
		b.Publish(bus.Event{Type: bus.EventThreadNew, Payload: map[string]any{"n": i}})
	}

	got := b.Drain(h)
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2 (bounded by queue capacity)", len(got))
	}
	if got[0].Payload["n"] != 3 || got[1].Payload["n"] != 4 {
		t.Errorf("expected the two most recent events, got %+v", got)
	}
}

func TestSubscribeWaiter_WakesOnMatchingThread(t *testing.T) {
	b := bus.New(8)
	ch, cancel := b.SubscribeWaiter("t1")
	defer cancel()

	b.Publish(bus.Event{Type: bus.EventMsgNew, Payload: map[string]any{"thread_id": "t2"}})
	select {
	case <-ch:
		t.Fatal("waiter for t1 should not wake for t2's event")
	case <-time.After(20 * time.Millisecond):
	}

	b.Publish(bus.Event{Type: bus.EventMsgNew, Payload: map[string]any{"thread_id": "t1"}})
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("waiter for t1 should have woken")
	}
}

func TestSubscribeWaiter_CoalescesBursts(t *testing.T) {
	b := bus.New(8)
	ch, cancel := b.SubscribeWaiter("t1")
	defer cancel()

	for i := 0; i < 5; i++ {
		b.Publish(bus.Event{Type: bus.EventMsgNew, Payload: map[string]any{"thread_id": "t1"}})
	}

	select {
	case <-ch:
	default:
		t.Fatal("expected a pending wake signal")
	}

	select {
	case <-ch:
		t.Fatal("expected exactly one coalesced signal, got a second")
	default:
	}
}

func TestBroadcastShutdown_WakesAllWaiters(t *testing.T) {
	b := bus.New(8)
	ch1, cancel1 := b.SubscribeWaiter("t1")
	defer cancel1()
	ch2, cancel2 := b.SubscribeWaiter("t2")
	defer cancel2()

	b.BroadcastShutdown()

	for _, ch := range []chan struct{}{ch1, ch2} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("expected shutdown to wake every waiter")
		}
	}
}
