package wait_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dohr-michael/agentbus/internal/bus"
	"github.com/dohr-michael/agentbus/internal/store"
	"github.com/dohr-michael/agentbus/internal/wait"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatal(err)
	}
	return store.New(db)
}

func TestWaitForMessages_ReturnsImmediatelyIfAlreadyPresent(t *testing.T) {
	s := newTestStore(t)
	b := bus.New(8)
	c := wait.New(s, b, 5*time.Second, 10*time.Second, time.Second)

	ctx := context.Background()
	th, _ := s.InsertThread(ctx, "T1", nil)
	if _, err := s.InsertMessage(ctx, th.ID, "", "human", store.RoleUser, "hi", nil, nil); err != nil {
		t.Fatal(err)
	}

	msgs, err := c.WaitForMessages(ctx, th.ID, 0, 1000, "")
	if err != nil {
		t.Fatalf("WaitForMessages: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("len(msgs) = %d, want 1", len(msgs))
	}
}

func TestWaitForMessages_WakesOnPost(t *testing.T) {
	s := newTestStore(t)
	b := bus.New(8)
	c := wait.New(s, b, 5*time.Second, 10*time.Second, time.Second)

	ctx := context.Background()
	th, _ := s.InsertThread(ctx, "T1", nil)

	type result struct {
		msgs []store.Message
		err  error
	}
	done := make(chan result, 1)
	go func() {
		msgs, err := c.WaitForMessages(ctx, th.ID, 0, 5000, "")
		done <- result{msgs, err}
	}()

	time.Sleep(50 * time.Millisecond)
	m, err := s.InsertMessage(ctx, th.ID, "", "human", store.RoleUser, "hello", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	b.Publish(bus.Event{Type: bus.EventMsgNew, Payload: map[string]any{"thread_id": th.ID}})

	select {
	case r := <-done:
		if r.err != nil {
			t.Fatalf("WaitForMessages: %v", r.err)
		}
		if len(r.msgs) != 1 || r.msgs[0].Seq != m.Seq {
			t.Fatalf("unexpected result: %+v", r.msgs)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForMessages did not wake within 2s")
	}
}

func TestWaitForMessages_TimesOutToEmpty(t *testing.T) {
	s := newTestStore(t)
	b := bus.New(8)
	c := wait.New(s, b, 5*time.Second, 10*time.Second, time.Second)

	ctx := context.Background()
	th, _ := s.InsertThread(ctx, "T1", nil)

	start := time.Now()
	msgs, err := c.WaitForMessages(ctx, th.ID, 999, 300, "")
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("expected no error on timeout, got %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected empty result on timeout, got %d messages", len(msgs))
	}
	if elapsed < 250*time.Millisecond {
		t.Errorf("returned too early: %v", elapsed)
	}
}

func TestWaitForMessages_UnknownThreadIsInvalidInput(t *testing.T) {
	s := newTestStore(t)
	b := bus.New(8)
	c := wait.New(s, b, 5*time.Second, 10*time.Second, time.Second)

	_, err := c.WaitForMessages(context.Background(), "ghost", 0, 100, "")
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestWaitForMessages_CancellationReturnsEmpty(t *testing.T) {
	s := newTestStore(t)
	b := bus.New(8)
	c := wait.New(s, b, 30*time.Second, 60*time.Second, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	th, _ := newThread(t, s)

	done := make(chan struct{})
	go func() {
		msgs, err := c.WaitForMessages(ctx, th, 0, 30000, "")
		if err != nil {
			t.Errorf("expected no error on cancellation, got %v", err)
		}
		if len(msgs) != 0 {
			t.Errorf("expected empty result on cancellation, got %d", len(msgs))
		}
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cancellation did not unblock the waiter promptly")
	}
}

func newThread(t *testing.T, s *store.Store) (string, error) {
	t.Helper()
	th, err := s.InsertThread(context.Background(), "T1", nil)
	return th.ID, err
}
