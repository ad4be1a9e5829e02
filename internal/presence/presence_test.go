package presence_test

import (
	"context"
	"testing"
	"time"

	"github.com/dohr-michael/agentbus/internal/bus"
	"github.com/dohr-michael/agentbus/internal/presence"
	"github.com/dohr-michael/agentbus/internal/store"
)

func newTestManager(t *testing.T, heartbeatTimeout, sweepInterval time.Duration) (*presence.Manager, *bus.Bus) {
	t.Helper()
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatal(err)
	}
	s := store.New(db)
	b := bus.New(8)
	return presence.New(s, b, heartbeatTimeout, sweepInterval), b
}

func TestRegisterEmitsOnline(t *testing.T) {
	m, b := newTestManager(t, 30*time.Second, time.Second)
	h := b.Subscribe()

	a, err := m.Register(context.Background(), "claude", "vscode", "claude-opus", nil)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	events := b.Drain(h)
	if len(events) != 1 || events[0].Type != bus.EventAgentOnline {
		t.Fatalf("expected one agent.online event, got %+v", events)
	}
	if events[0].Payload["agent_id"] != a.ID {
		t.Errorf("agent_id = %v, want %v", events[0].Payload["agent_id"], a.ID)
	}
}

func TestHeartbeat_WrongTokenUnauthorized(t *testing.T) {
	m, _ := newTestManager(t, 30*time.Second, time.Second)
	ctx := context.Background()

	a, err := m.Register(ctx, "claude", "vscode", "claude-opus", nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := m.Heartbeat(ctx, a.ID, "wrong"); err == nil {
		t.Error("expected an error for wrong token")
	}
}

func TestDeriveState(t *testing.T) {
	now := time.Now()
	heartbeatTimeout := 30 * time.Second

	tests := []struct {
		name  string
		agent store.Agent
		want  presence.State
	}{
		{
			name: "active",
			agent: store.Agent{
				LastHeartbeatAt: now,
				LastActivityAt:  now,
			},
			want: presence.StateActive,
		},
		{
			name: "waiting",
			agent: store.Agent{
				LastHeartbeatAt:  now,
				LastActivityAt:   now.Add(-45 * time.Second),
				LastActivityKind: "wait",
			},
			want: presence.StateWaiting,
		},
		{
			name: "idle",
			agent: store.Agent{
				LastHeartbeatAt: now,
				LastActivityAt:  now.Add(-90 * time.Second),
			},
			want: presence.StateIdle,
		},
		{
			name: "offline",
			agent: store.Agent{
				LastHeartbeatAt: now.Add(-time.Minute),
				LastActivityAt:  now,
			},
			want: presence.StateOffline,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := presence.DeriveState(tt.agent, heartbeatTimeout)
			if got != tt.want {
				t.Errorf("DeriveState() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSweeper_EmitsOfflineAfterTimeout(t *testing.T) {
	m, b := newTestManager(t, 100*time.Millisecond, 30*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := m.Register(ctx, "claude", "vscode", "claude-opus", nil)
	if err != nil {
		t.Fatal(err)
	}

	h := b.Subscribe()
	b.Drain(h) // discard the register's agent.online event

	done := m.StartSweeper(ctx)

	var sawOffline bool
	deadline := time.After(2 * time.Second)
loop:
	for {
		select {
		case <-deadline:
			break loop
		case <-time.After(20 * time.Millisecond):
			for _, e := range b.Drain(h) {
				if e.Type == bus.EventAgentOffline && e.Payload["agent_id"] == a.ID {
					sawOffline = true
					break loop
				}
			}
		}
	}

	cancel()
	<-done

	if !sawOffline {
		t.Error("expected sweeper to emit agent.offline after the heartbeat timeout elapsed")
	}
}
