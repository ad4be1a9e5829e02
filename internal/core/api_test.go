package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dohr-michael/agentbus/internal/bus"
	"github.com/dohr-michael/agentbus/internal/config"
	"github.com/dohr-michael/agentbus/internal/core"
	"github.com/dohr-michael/agentbus/internal/invite"
	"github.com/dohr-michael/agentbus/internal/presence"
	"github.com/dohr-michael/agentbus/internal/store"
	"github.com/dohr-michael/agentbus/internal/wait"
)

func newTestAPI(t *testing.T) (*core.API, *bus.Bus) {
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
	b := bus.New(16)
	w := wait.New(s, b, 5*time.Second, 10*time.Second, time.Second)
	p := presence.New(s, b, 30*time.Second, time.Second)
	inv := invite.New(&config.Catalog{}, t.TempDir())

	api := core.New(s, b, w, p, inv, core.BusConfig{Host: "127.0.0.1", Port: 39765, HeartbeatTimeoutSeconds: 30, WaitTimeoutSeconds: 300})
	return api, b
}

func TestCreateThread_PublishesThreadNew(t *testing.T) {
	api, b := newTestAPI(t)
	h := b.Subscribe()

	th, err := api.CreateThread(context.Background(), "T1", nil)
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	if th.Status != store.StatusDiscuss {
		t.Errorf("status = %q, want discuss", th.Status)
	}

	events := b.Drain(h)
	if len(events) != 1 || events[0].Type != bus.EventThreadNew {
		t.Fatalf("expected one thread.new event, got %+v", events)
	}
}

func TestCreateThread_EmptyTopicIsInvalidInput(t *testing.T) {
	api, _ := newTestAPI(t)
	_, err := api.CreateThread(context.Background(), "", nil)

	var coreErr *core.Error
	if !errors.As(err, &coreErr) || coreErr.Kind != core.KindInvalidInput {
		t.Fatalf("expected InvalidInput core.Error, got %v", err)
	}
}

func TestPostMessage_AssignsSeqAndPublishes(t *testing.T) {
	api, b := newTestAPI(t)
	ctx := context.Background()
	th, err := api.CreateThread(ctx, "T1", nil)
	if err != nil {
		t.Fatal(err)
	}

	h := b.Subscribe()
	b.Drain(h) // discard thread.new

	m, err := api.PostMessage(ctx, th.ID, "", "human", store.RoleUser, "hi", nil, nil)
	if err != nil {
		t.Fatalf("PostMessage: %v", err)
	}
	if m.Seq != 1 {
		t.Errorf("seq = %d, want 1", m.Seq)
	}

	events := b.Drain(h)
	if len(events) != 1 || events[0].Type != bus.EventMsgNew {
		t.Fatalf("expected one msg.new event, got %+v", events)
	}
}

func TestPostMessage_InvalidRole(t *testing.T) {
	api, _ := newTestAPI(t)
	ctx := context.Background()
	th, _ := api.CreateThread(ctx, "T1", nil)

	_, err := api.PostMessage(ctx, th.ID, "", "human", store.Role("bogus"), "hi", nil, nil)
	var coreErr *core.Error
	if !errors.As(err, &coreErr) || coreErr.Kind != core.KindInvalidInput {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestHeartbeatAgent_WrongTokenIsUnauthorized(t *testing.T) {
	api, _ := newTestAPI(t)
	ctx := context.Background()

	a, err := api.RegisterAgent(ctx, "claude", "vscode", "opus", nil)
	if err != nil {
		t.Fatal(err)
	}

	err = api.HeartbeatAgent(ctx, a.ID, "wrong-token")
	var coreErr *core.Error
	if !errors.As(err, &coreErr) || coreErr.Kind != core.KindUnauthorized {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
}

func TestArchiveUnarchive_RoundTrips(t *testing.T) {
	api, _ := newTestAPI(t)
	ctx := context.Background()

	th, _ := api.CreateThread(ctx, "T1", nil)
	if err := api.SetThreadState(ctx, th.ID, store.StatusReview); err != nil {
		t.Fatal(err)
	}

	if err := api.ArchiveThread(ctx, th.ID); err != nil {
		t.Fatal(err)
	}
	archived, err := api.FetchThread(ctx, th.ID)
	if err != nil {
		t.Fatal(err)
	}
	if archived.Status != store.StatusArchived {
		t.Fatalf("status = %q, want archived", archived.Status)
	}

	if err := api.UnarchiveThread(ctx, th.ID); err != nil {
		t.Fatal(err)
	}
	restored, err := api.FetchThread(ctx, th.ID)
	if err != nil {
		t.Fatal(err)
	}
	if restored.Status != store.StatusReview {
		t.Fatalf("status = %q, want review", restored.Status)
	}
}

func TestInviteAgent_UnknownThreadIsInvalidInput(t *testing.T) {
	api, _ := newTestAPI(t)
	_, err := api.InviteAgent(context.Background(), "claude", "ghost-thread")

	var coreErr *core.Error
	if !errors.As(err, &coreErr) || coreErr.Kind != core.KindInvalidInput {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestFetchThread_UnknownIsNotFound(t *testing.T) {
	api, _ := newTestAPI(t)
	_, err := api.FetchThread(context.Background(), "ghost")

	var coreErr *core.Error
	if !errors.As(err, &coreErr) || coreErr.Kind != core.KindNotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
