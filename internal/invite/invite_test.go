package invite_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dohr-michael/agentbus/internal/config"
	"github.com/dohr-michael/agentbus/internal/invite"
)

func newTestExecutor(t *testing.T, entries ...config.CatalogEntry) (*invite.Executor, string) {
	t.Helper()
	logDir := t.TempDir()
	cat := &config.Catalog{Agents: entries}
	return invite.New(cat, logDir), logDir
}

func TestInvite_UnknownAgentIsInvalidInput(t *testing.T) {
	e, _ := newTestExecutor(t)
	_, err := e.Invite(context.Background(), "ghost", "thread-1")
	if !errors.Is(err, invite.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestInvite_DisabledAgentIsInvalidInput(t *testing.T) {
	e, _ := newTestExecutor(t, config.CatalogEntry{
		Name:           "claude",
		InvokeCommand:  "echo {thread_id}",
		TimeoutSeconds: 1,
		Enabled:        false,
	})
	_, err := e.Invite(context.Background(), "claude", "thread-1")
	if !errors.Is(err, invite.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestInvite_RejectsNonWhitelistedPlaceholder(t *testing.T) {
	e, _ := newTestExecutor(t, config.CatalogEntry{
		Name:          "claude",
		InvokeCommand: "echo {thread_id} {secret}",
		Enabled:       true,
	})
	_, err := e.Invite(context.Background(), "claude", "thread-1")
	if !errors.Is(err, invite.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unwhitelisted placeholder, got %v", err)
	}
}

func TestInvite_SpawnsAndReturnsImmediately(t *testing.T) {
	logDir := t.TempDir()
	cat := &config.Catalog{Agents: []config.CatalogEntry{{
		Name:           "claude",
		InvokeCommand:  "sleep 0.2; echo done > " + filepath.Join(logDir, "marker"),
		TimeoutSeconds: 5,
		Enabled:        true,
	}}}
	e := invite.New(cat, logDir)

	start := time.Now()
	res, err := e.Invite(context.Background(), "claude", "thread-42")
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Invite: %v", err)
	}
	if !res.OK {
		t.Fatalf("expected ok=true, got reason=%q", res.Reason)
	}
	if elapsed > 150*time.Millisecond {
		t.Errorf("Invite blocked for %v, expected to return before the subprocess finished", elapsed)
	}

	entries, err := os.ReadDir(logDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) == 0 {
		t.Error("expected a per-invocation log file to have been created")
	}
}

func TestInvite_QuotesThreadIDForShell(t *testing.T) {
	logDir := t.TempDir()
	outFile := filepath.Join(logDir, "out.txt")
	cat := &config.Catalog{Agents: []config.CatalogEntry{{
		Name:          "claude",
		InvokeCommand: "printf '%s' {thread_id} > " + outFile,
		Enabled:       true,
	}}}
	e := invite.New(cat, logDir)

	threadID := "thread-with-$(danger) chars"
	res, err := e.Invite(context.Background(), "claude", threadID)
	if err != nil {
		t.Fatalf("Invite: %v", err)
	}
	if !res.OK {
		t.Fatalf("expected ok=true, got reason=%q", res.Reason)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if b, err := os.ReadFile(outFile); err == nil {
			if string(b) != threadID {
				t.Fatalf("output = %q, want %q", string(b), threadID)
			}
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("subprocess never wrote its output file")
}

func TestInvite_UnwritableLogDirStillSpawns(t *testing.T) {
	cat := &config.Catalog{Agents: []config.CatalogEntry{{
		Name:          "broken",
		InvokeCommand: "echo {thread_id}",
		Enabled:       true,
	}}}

	// A command referencing a placeholder with no whitelisted counterpart
	// is rejected before spawn, so exercise a different failure path:
	// an invocation log directory that cannot be created.
	e := invite.New(cat, "/nonexistent-root/definitely-not-writable")
	res, err := e.Invite(context.Background(), "broken", "thread-1")
	if err != nil {
		t.Fatalf("Invite: %v", err)
	}
	// Logging failures are non-fatal (falls back to no log file), so the
	// subprocess should still spawn successfully here.
	if !res.OK {
		t.Fatalf("expected ok=true despite unwritable log dir, got reason=%q", res.Reason)
	}
}
