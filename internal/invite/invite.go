// Package invite is the Invitation Executor (§4.6): given a named entry
// from a declarative agent catalog, spawns a configured subprocess to
// wake an external CLI agent onto a thread.
package invite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
	"mvdan.cc/sh/v3/syntax"

	"github.com/dohr-michael/agentbus/internal/config"
)

// ErrInvalidInput is returned for catalog lookup and placeholder
// validation failures (§4.6 steps 1-2), as opposed to a spawn failure
// (step 4), which is reported in Result instead of as a Go error.
var ErrInvalidInput = errors.New("invite: invalid input")

const defaultTimeout = 60 * time.Second

// Result is the synchronous outcome of an invitation.
type Result struct {
	OK              bool
	CommandExecuted string
	Reason          string
}

// Executor spawns catalog-declared subprocesses.
type Executor struct {
	catalog *config.Catalog
	logDir  string
}

// New creates an Executor. logDir is where per-invocation stdout/stderr
// logs are written for audit (§4.6 step 3).
func New(catalog *config.Catalog, logDir string) *Executor {
	return &Executor{catalog: catalog, logDir: logDir}
}

var placeholderRe = regexp.MustCompile(`\{(\w+)\}`)

// Invite looks up agentName in the catalog, interpolates {thread_id} into
// its invoke_command, and spawns it detached from the caller's lifecycle.
// The core does not track the subprocess beyond logging (§9: "Subprocess
// lifetime").
func (e *Executor) Invite(ctx context.Context, agentName, threadID string) (Result, error) {
	entry, ok := e.catalog.Find(agentName)
	if !ok {
		return Result{}, fmt.Errorf("%w: unknown agent %q", ErrInvalidInput, agentName)
	}
	if !entry.Enabled {
		return Result{}, fmt.Errorf("%w: agent %q is disabled", ErrInvalidInput, agentName)
	}

	quotedThreadID, err := syntax.Quote(threadID, syntax.LangBash)
	if err != nil {
		return Result{}, fmt.Errorf("%w: cannot quote thread id for the host shell: %v", ErrInvalidInput, err)
	}

	command, err := interpolate(entry.InvokeCommand, map[string]string{"thread_id": quotedThreadID})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	timeout := time.Duration(entry.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	logFile, err := e.openLogFile(agentName, threadID)
	if err != nil {
		slog.Warn("invite: could not open invocation log, proceeding without one", "agent", agentName, "error", err)
	}

	// Spawn against a context of its own rather than the caller's request
	// context: the subprocess must outlive the HTTP/MCP call that
	// triggered it, but still dies at its configured hard timeout.
	spawnCtx, cancel := context.WithTimeout(context.Background(), timeout)

	cmd := exec.CommandContext(spawnCtx, "sh", "-c", command)
	if logFile != nil {
		cmd.Stdout = logFile
		cmd.Stderr = logFile
	}

	if err := cmd.Start(); err != nil {
		cancel()
		if logFile != nil {
			_ = logFile.Close()
		}
		return Result{OK: false, Reason: err.Error()}, nil
	}

	go func() {
		defer cancel()
		if logFile != nil {
			defer logFile.Close()
		}
		if err := cmd.Wait(); err != nil {
			slog.Debug("invite: invocation subprocess exited", "agent", agentName, "thread_id", threadID, "error", err)
		}
	}()

	return Result{OK: true, CommandExecuted: command}, nil
}

func (e *Executor) openLogFile(agentName, threadID string) (*os.File, error) {
	if e.logDir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(e.logDir, 0o755); err != nil {
		return nil, fmt.Errorf("create invocation log dir: %w", err)
	}
	name := fmt.Sprintf("%s-%s-%s.log", agentName, threadID, uuid.New().String())
	return os.Create(filepath.Join(e.logDir, name))
}

// interpolate replaces {name} placeholders with values, rejecting any
// placeholder not present in values (§4.6: "placeholders outside the
// whitelist MUST be rejected").
func interpolate(template string, values map[string]string) (string, error) {
	var missing string
	result := placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		v, ok := values[name]
		if !ok {
			missing = name
			return match
		}
		return v
	})
	if missing != "" {
		return "", fmt.Errorf("placeholder {%s} is not whitelisted", missing)
	}
	return result, nil
}
