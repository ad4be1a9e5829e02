package mcpapi

import (
	"context"
	"encoding/json"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dohr-michael/agentbus/internal/core"
	"github.com/dohr-michael/agentbus/internal/store"
)

// toolFunc is the shape every §6 tool handler implements: decode raw JSON
// args, call the Core API, return a JSON-encodable result.
type toolFunc func(ctx context.Context, api *core.API, args json.RawMessage) (any, error)

func registerTools(server *mcpsdk.Server, api *core.API) {
	for _, t := range toolTable(api) {
		tool := t
		server.AddTool(tool.spec, func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
			result, err := tool.fn(ctx, api, req.Params.Arguments)
			if err != nil {
				slog.Debug("mcp tool error", "tool", tool.spec.Name, "error", err)
				return &mcpsdk.CallToolResult{
					IsError: true,
					Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
				}, nil
			}
			data, err := json.Marshal(result)
			if err != nil {
				return &mcpsdk.CallToolResult{IsError: true, Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}}}, nil
			}
			return &mcpsdk.CallToolResult{Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}}}, nil
		})
	}
}

type toolEntry struct {
	spec *mcpsdk.Tool
	fn   toolFunc
}

func schema(props map[string]any, required ...string) map[string]any {
	s := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func prop(typ, desc string) map[string]any {
	return map[string]any{"type": typ, "description": desc}
}

// toolTable enumerates the fixed, spec-enumerated tool set 1:1 against
// Core API methods (§6: "Each maps 1:1 to a Core API call"). Unlike the
// teacher's plugins.ToolRegistry, there is no dynamic tool discovery here
// — the tool set never changes at runtime, so each schema is hand-written.
func toolTable(api *core.API) []toolEntry {
	return []toolEntry{
		{
			spec: &mcpsdk.Tool{
				Name:        "thread_create",
				Description: "Create a new thread.",
				InputSchema: schema(map[string]any{
					"topic":    prop("string", "Short topic label for the thread."),
					"metadata": map[string]any{"type": "object", "description": "Opaque key/value metadata."},
				}, "topic"),
			},
			fn: func(ctx context.Context, api *core.API, args json.RawMessage) (any, error) {
				var req struct {
					Topic    string         `json:"topic"`
					Metadata map[string]any `json:"metadata"`
				}
				if err := json.Unmarshal(args, &req); err != nil {
					return nil, err
				}
				return api.CreateThread(ctx, req.Topic, req.Metadata)
			},
		},
		{
			spec: &mcpsdk.Tool{
				Name:        "thread_list",
				Description: "List threads, optionally filtered by status.",
				InputSchema: schema(map[string]any{
					"status":           prop("string", "One of discuss, implement, review, done, closed, archived; empty for all."),
					"include_archived": prop("boolean", "Include archived threads (default false)."),
				}),
			},
			fn: func(ctx context.Context, api *core.API, args json.RawMessage) (any, error) {
				var req struct {
					Status          string `json:"status"`
					IncludeArchived bool   `json:"include_archived"`
				}
				if len(args) > 0 {
					if err := json.Unmarshal(args, &req); err != nil {
						return nil, err
					}
				}
				return api.ListThreads(ctx, store.ThreadStatus(req.Status), req.IncludeArchived)
			},
		},
		{
			spec: &mcpsdk.Tool{
				Name:        "thread_get",
				Description: "Fetch a single thread by id.",
				InputSchema: schema(map[string]any{
					"thread_id": prop("string", "Thread id."),
				}, "thread_id"),
			},
			fn: func(ctx context.Context, api *core.API, args json.RawMessage) (any, error) {
				var req struct {
					ThreadID string `json:"thread_id"`
				}
				if err := json.Unmarshal(args, &req); err != nil {
					return nil, err
				}
				return api.FetchThread(ctx, req.ThreadID)
			},
		},
		{
			spec: &mcpsdk.Tool{
				Name:        "thread_set_state",
				Description: "Transition a thread's status.",
				InputSchema: schema(map[string]any{
					"thread_id": prop("string", "Thread id."),
					"status":    prop("string", "One of discuss, implement, review, done, closed."),
				}, "thread_id", "status"),
			},
			fn: func(ctx context.Context, api *core.API, args json.RawMessage) (any, error) {
				var req struct {
					ThreadID string `json:"thread_id"`
					Status   string `json:"status"`
				}
				if err := json.Unmarshal(args, &req); err != nil {
					return nil, err
				}
				if err := api.SetThreadState(ctx, req.ThreadID, store.ThreadStatus(req.Status)); err != nil {
					return nil, err
				}
				return map[string]bool{"ok": true}, nil
			},
		},
		{
			spec: &mcpsdk.Tool{
				Name:        "thread_close",
				Description: "Close a thread with an optional summary.",
				InputSchema: schema(map[string]any{
					"thread_id": prop("string", "Thread id."),
					"summary":   prop("string", "Closing summary."),
				}, "thread_id"),
			},
			fn: func(ctx context.Context, api *core.API, args json.RawMessage) (any, error) {
				var req struct {
					ThreadID string `json:"thread_id"`
					Summary  string `json:"summary"`
				}
				if err := json.Unmarshal(args, &req); err != nil {
					return nil, err
				}
				if err := api.CloseThread(ctx, req.ThreadID, req.Summary); err != nil {
					return nil, err
				}
				return map[string]bool{"ok": true}, nil
			},
		},
		{
			spec: &mcpsdk.Tool{
				Name:        "thread_archive",
				Description: "Archive a thread regardless of its current status.",
				InputSchema: schema(map[string]any{
					"thread_id": prop("string", "Thread id."),
				}, "thread_id"),
			},
			fn: func(ctx context.Context, api *core.API, args json.RawMessage) (any, error) {
				var req struct {
					ThreadID string `json:"thread_id"`
				}
				if err := json.Unmarshal(args, &req); err != nil {
					return nil, err
				}
				if err := api.ArchiveThread(ctx, req.ThreadID); err != nil {
					return nil, err
				}
				return map[string]bool{"ok": true}, nil
			},
		},
		{
			spec: &mcpsdk.Tool{
				Name:        "msg_post",
				Description: "Post a message to a thread.",
				InputSchema: schema(map[string]any{
					"thread_id":   prop("string", "Thread id."),
					"author_id":   prop("string", "Posting agent id, or empty for human/system."),
					"author_name": prop("string", "Display label for the author."),
					"role":        prop("string", "One of user, assistant, system."),
					"content":     prop("string", "Message text, or a JSON-encoded array of content blocks."),
					"mentions":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Agent ids referenced."},
					"metadata":    map[string]any{"type": "object", "description": "Opaque key/value metadata."},
				}, "thread_id", "role", "content"),
			},
			fn: func(ctx context.Context, api *core.API, args json.RawMessage) (any, error) {
				var req struct {
					ThreadID   string         `json:"thread_id"`
					AuthorID   string         `json:"author_id"`
					AuthorName string         `json:"author_name"`
					Role       string         `json:"role"`
					Content    string         `json:"content"`
					Mentions   []string       `json:"mentions"`
					Metadata   map[string]any `json:"metadata"`
				}
				if err := json.Unmarshal(args, &req); err != nil {
					return nil, err
				}
				return api.PostMessage(ctx, req.ThreadID, req.AuthorID, req.AuthorName, store.Role(req.Role), req.Content, req.Mentions, req.Metadata)
			},
		},
		{
			spec: &mcpsdk.Tool{
				Name:        "msg_list",
				Description: "List messages in a thread after a given sequence number.",
				InputSchema: schema(map[string]any{
					"thread_id":             prop("string", "Thread id."),
					"after_seq":             prop("integer", "Return only messages with seq greater than this (default 0)."),
					"limit":                 prop("integer", "Maximum messages to return."),
					"include_system_prompt": prop("boolean", "Include synthetic system-role rows (default false)."),
					"as_blocks":             prop("boolean", "Return content as a structured block array instead of flattened text (default false)."),
				}, "thread_id"),
			},
			fn: func(ctx context.Context, api *core.API, args json.RawMessage) (any, error) {
				var req struct {
					ThreadID            string `json:"thread_id"`
					AfterSeq            int64  `json:"after_seq"`
					Limit               int    `json:"limit"`
					IncludeSystemPrompt bool   `json:"include_system_prompt"`
					AsBlocks            bool   `json:"as_blocks"`
				}
				if err := json.Unmarshal(args, &req); err != nil {
					return nil, err
				}
				msgs, err := api.ListMessages(ctx, req.ThreadID, req.AfterSeq, req.Limit, req.IncludeSystemPrompt)
				if err != nil {
					return nil, err
				}
				if req.AsBlocks {
					return toMessagesWithBlocks(msgs), nil
				}
				return msgs, nil
			},
		},
		{
			spec: &mcpsdk.Tool{
				Name:        "msg_wait",
				Description: "Suspend until a new message arrives, the timeout elapses, or the call is cancelled (§4.4). Times out to an empty list, never an error.",
				InputSchema: schema(map[string]any{
					"thread_id":  prop("string", "Thread id."),
					"after_seq":  prop("integer", "Wake only on messages with seq greater than this."),
					"timeout_ms": prop("integer", "Maximum time to suspend, default 300000."),
					"agent_id":   prop("string", "Waiting agent id, for presence attribution."),
				}, "thread_id"),
			},
			fn: func(ctx context.Context, api *core.API, args json.RawMessage) (any, error) {
				var req struct {
					ThreadID  string `json:"thread_id"`
					AfterSeq  int64  `json:"after_seq"`
					TimeoutMs int    `json:"timeout_ms"`
					AgentID   string `json:"agent_id"`
				}
				if err := json.Unmarshal(args, &req); err != nil {
					return nil, err
				}
				return api.WaitForMessages(ctx, req.ThreadID, req.AfterSeq, req.TimeoutMs, req.AgentID)
			},
		},
		{
			spec: &mcpsdk.Tool{
				Name:        "agent_register",
				Description: "Register a new agent and receive its id and token.",
				InputSchema: schema(map[string]any{
					"ide":          prop("string", "Host IDE or CLI name."),
					"model":        prop("string", "LLM label."),
					"name":         prop("string", "Display name."),
					"capabilities": map[string]any{"type": "object", "description": "Opaque capability record."},
				}, "ide", "model"),
			},
			fn: func(ctx context.Context, api *core.API, args json.RawMessage) (any, error) {
				var req struct {
					IDE          string         `json:"ide"`
					Model        string         `json:"model"`
					Name         string         `json:"name"`
					Capabilities map[string]any `json:"capabilities"`
				}
				if err := json.Unmarshal(args, &req); err != nil {
					return nil, err
				}
				ag, err := api.RegisterAgent(ctx, req.Name, req.IDE, req.Model, req.Capabilities)
				if err != nil {
					return nil, err
				}
				return map[string]string{"agent_id": ag.ID, "token": ag.Token}, nil
			},
		},
		{
			spec: &mcpsdk.Tool{
				Name:        "agent_heartbeat",
				Description: "Refresh an agent's liveness window.",
				InputSchema: schema(map[string]any{
					"agent_id": prop("string", "Agent id."),
					"token":    prop("string", "Secret issued at registration."),
				}, "agent_id", "token"),
			},
			fn: func(ctx context.Context, api *core.API, args json.RawMessage) (any, error) {
				var req struct {
					AgentID string `json:"agent_id"`
					Token   string `json:"token"`
				}
				if err := json.Unmarshal(args, &req); err != nil {
					return nil, err
				}
				if err := api.HeartbeatAgent(ctx, req.AgentID, req.Token); err != nil {
					return nil, err
				}
				return map[string]bool{"ok": true}, nil
			},
		},
		{
			spec: &mcpsdk.Tool{
				Name:        "agent_unregister",
				Description: "Remove an agent.",
				InputSchema: schema(map[string]any{
					"agent_id": prop("string", "Agent id."),
					"token":    prop("string", "Secret issued at registration."),
				}, "agent_id", "token"),
			},
			fn: func(ctx context.Context, api *core.API, args json.RawMessage) (any, error) {
				var req struct {
					AgentID string `json:"agent_id"`
					Token   string `json:"token"`
				}
				if err := json.Unmarshal(args, &req); err != nil {
					return nil, err
				}
				if err := api.UnregisterAgent(ctx, req.AgentID, req.Token); err != nil {
					return nil, err
				}
				return map[string]bool{"ok": true}, nil
			},
		},
		{
			spec: &mcpsdk.Tool{
				Name:        "agent_list",
				Description: "List all registered agents with derived online/state.",
				InputSchema: schema(map[string]any{}),
			},
			fn: func(ctx context.Context, api *core.API, args json.RawMessage) (any, error) {
				return api.ListAgents(ctx)
			},
		},
		{
			spec: &mcpsdk.Tool{
				Name:        "agent_set_typing",
				Description: "Set an agent's typing indicator for a thread. Ephemeral, never fails.",
				InputSchema: schema(map[string]any{
					"thread_id": prop("string", "Thread id."),
					"agent_id":  prop("string", "Agent id."),
					"is_typing": prop("boolean", "Typing state."),
				}, "thread_id", "agent_id", "is_typing"),
			},
			fn: func(ctx context.Context, api *core.API, args json.RawMessage) (any, error) {
				var req struct {
					ThreadID string `json:"thread_id"`
					AgentID  string `json:"agent_id"`
					IsTyping bool   `json:"is_typing"`
				}
				if err := json.Unmarshal(args, &req); err != nil {
					return nil, err
				}
				api.SetAgentTyping(req.ThreadID, req.AgentID, req.IsTyping)
				return map[string]bool{"ok": true}, nil
			},
		},
		{
			spec: &mcpsdk.Tool{
				Name:        "agent_invite",
				Description: "Invoke a catalog CLI agent against a thread (§4.6).",
				InputSchema: schema(map[string]any{
					"agent_name": prop("string", "Available-agent catalog entry name."),
					"thread_id":  prop("string", "Thread id to hand off to the invoked agent."),
				}, "agent_name", "thread_id"),
			},
			fn: func(ctx context.Context, api *core.API, args json.RawMessage) (any, error) {
				var req struct {
					AgentName string `json:"agent_name"`
					ThreadID  string `json:"thread_id"`
				}
				if err := json.Unmarshal(args, &req); err != nil {
					return nil, err
				}
				return api.InviteAgent(ctx, req.AgentName, req.ThreadID)
			},
		},
		{
			spec: &mcpsdk.Tool{
				Name:        "bus_get_config",
				Description: "Fetch the static bus configuration (host, port, timeouts).",
				InputSchema: schema(map[string]any{}),
			},
			fn: func(ctx context.Context, api *core.API, args json.RawMessage) (any, error) {
				return api.Config(), nil
			},
		},
	}
}
