package mcpapi

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerPrompts wires the two fixed prompt templates named in spec §6.
// Both are static templates with string interpolation; neither touches the
// Core API directly, they only produce text for the caller to act on.
func registerPrompts(server *mcpsdk.Server) {
	server.AddPrompt(&mcpsdk.Prompt{
		Name:        "summarize_thread",
		Description: "Produce a closing summary for a thread transcript.",
		Arguments: []*mcpsdk.PromptArgument{
			{Name: "topic", Description: "What the thread was about.", Required: true},
			{Name: "transcript", Description: "The thread transcript to summarize.", Required: true},
		},
	}, func(ctx context.Context, req *mcpsdk.GetPromptRequest) (*mcpsdk.GetPromptResult, error) {
		topic := req.Params.Arguments["topic"]
		transcript := req.Params.Arguments["transcript"]
		if topic == "" || transcript == "" {
			return nil, fmt.Errorf("topic and transcript are required")
		}
		text := fmt.Sprintf(
			"Topic: %s\n\nTranscript:\n%s\n\nWrite a concise closing summary covering what was decided and any "+
				"follow-up work, then call thread_close with that summary.",
			topic, transcript,
		)
		return &mcpsdk.GetPromptResult{
			Description: "Summarize a thread",
			Messages: []*mcpsdk.PromptMessage{
				{Role: "user", Content: &mcpsdk.TextContent{Text: text}},
			},
		}, nil
	})

	server.AddPrompt(&mcpsdk.Prompt{
		Name:        "handoff_to_agent",
		Description: "Hand a task off from one agent to another via agent_invite.",
		Arguments: []*mcpsdk.PromptArgument{
			{Name: "from_agent", Description: "Agent handing the task off.", Required: true},
			{Name: "to_agent", Description: "Catalog agent name receiving the task.", Required: true},
			{Name: "task_description", Description: "What the receiving agent needs to do.", Required: true},
			{Name: "context", Description: "Additional background for the receiving agent.", Required: false},
		},
	}, func(ctx context.Context, req *mcpsdk.GetPromptRequest) (*mcpsdk.GetPromptResult, error) {
		fromAgent := req.Params.Arguments["from_agent"]
		toAgent := req.Params.Arguments["to_agent"]
		taskDescription := req.Params.Arguments["task_description"]
		if fromAgent == "" || toAgent == "" || taskDescription == "" {
			return nil, fmt.Errorf("from_agent, to_agent, and task_description are required")
		}
		text := fmt.Sprintf(
			"%s is handing off to %s.\n\nTask: %s", fromAgent, toAgent, taskDescription,
		)
		if ctxArg := req.Params.Arguments["context"]; ctxArg != "" {
			text += fmt.Sprintf("\n\nContext: %s", ctxArg)
		}
		text += fmt.Sprintf(
			"\n\nPost a message describing the handoff, then call agent_invite with agent_name=%q to wake %s.",
			toAgent, toAgent,
		)
		return &mcpsdk.GetPromptResult{
			Description: "Hand off a task to another agent",
			Messages: []*mcpsdk.PromptMessage{
				{Role: "user", Content: &mcpsdk.TextContent{Text: text}},
			},
		}, nil
	})
}
