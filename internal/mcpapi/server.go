// Package mcpapi is the MCP tool/resource/prompt surface (§6) over both
// the stdio and SSE transports, grounded on the teacher's own
// internal/mcp package — extended here with resources and prompts, which
// the teacher's tool-only server didn't need.
package mcpapi

import (
	"context"
	"net/http"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dohr-michael/agentbus/internal/core"
)

// NewServer builds an MCP server exposing every tool/resource/prompt in
// §6 over the given Core API façade.
func NewServer(api *core.API) *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "agentbus",
		Version: "0.1.0",
	}, nil)

	registerTools(server, api)
	registerResources(server, api)
	registerPrompts(server)

	return server
}

// RunStdio runs server over the stdio transport (one process per
// `agentbus mcp-stdio` invocation, §9's dual-mount open question).
func RunStdio(ctx context.Context, server *mcpsdk.Server) error {
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

// SSEHandler mounts server over the SSE transport for in-process dual
// mounting alongside the REST gateway (§9: "both adapters route into the
// same Core API instance").
func SSEHandler(server *mcpsdk.Server) http.Handler {
	return mcpsdk.NewSSEHTTPHandler(func(*http.Request) *mcpsdk.Server {
		return server
	})
}
