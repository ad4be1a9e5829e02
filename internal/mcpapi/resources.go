package mcpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dohr-michael/agentbus/internal/core"
)

// registerResources wires the §6 resource surface. The teacher's own
// internal/mcp package only ever registered tools (its plugins have no
// notion of a readable resource); this mirrors AddTool's registration
// shape for the two resource kinds the go-sdk distinguishes: fixed URIs
// via AddResource and the thread-scoped family via AddResourceTemplate.
func registerResources(server *mcpsdk.Server, api *core.API) {
	server.AddResource(&mcpsdk.Resource{
		URI:         "chat://bus/config",
		Name:        "bus-config",
		Description: "Static bus configuration: host, port, heartbeat and wait timeouts.",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcpsdk.ReadResourceRequest) (*mcpsdk.ReadResourceResult, error) {
		return jsonResource(req.Params.URI, api.Config())
	})

	server.AddResource(&mcpsdk.Resource{
		URI:         "chat://agents/active",
		Name:        "agents-active",
		Description: "All registered agents with derived online/state.",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcpsdk.ReadResourceRequest) (*mcpsdk.ReadResourceResult, error) {
		agents, err := api.ListAgents(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, agents)
	})

	server.AddResource(&mcpsdk.Resource{
		URI:         "chat://threads/active",
		Name:        "threads-active",
		Description: "Non-archived threads across every status.",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcpsdk.ReadResourceRequest) (*mcpsdk.ReadResourceResult, error) {
		threads, err := api.ListThreads(ctx, "", false)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, threads)
	})

	server.AddResourceTemplate(&mcpsdk.ResourceTemplate{
		URITemplate: "chat://threads/{id}/transcript",
		Name:        "thread-transcript",
		Description: "Full ordered message history for a thread.",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcpsdk.ReadResourceRequest) (*mcpsdk.ReadResourceResult, error) {
		id, err := threadIDFromURI(req.Params.URI, "/transcript")
		if err != nil {
			return nil, err
		}
		const pageSize = 500
		msgs, err := api.ListMessages(ctx, id, 0, pageSize, true)
		if err != nil {
			return nil, err
		}
		for page := msgs; len(page) == pageSize; {
			page, err = api.ListMessages(ctx, id, page[len(page)-1].Seq, pageSize, true)
			if err != nil {
				return nil, err
			}
			msgs = append(msgs, page...)
		}
		return jsonResource(req.Params.URI, msgs)
	})

	server.AddResourceTemplate(&mcpsdk.ResourceTemplate{
		URITemplate: "chat://threads/{id}/summary",
		Name:        "thread-summary",
		Description: "The thread's closing summary, if closed.",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcpsdk.ReadResourceRequest) (*mcpsdk.ReadResourceResult, error) {
		id, err := threadIDFromURI(req.Params.URI, "/summary")
		if err != nil {
			return nil, err
		}
		th, err := api.FetchThread(ctx, id)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, map[string]string{"summary": th.Summary})
	})

	server.AddResourceTemplate(&mcpsdk.ResourceTemplate{
		URITemplate: "chat://threads/{id}/state",
		Name:        "thread-state",
		Description: "The thread's current status.",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcpsdk.ReadResourceRequest) (*mcpsdk.ReadResourceResult, error) {
		id, err := threadIDFromURI(req.Params.URI, "/state")
		if err != nil {
			return nil, err
		}
		th, err := api.FetchThread(ctx, id)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, map[string]string{"status": string(th.Status)})
	})
}

func jsonResource(uri string, v any) (*mcpsdk.ReadResourceResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &mcpsdk.ReadResourceResult{
		Contents: []*mcpsdk.ResourceContents{
			{URI: uri, MIMEType: "application/json", Text: string(data)},
		},
	}, nil
}

// threadIDFromURI extracts {id} from chat://threads/{id}<suffix>.
func threadIDFromURI(uri, suffix string) (string, error) {
	const prefix = "chat://threads/"
	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return "", fmt.Errorf("malformed resource uri %q", uri)
	}
	id := strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)
	if id == "" {
		return "", fmt.Errorf("malformed resource uri %q: empty thread id", uri)
	}
	return id, nil
}
