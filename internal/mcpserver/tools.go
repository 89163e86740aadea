package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/agentic-research/kgstore/api"
	"github.com/agentic-research/kgstore/internal/accessor"
)

// Tools holds the references needed by the tool handlers.
type Tools struct {
	Store accessor.DataAccessor
	Log   *slog.Logger
}

// --- Result types ---

type graphResult struct {
	Datastore string       `json:"datastore"`
	Found     bool         `json:"found"`
	Vertices  []api.Vertex `json:"vertices"`
	Edges     []api.Edge   `json:"edges"`
}

type visualizationResult struct {
	Datastore string                    `json:"datastore"`
	Found     bool                      `json:"found"`
	Configs   []api.VisualizationConfig `json:"configs"`
}

type nluResult struct {
	Datastore        string                    `json:"datastore"`
	Found            bool                      `json:"found"`
	IntentRules      []api.NLUIntentRule       `json:"intentRules"`
	Entities         []api.EntityData          `json:"entities"`
	EntityAttributes []api.EntityAttributeData `json:"entityAttributes"`
}

type datasetResult struct {
	Datastore     string              `json:"datastore"`
	Found         bool                `json:"found"`
	Graph         graphResult         `json:"graph"`
	Visualization visualizationResult `json:"visualization"`
	NLU           nluResult           `json:"nlu"`
	// Errors lists domains that failed to load; the others are still returned.
	Errors []string `json:"errors,omitempty"`
}

type colorConfigInput struct {
	User      string            `json:"user"`
	Datastore string            `json:"datastore"`
	Scenario  string            `json:"scenario"`
	Colors    []api.ColorConfig `json:"colors"`
}

// --- Handlers ---

func (t *Tools) ListDatastores(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := t.Store.ListDatastores(ctx)
	if err != nil {
		return t.toolError("list_datastores", err), nil
	}
	return toolJSON(map[string]any{"datastores": names})
}

func (t *Tools) CreateDatastore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, name, errResult := userAndDatastore(req)
	if errResult != nil {
		return errResult, nil
	}
	if err := t.Store.AddDatastore(ctx, user, name); err != nil {
		return t.toolError("create_datastore", err), nil
	}
	return toolJSON(api.DatastoreItem{Name: name, Owner: user})
}

func (t *Tools) DeleteDatastore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, name, errResult := userAndDatastore(req)
	if errResult != nil {
		return errResult, nil
	}
	if err := t.Store.DeleteDatastore(ctx, user, name); err != nil {
		return t.toolError("delete_datastore", err), nil
	}
	return toolJSON(map[string]any{"deleted": name})
}

func (t *Tools) LoadGraph(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("datastore")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	g, err := t.Store.LoadGraph(ctx, name)
	if err != nil {
		return t.toolError("load_graph", err), nil
	}
	return toolJSON(toGraphResult(name, g))
}

func (t *Tools) LoadVisualization(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("datastore")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, err := t.Store.LoadVisualizationConfigs(ctx, name)
	if err != nil {
		return t.toolError("load_visualization", err), nil
	}
	return toolJSON(toVisualizationResult(name, v))
}

func (t *Tools) LoadNLU(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("datastore")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := t.Store.LoadNLU(ctx, name)
	if err != nil {
		return t.toolError("load_nlu", err), nil
	}
	return toolJSON(toNLUResult(name, n))
}

// LoadDatastore returns the composite even when some domains fail; the
// failures are listed in the result.
func (t *Tools) LoadDatastore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("datastore")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ds, err := t.Store.LoadAll(ctx, name)
	res := datasetResult{
		Datastore:     name,
		Found:         ds.Found(),
		Graph:         toGraphResult(name, ds.Graph),
		Visualization: toVisualizationResult(name, ds.Visualization),
		NLU:           toNLUResult(name, ds.NLU),
	}
	if err != nil {
		t.Log.Warn("datastore loaded with errors", "datastore", name, "err", err)
		res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", kindOf(err), err))
	}
	return toolJSON(res)
}

func (t *Tools) UpdateColorConfig(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in colorConfigInput
	if err := req.BindArguments(&in); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if err := t.Store.UpdateColorConfig(ctx, in.User, in.Datastore, in.Scenario, in.Colors); err != nil {
		return t.toolError("update_color_config", err), nil
	}
	return toolJSON(api.VisualizationConfig{Scenario: in.Scenario, LabelsOfVertexes: in.Colors})
}

// --- Helpers ---

func userAndDatastore(req mcp.CallToolRequest) (string, string, *mcp.CallToolResult) {
	user, err := req.RequireString("user")
	if err != nil {
		return "", "", mcp.NewToolResultError(err.Error())
	}
	name, err := req.RequireString("datastore")
	if err != nil {
		return "", "", mcp.NewToolResultError(err.Error())
	}
	return user, name, nil
}

func toGraphResult(name string, g accessor.Graph) graphResult {
	return graphResult{Datastore: name, Found: g.Found, Vertices: nonNil(g.Vertices), Edges: nonNil(g.Edges)}
}

func toVisualizationResult(name string, v accessor.Visualization) visualizationResult {
	return visualizationResult{Datastore: name, Found: v.Found, Configs: nonNil(v.Configs)}
}

func toNLUResult(name string, n accessor.NLU) nluResult {
	return nluResult{
		Datastore:        name,
		Found:            n.Found,
		IntentRules:      nonNil(n.IntentRules),
		Entities:         nonNil(n.Entities),
		EntityAttributes: nonNil(n.EntityAttributes),
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func kindOf(err error) string {
	if k := accessor.KindOf(err); k != "" {
		return string(k)
	}
	return "error"
}

// toolError reports err inside the result, prefixed with its kind.
func (t *Tools) toolError(tool string, err error) *mcp.CallToolResult {
	t.Log.Warn("tool failed", "tool", tool, "kind", kindOf(err), "err", err)
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", kindOf(err), err))
}

func toolJSON(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
