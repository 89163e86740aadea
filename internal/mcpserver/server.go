// Package mcpserver exposes a DataAccessor as MCP tools.
package mcpserver

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/agentic-research/kgstore/internal/accessor"
)

const (
	serverName    = "kgstore"
	serverVersion = "0.1.0"
)

// New creates a fully configured MCP server with all tools registered.
func New(store accessor.DataAccessor, logger *slog.Logger) *server.MCPServer {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tools{Store: store, Log: logger.With("component", "mcp")}

	srv := server.NewMCPServer(serverName, serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	// Datastore lifecycle
	srv.AddTool(mcp.NewTool("list_datastores",
		mcp.WithDescription("List the names of all datastores"),
		mcp.WithReadOnlyHintAnnotation(true),
	), t.ListDatastores)

	srv.AddTool(mcp.NewTool("create_datastore",
		mcp.WithDescription("Create an empty datastore owned by user"),
		mcp.WithString("user", mcp.Required(), mcp.Description("Owner of the new datastore")),
		mcp.WithString("datastore", mcp.Required(), mcp.Description("Datastore name (a single path element)")),
	), t.CreateDatastore)

	srv.AddTool(mcp.NewTool("delete_datastore",
		mcp.WithDescription("Permanently delete a datastore and all its data (irreversible)"),
		mcp.WithString("user", mcp.Required(), mcp.Description("Owner of the datastore")),
		mcp.WithString("datastore", mcp.Required(), mcp.Description("Datastore to delete")),
		mcp.WithDestructiveHintAnnotation(true),
	), t.DeleteDatastore)

	// Loads
	srv.AddTool(mcp.NewTool("load_graph",
		mcp.WithDescription("Load the vertices and edges of a datastore"),
		mcp.WithString("datastore", mcp.Required(), mcp.Description("Datastore name")),
		mcp.WithReadOnlyHintAnnotation(true),
	), t.LoadGraph)

	srv.AddTool(mcp.NewTool("load_visualization",
		mcp.WithDescription("Load the per-scenario styling configs of a datastore"),
		mcp.WithString("datastore", mcp.Required(), mcp.Description("Datastore name")),
		mcp.WithReadOnlyHintAnnotation(true),
	), t.LoadVisualization)

	srv.AddTool(mcp.NewTool("load_nlu",
		mcp.WithDescription("Load the intent rules, entities and entity attributes of a datastore"),
		mcp.WithString("datastore", mcp.Required(), mcp.Description("Datastore name")),
		mcp.WithReadOnlyHintAnnotation(true),
	), t.LoadNLU)

	srv.AddTool(mcp.NewTool("load_datastore",
		mcp.WithDescription("Load every domain of a datastore at once"),
		mcp.WithString("datastore", mcp.Required(), mcp.Description("Datastore name")),
		mcp.WithReadOnlyHintAnnotation(true),
	), t.LoadDatastore)

	// Styling
	srv.AddTool(mcp.NewTool("update_color_config",
		mcp.WithDescription("Replace the styling rules of one scenario, creating the scenario if needed"),
		mcp.WithString("user", mcp.Description("Caller, recorded in the log")),
		mcp.WithString("datastore", mcp.Required(), mcp.Description("Datastore name")),
		mcp.WithString("scenario", mcp.Required(), mcp.Description("Scenario name")),
		mcp.WithArray("colors", mcp.Required(),
			mcp.Description("Styling rules, e.g. [{\"itemLabel\": \"Person\", \"color\": \"#ff0000\"}]"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"itemLabel": map[string]any{"type": "string"},
					"color":     map[string]any{"type": "string"},
					"shape":     map[string]any{"type": "string"},
				},
			}),
		),
	), t.UpdateColorConfig)

	return srv
}
