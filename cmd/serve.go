package cmd

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/agentic-research/kgstore/internal/accessor"
	"github.com/agentic-research/kgstore/internal/mcpserver"
)

func newServeCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the datastore tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withStore(func(s accessor.DataAccessor) error {
				o.logger.Info("serving MCP on stdio", "backend", o.cfg.Backend)
				return server.ServeStdio(mcpserver.New(s, o.logger))
			})
		},
	}
}
