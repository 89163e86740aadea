package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentic-research/kgstore/internal/accessor"
)

const (
	domainGraph         = "graph"
	domainNLU           = "nlu"
	domainVisualization = "visualization"
	domainAll           = "all"
)

func newLoadCmd(o *options) *cobra.Command {
	var domain string
	cmd := &cobra.Command{
		Use:   "load [name]",
		Short: "Print one domain of a datastore, or all of them, as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			return o.withStore(func(s accessor.DataAccessor) error {
				ctx := cmd.Context()
				var (
					out   any
					found bool
					err   error
				)
				switch domain {
				case domainGraph:
					var g accessor.Graph
					g, err = s.LoadGraph(ctx, name)
					out, found = g, g.Found
				case domainNLU:
					var n accessor.NLU
					n, err = s.LoadNLU(ctx, name)
					out, found = n, n.Found
				case domainVisualization:
					var v accessor.Visualization
					v, err = s.LoadVisualizationConfigs(ctx, name)
					out, found = v, v.Found
				case domainAll:
					var ds accessor.Dataset
					// The composite is printed even when a domain failed.
					ds, err = s.LoadAll(ctx, name)
					out, found = ds, ds.Found()
				default:
					return fmt.Errorf("unknown domain %q (want graph, nlu, visualization or all)", domain)
				}
				if err != nil && domain != domainAll {
					return err
				}
				if !found {
					o.logger.Warn("nothing found", "datastore", name, "domain", domain)
				}
				if werr := writeJSON(cmd.OutOrStdout(), out); werr != nil {
					return werr
				}
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&domain, "domain", "d", domainAll, "Domain to load: graph, nlu, visualization or all")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
