package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentic-research/kgstore/api"
	"github.com/agentic-research/kgstore/internal/accessor"
)

func newColorCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "color",
		Short: "Manage per-scenario styling",
	}

	var (
		file string
		user string
	)
	set := &cobra.Command{
		Use:   "set [datastore] [scenario]",
		Short: "Replace the styling rules of a scenario with those in --file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read colors: %w", err)
			}
			var colors []api.ColorConfig
			if err := json.Unmarshal(data, &colors); err != nil {
				return fmt.Errorf("decode %s: %w", file, err)
			}
			return o.withStore(func(s accessor.DataAccessor) error {
				if err := s.UpdateColorConfig(cmd.Context(), user, args[0], args[1], colors); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated %s/%s (%d rules)\n", args[0], args[1], len(colors))
				return nil
			})
		},
	}
	set.Flags().StringVarP(&file, "file", "f", "", "JSON array of color rules")
	set.Flags().StringVarP(&user, "user", "u", "", "Caller, recorded in the log")
	_ = set.MarkFlagRequired("file")

	cmd.AddCommand(set)
	return cmd
}
