package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentic-research/kgstore/internal/accessor"
)

func newDatastoreCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datastore",
		Short: "List, create and delete datastores",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Print the name of every datastore",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withStore(func(s accessor.DataAccessor) error {
				names, err := s.ListDatastores(cmd.Context())
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			})
		},
	}

	var createUser string
	create := &cobra.Command{
		Use:   "create [name]",
		Short: "Create an empty datastore owned by --user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withStore(func(s accessor.DataAccessor) error {
				if err := s.AddDatastore(cmd.Context(), createUser, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", args[0])
				return nil
			})
		},
	}
	create.Flags().StringVarP(&createUser, "user", "u", "", "Owner of the datastore")
	_ = create.MarkFlagRequired("user")

	var deleteUser string
	del := &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a datastore and everything in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withStore(func(s accessor.DataAccessor) error {
				if err := s.DeleteDatastore(cmd.Context(), deleteUser, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	}
	del.Flags().StringVarP(&deleteUser, "user", "u", "", "Owner of the datastore")
	_ = del.MarkFlagRequired("user")

	cmd.AddCommand(list, create, del)
	return cmd
}
