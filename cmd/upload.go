package cmd

import (
	"fmt"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/kgstore/internal/docstore"
)

func newUploadCmd(o *options) *cobra.Command {
	var (
		datastore string
		owner     string
	)
	cmd := &cobra.Command{
		Use:   "upload [dir]",
		Short: "Import a datastore directory into the sqlite document store",
		Long: `Import the KG, NLU and Visulization subdirectories of [dir] into the
document store named by --db. Collections already stored for the datastore
are replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if datastore == "" {
				datastore = o.cfg.DefaultDatastore
			}

			store, err := docstore.Open(o.cfg.DatabasePath, docstore.Options{Logger: o.logger})
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			start := time.Now()
			res, err := docstore.NewUploader(store, o.logger).Upload(cmd.Context(), osfs.New(args[0]), ".", datastore, owner)
			if err != nil {
				return err
			}
			o.logger.Info("upload finished", "datastore", datastore, "db", o.cfg.DatabasePath, "elapsed", time.Since(start))
			if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
				return fmt.Errorf("write result: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&datastore, "datastore", "", "Target datastore (default from config)")
	cmd.Flags().StringVar(&owner, "owner", "", "Owner recorded for a newly registered datastore")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
