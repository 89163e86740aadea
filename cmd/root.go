package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentic-research/kgstore/internal/accessor"
	"github.com/agentic-research/kgstore/internal/config"
	"github.com/agentic-research/kgstore/internal/docstore"
	"github.com/agentic-research/kgstore/internal/filestore"
)

// options carries the global flags and the state resolved from them before
// any subcommand runs.
type options struct {
	configPath string
	backend    string
	root       string
	db         string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "kgstore",
		Short:         "kgstore: knowledge-graph datastore access",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.resolve(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&o.configPath, "config", "c", "", "Path to an .hcl or .yaml config file")
	pf.StringVar(&o.backend, "backend", "", "Storage backend (file or sqlite)")
	pf.StringVar(&o.root, "root", "", "Root directory of the file backend")
	pf.StringVar(&o.db, "db", "", "Database path of the sqlite backend")

	root.AddCommand(
		newDatastoreCmd(o),
		newLoadCmd(o),
		newColorCmd(o),
		newUploadCmd(o),
		newServeCmd(o),
	)
	return root
}

// resolve loads the config file and environment, then applies flags given
// on the command line on top.
func (o *options) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = o.backend
	}
	if flags.Changed("root") {
		cfg.RootPath = o.root
	}
	if flags.Changed("db") {
		cfg.DatabasePath = o.db
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	o.cfg = cfg
	o.logger = cfg.NewLogger(cmd.ErrOrStderr())
	return nil
}

// openStore builds the configured backend. The returned func releases it.
func (o *options) openStore() (accessor.DataAccessor, func() error, error) {
	switch o.cfg.Backend {
	case config.BackendSQLite:
		s, err := docstore.Open(o.cfg.DatabasePath, docstore.Options{Logger: o.logger})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		mode, err := filestore.ParseListMode(o.cfg.ListMode)
		if err != nil {
			return nil, nil, err
		}
		a := filestore.NewOS(o.cfg.RootPath, filestore.Options{
			ListMode:    mode,
			PruneMirror: o.cfg.PruneMirror,
			Logger:      o.logger,
		})
		return a, func() error { return nil }, nil
	}
}

func (o *options) withStore(fn func(accessor.DataAccessor) error) error {
	store, release, err := o.openStore()
	if err != nil {
		return err
	}
	defer func() {
		if err := release(); err != nil {
			o.logger.Warn("close store", "err", err)
		}
	}()
	return fn(store)
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
