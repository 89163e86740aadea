// Package filestore implements accessor.DataAccessor over a directory tree.
//
// Each datastore is a directory under the root holding KG, NLU and
// Visulization subdirectories. Ownership is recorded by a mirror directory
// {user}/{name}; {user} itself carries a .owner marker so listings can tell
// owner directories from datastores.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/agentic-research/kgstore/internal/accessor"
	"github.com/agentic-research/kgstore/internal/ingest"
)

// ListMode selects which root entries ListDatastores reports.
type ListMode string

const (
	// ListCanonical skips dot-prefixed entries and owner directories.
	ListCanonical ListMode = "canonical"
	// ListAll reports every subdirectory of the root.
	ListAll ListMode = "all"
)

// ParseListMode maps a config value to a ListMode. Empty means ListCanonical.
func ParseListMode(s string) (ListMode, error) {
	switch ListMode(s) {
	case "", ListCanonical:
		return ListCanonical, nil
	case ListAll:
		return ListAll, nil
	default:
		return "", fmt.Errorf("unknown list mode %q (want %q or %q)", s, ListCanonical, ListAll)
	}
}

type Options struct {
	ListMode ListMode
	// PruneMirror makes DeleteDatastore remove the owner mirror as well.
	PruneMirror bool
	Logger      *slog.Logger

	// Importers default to the JSON importers of package ingest.
	KG            ingest.KGImporter
	NLU           ingest.NLUImporter
	Visualization ingest.VisualizationImporter
}

// Accessor is the file-tree DataAccessor.
type Accessor struct {
	fs     billy.Filesystem
	layout Layout
	opts   Options
	log    *slog.Logger
	locks  *accessor.KeyedMutex
}

var _ accessor.DataAccessor = (*Accessor)(nil)

// New returns an Accessor rooted at fs.
func New(fs billy.Filesystem, opts Options) *Accessor {
	if opts.ListMode == "" {
		opts.ListMode = ListCanonical
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.KG == nil {
		opts.KG = ingest.NewKGDataImporter()
	}
	if opts.NLU == nil {
		opts.NLU = ingest.NewNLUDataImporter()
	}
	if opts.Visualization == nil {
		opts.Visualization = ingest.NewVisualizationConfigImporter()
	}
	return &Accessor{
		fs:    fs,
		opts:  opts,
		log:   opts.Logger.With("component", "filestore"),
		locks: accessor.NewKeyedMutex(),
	}
}

// NewOS returns an Accessor over the host directory root.
func NewOS(root string, opts Options) *Accessor {
	return New(osfs.New(root), opts)
}

// LoadGraph implements accessor.DataAccessor.
func (a *Accessor) LoadGraph(ctx context.Context, name string) (accessor.Graph, error) {
	const op = "LoadGraph"
	dir, ok, err := a.domainDir(ctx, op, name, a.layout.Graph)
	if err != nil || !ok {
		return accessor.Graph{}, err
	}
	vertices, edges, err := a.opts.KG.Import(a.fs, dir)
	if err != nil {
		return accessor.Graph{}, a.importError(op, name, err)
	}
	return accessor.Graph{Found: true, Vertices: vertices, Edges: edges}, nil
}

// LoadVisualizationConfigs implements accessor.DataAccessor.
func (a *Accessor) LoadVisualizationConfigs(ctx context.Context, name string) (accessor.Visualization, error) {
	const op = "LoadVisualizationConfigs"
	dir, ok, err := a.domainDir(ctx, op, name, a.layout.Visualization)
	if err != nil || !ok {
		return accessor.Visualization{}, err
	}
	configs, err := a.opts.Visualization.Import(a.fs, dir)
	if err != nil {
		return accessor.Visualization{}, a.importError(op, name, err)
	}
	return accessor.Visualization{Found: true, Configs: configs}, nil
}

// LoadNLU implements accessor.DataAccessor.
func (a *Accessor) LoadNLU(ctx context.Context, name string) (accessor.NLU, error) {
	const op = "LoadNLU"
	dir, ok, err := a.domainDir(ctx, op, name, a.layout.NLU)
	if err != nil || !ok {
		return accessor.NLU{}, err
	}
	rules, entities, attrs, err := a.opts.NLU.Import(a.fs, dir)
	if err != nil {
		return accessor.NLU{}, a.importError(op, name, err)
	}
	return accessor.NLU{Found: true, IntentRules: rules, Entities: entities, EntityAttributes: attrs}, nil
}

// LoadAll implements accessor.DataAccessor.
func (a *Accessor) LoadAll(ctx context.Context, name string) (accessor.Dataset, error) {
	return accessor.LoadAll(ctx, a, name)
}

// domainDir resolves the directory of one domain. ok is false, with a nil
// error, when the name is blank or the directory does not exist.
func (a *Accessor) domainDir(ctx context.Context, op, name string, resolve func(string) string) (dir string, ok bool, err error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if accessor.IsBlank(name) {
		a.log.Warn("blank datastore name", "op", op)
		return "", false, nil
	}
	if err := accessor.ValidateName("datastore", name); err != nil {
		return "", false, accessor.NewError(op, accessor.KindInvalidInput, name, err)
	}

	dir = resolve(name)
	isDir, err := a.isDir(dir)
	if err != nil {
		return "", false, accessor.NewError(op, accessor.KindIOFailure, name, err)
	}
	if !isDir {
		a.log.Warn("datastore location not found", "op", op, "datastore", name, "path", dir)
		return "", false, nil
	}
	return dir, true, nil
}

func (a *Accessor) importError(op, name string, err error) error {
	if errors.Is(err, ingest.ErrMalformed) {
		a.log.Error("corrupt datastore data", "op", op, "datastore", name, "err", err)
		return accessor.NewError(op, accessor.KindCorrupt, name, fmt.Errorf("%w: %w", accessor.ErrCorrupt, err))
	}
	return accessor.NewError(op, accessor.KindIOFailure, name, err)
}

// exists reports whether p exists at all.
func (a *Accessor) exists(p string) (bool, error) {
	_, err := a.fs.Stat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (a *Accessor) isDir(p string) (bool, error) {
	info, err := a.fs.Stat(p)
	if err == nil {
		return info.IsDir(), nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// isOwnerDir reports whether dir carries the owner marker.
func (a *Accessor) isOwnerDir(dir string) (bool, error) {
	return a.exists(a.layout.Owner(dir))
}
