package filestore

import (
	"path/filepath"

	"github.com/agentic-research/kgstore/internal/ingest"
)

// Directory and file names of the on-disk format. "Visulization" is spelled
// the way existing datastores have it on disk.
const (
	GraphDir         = "KG"
	VisualizationDir = "Visulization"
	NLUDir           = "NLU"
	OwnerMarker      = ".owner"
	LockFile         = ".lock"
)

// Layout resolves datastore locations relative to the backend root. Paths are
// plain joins; callers validate names first.
type Layout struct{}

// Canonical is the datastore's own directory.
func (Layout) Canonical(name string) string { return name }

func (Layout) Graph(name string) string { return filepath.Join(name, GraphDir) }

func (Layout) Visualization(name string) string { return filepath.Join(name, VisualizationDir) }

func (Layout) NLU(name string) string { return filepath.Join(name, NLUDir) }

// Mirror is the owner's marker directory for the datastore.
func (Layout) Mirror(user, name string) string { return filepath.Join(user, name) }

// Owner is the marker file that identifies user as an owner directory.
func (Layout) Owner(user string) string { return filepath.Join(user, OwnerMarker) }

func (Layout) Lock(name string) string { return filepath.Join(name, LockFile) }

// VisualizationFile is the styling file of one scenario.
func (l Layout) VisualizationFile(name, scenario string) string {
	return filepath.Join(l.Visualization(name), ingest.VisualizationFilePrefix+scenario+".json")
}
