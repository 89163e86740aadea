package ingest

import (
	"github.com/go-git/go-billy/v5"

	"github.com/agentic-research/kgstore/api"
)

// Walker abstracts record selection over decoded documents.
type Walker interface {
	// Query executes a selector against root and returns the matches in
	// document order.
	Query(root any, selector string) ([]Match, error)
}

// Match represents a single result from a query.
type Match interface {
	// Context returns the matched value as decoded by the walker.
	Context() any
}

// KGImporter parses the KG directory of a datastore.
// A missing or empty directory yields empty lists and no error.
type KGImporter interface {
	Import(fs billy.Filesystem, dir string) ([]api.Vertex, []api.Edge, error)
}

// NLUImporter parses the NLU directory of a datastore.
type NLUImporter interface {
	Import(fs billy.Filesystem, dir string) ([]api.NLUIntentRule, []api.EntityData, []api.EntityAttributeData, error)
}

// VisualizationImporter parses the visualization directory of a datastore.
type VisualizationImporter interface {
	Import(fs billy.Filesystem, dir string) ([]api.VisualizationConfig, error)
}
