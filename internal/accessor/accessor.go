// Package accessor defines the DataAccessor contract shared by every kgstore
// backend, along with its result types and error kinds.
//
// Loads never fail for "nothing here": a blank datastore name or a missing
// domain location yields a result with Found == false and a nil error. Errors
// are reserved for data that exists but cannot be read. Mutations report
// failures as *Error values carrying a Kind.
package accessor

import (
	"context"
	"errors"

	"github.com/agentic-research/kgstore/api"
)

// DataAccessor is the uniform operation set over a datastore backend.
type DataAccessor interface {
	LoadGraph(ctx context.Context, name string) (Graph, error)
	LoadVisualizationConfigs(ctx context.Context, name string) (Visualization, error)
	LoadNLU(ctx context.Context, name string) (NLU, error)
	LoadAll(ctx context.Context, name string) (Dataset, error)

	// ListDatastores returns datastore names, sorted.
	ListDatastores(ctx context.Context) ([]string, error)
	AddDatastore(ctx context.Context, user, name string) error
	DeleteDatastore(ctx context.Context, user, name string) error

	// UpdateColorConfig replaces the styling of scenario in datastore
	// dsName, or appends it when the scenario has none yet.
	UpdateColorConfig(ctx context.Context, user, dsName, scenario string, colors []api.ColorConfig) error
}

// Graph is the KG domain of a datastore.
type Graph struct {
	Found    bool         `json:"found"`
	Vertices []api.Vertex `json:"vertices"`
	Edges    []api.Edge   `json:"edges"`
}

// Visualization is the styling domain of a datastore.
type Visualization struct {
	Found   bool                      `json:"found"`
	Configs []api.VisualizationConfig `json:"configs"`
}

// NLU is the natural-language-understanding domain of a datastore.
type NLU struct {
	Found            bool                      `json:"found"`
	IntentRules      []api.NLUIntentRule       `json:"intentRules"`
	Entities         []api.EntityData          `json:"entities"`
	EntityAttributes []api.EntityAttributeData `json:"entityAttributes"`
}

// Dataset is the composite of all three domains. Each part is independent:
// one domain being absent says nothing about the others.
type Dataset struct {
	Graph         Graph         `json:"graph"`
	Visualization Visualization `json:"visualization"`
	NLU           NLU           `json:"nlu"`
}

// Found reports whether any domain was found.
func (d Dataset) Found() bool {
	return d.Graph.Found || d.Visualization.Found || d.NLU.Found
}

// DomainLoader is the subset of DataAccessor that LoadAll composes.
type DomainLoader interface {
	LoadGraph(ctx context.Context, name string) (Graph, error)
	LoadVisualizationConfigs(ctx context.Context, name string) (Visualization, error)
	LoadNLU(ctx context.Context, name string) (NLU, error)
}

// LoadAll runs the three domain loads independently and assembles the
// composite. The composite is always returned; errors from individual
// domains are joined.
func LoadAll(ctx context.Context, l DomainLoader, name string) (Dataset, error) {
	var ds Dataset
	var errs []error

	g, err := l.LoadGraph(ctx, name)
	if err != nil {
		errs = append(errs, err)
	}
	ds.Graph = g

	v, err := l.LoadVisualizationConfigs(ctx, name)
	if err != nil {
		errs = append(errs, err)
	}
	ds.Visualization = v

	n, err := l.LoadNLU(ctx, name)
	if err != nil {
		errs = append(errs, err)
	}
	ds.NLU = n

	return ds, errors.Join(errs...)
}
