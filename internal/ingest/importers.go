package ingest

import (
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/agentic-research/kgstore/api"
)

// VisualizationFilePrefix is the base-name prefix of styling files.
const VisualizationFilePrefix = "VisulizationConfig_"

// KGDataImporter reads vertices and edges from the *.json files of a KG
// directory. Each file is an object with "vertexes" and/or "edges" arrays.
type KGDataImporter struct {
	Walker         Walker
	VertexSelector string
	EdgeSelector   string
}

func NewKGDataImporter() *KGDataImporter {
	return &KGDataImporter{
		Walker:         NewJsonWalker(),
		VertexSelector: "$.vertexes[*]",
		EdgeSelector:   "$.edges[*]",
	}
}

// Import implements KGImporter.
func (i *KGDataImporter) Import(fs billy.Filesystem, dir string) ([]api.Vertex, []api.Edge, error) {
	docs, err := readDocuments(fs, dir, nil)
	if err != nil {
		return nil, nil, err
	}
	vertices, err := selectAll[api.Vertex](i.Walker, docs, i.VertexSelector)
	if err != nil {
		return nil, nil, err
	}
	edges, err := selectAll[api.Edge](i.Walker, docs, i.EdgeSelector)
	if err != nil {
		return nil, nil, err
	}
	return vertices, edges, nil
}

// NLUDataImporter reads intent rules, entities and entity attributes from
// the *.json files of an NLU directory.
type NLUDataImporter struct {
	Walker                  Walker
	IntentRuleSelector      string
	EntitySelector          string
	EntityAttributeSelector string
}

func NewNLUDataImporter() *NLUDataImporter {
	return &NLUDataImporter{
		Walker:                  NewJsonWalker(),
		IntentRuleSelector:      "$.intentRules[*]",
		EntitySelector:          "$.entities[*]",
		EntityAttributeSelector: "$.entityAttributes[*]",
	}
}

// Import implements NLUImporter.
func (i *NLUDataImporter) Import(fs billy.Filesystem, dir string) ([]api.NLUIntentRule, []api.EntityData, []api.EntityAttributeData, error) {
	docs, err := readDocuments(fs, dir, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	rules, err := selectAll[api.NLUIntentRule](i.Walker, docs, i.IntentRuleSelector)
	if err != nil {
		return nil, nil, nil, err
	}
	entities, err := selectAll[api.EntityData](i.Walker, docs, i.EntitySelector)
	if err != nil {
		return nil, nil, nil, err
	}
	attrs, err := selectAll[api.EntityAttributeData](i.Walker, docs, i.EntityAttributeSelector)
	if err != nil {
		return nil, nil, nil, err
	}
	return rules, entities, attrs, nil
}

// VisualizationConfigImporter reads the VisulizationConfig_*.json files of a
// visualization directory. Each file holds a JSON array of configs.
type VisualizationConfigImporter struct {
	Walker   Walker
	Selector string
}

func NewVisualizationConfigImporter() *VisualizationConfigImporter {
	return &VisualizationConfigImporter{
		Walker:   NewJsonWalker(),
		Selector: "$[*]",
	}
}

// Import implements VisualizationImporter.
func (i *VisualizationConfigImporter) Import(fs billy.Filesystem, dir string) ([]api.VisualizationConfig, error) {
	docs, err := readDocuments(fs, dir, func(name string) bool {
		return strings.HasPrefix(name, VisualizationFilePrefix)
	})
	if err != nil {
		return nil, err
	}
	return selectAll[api.VisualizationConfig](i.Walker, docs, i.Selector)
}
