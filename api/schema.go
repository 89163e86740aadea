package api

import "encoding/json"

// Vertex is a node of a datastore's knowledge graph.
type Vertex struct {
	// ID uniquely identifies the vertex inside its datastore.
	ID   string `json:"id"`
	Name string `json:"name"`
	// Label is the category the visualization rules key on.
	Label      string     `json:"label"`
	NodeType   string     `json:"nodeType,omitempty"`
	Properties []Property `json:"properties,omitempty"`
}

// Edge is a directed relation between two vertices.
type Edge struct {
	// Label names the relation (e.g. "contains").
	Label      string     `json:"relationType"`
	SourceID   string     `json:"headVertexId"`
	TargetID   string     `json:"tailVertexId"`
	Properties []Property `json:"properties,omitempty"`
}

// Property is a single name/value attribute of a vertex or edge.
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// VisualizationConfig holds the styling rules of one scenario.
// A datastore has at most one config per scenario.
type VisualizationConfig struct {
	Scenario         string        `json:"scenario"`
	LabelsOfVertexes []ColorConfig `json:"labelsOfVertexes"`
}

// ColorConfig is a single styling rule. The storage layer never interprets
// it: attributes other than the named ones are kept in Extra and written
// back unchanged.
type ColorConfig struct {
	ItemLabel string `json:"itemLabel"`
	Color     string `json:"color"`
	Shape     string `json:"shape,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// colorConfigFields has the fields of ColorConfig without its methods.
type colorConfigFields ColorConfig

var colorConfigKeys = map[string]bool{"itemLabel": true, "color": true, "shape": true}

func (c ColorConfig) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(colorConfigFields(c))
	if err != nil || len(c.Extra) == 0 {
		return known, err
	}
	out := make(map[string]json.RawMessage, len(c.Extra)+3)
	for k, v := range c.Extra {
		if !colorConfigKeys[k] {
			out[k] = v
		}
	}
	if err := json.Unmarshal(known, &out); err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

func (c *ColorConfig) UnmarshalJSON(data []byte) error {
	var known colorConfigFields
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for k := range colorConfigKeys {
		delete(all, k)
	}
	if len(all) == 0 {
		all = nil
	}
	*c = ColorConfig(known)
	c.Extra = all
	return nil
}

// NLUIntentRule is a pattern rule that maps an utterance to an intent.
type NLUIntentRule struct {
	ID         string   `json:"id"`
	IntentName string   `json:"intentName"`
	Type       string   `json:"type"` // POSITIVE or NEGATIVE
	RuleSecs   []string `json:"ruleSecs"`
}

// EntityData is a recognizable entity value within an intent.
type EntityData struct {
	IntentName  string `json:"intentName"`
	EntityValue string `json:"entityValue"`
	EntityType  string `json:"entityType"`
	SimilarWord string `json:"similarWord,omitempty"`
}

// EntityAttributeData is an attribute attached to an entity value.
type EntityAttributeData struct {
	IntentName     string `json:"intentName"`
	EntityValue    string `json:"entityValue"`
	AttributeName  string `json:"attributeName"`
	AttributeValue string `json:"attributeValue"`
}

// DatastoreItem is the management record of a datastore as registered in a
// backend's catalogue. Only Name is required; the document store fills in
// the rest.
type DatastoreItem struct {
	Name      string `json:"name"`
	ID        string `json:"id,omitempty"`
	Owner     string `json:"owner,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}
