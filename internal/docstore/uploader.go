package docstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-git/go-billy/v5"

	"github.com/agentic-research/kgstore/api"
	"github.com/agentic-research/kgstore/internal/accessor"
	"github.com/agentic-research/kgstore/internal/filestore"
	"github.com/agentic-research/kgstore/internal/ingest"
)

// Uploader copies a datastore directory (KG, NLU and Visulization
// subdirectories) into a Store. Collections present in the store are
// replaced, so uploading the same tree twice is idempotent.
type Uploader struct {
	Store         *Store
	KG            ingest.KGImporter
	NLU           ingest.NLUImporter
	Visualization ingest.VisualizationImporter
	Logger        *slog.Logger
}

// UploadResult counts what an upload wrote.
type UploadResult struct {
	Datastore            api.DatastoreItem `json:"datastore"`
	Vertices             int               `json:"vertices"`
	Edges                int               `json:"edges"`
	IntentRules          int               `json:"intentRules"`
	Entities             int               `json:"entities"`
	EntityAttributes     int               `json:"entityAttributes"`
	VisualizationConfigs int               `json:"visualizationConfigs"`
}

func NewUploader(store *Store, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{
		Store:         store,
		KG:            ingest.NewKGDataImporter(),
		NLU:           ingest.NewNLUDataImporter(),
		Visualization: ingest.NewVisualizationConfigImporter(),
		Logger:        logger.With("component", "uploader"),
	}
}

// Upload imports the tree at dir of fs as datastore name, registering it for
// owner first. All three domains are parsed before anything is written, and
// the write is one transaction: a failed upload leaves the store unchanged.
func (u *Uploader) Upload(ctx context.Context, fs billy.Filesystem, dir, name, owner string) (UploadResult, error) {
	var res UploadResult

	vertices, edges, err := u.KG.Import(fs, fs.Join(dir, filestore.GraphDir))
	if err != nil {
		return res, fmt.Errorf("import KG: %w", err)
	}
	rules, entities, attrs, err := u.NLU.Import(fs, fs.Join(dir, filestore.NLUDir))
	if err != nil {
		return res, fmt.Errorf("import NLU: %w", err)
	}
	configs, err := u.Visualization.Import(fs, fs.Join(dir, filestore.VisualizationDir))
	if err != nil {
		return res, fmt.Errorf("import visualization: %w", err)
	}

	ds := accessor.Dataset{
		Graph:         accessor.Graph{Found: true, Vertices: vertices, Edges: edges},
		NLU:           accessor.NLU{Found: true, IntentRules: rules, Entities: entities, EntityAttributes: attrs},
		Visualization: accessor.Visualization{Found: true, Configs: configs},
	}
	item, err := u.Store.Import(ctx, owner, name, ds)
	if err != nil {
		return res, err
	}

	res = UploadResult{
		Datastore:            item,
		Vertices:             len(vertices),
		Edges:                len(edges),
		IntentRules:          len(rules),
		Entities:             len(entities),
		EntityAttributes:     len(attrs),
		VisualizationConfigs: len(configs),
	}
	u.Logger.Info("datastore uploaded", "datastore", name,
		"vertices", res.Vertices, "edges", res.Edges,
		"intent_rules", res.IntentRules, "entities", res.Entities, "entity_attributes", res.EntityAttributes,
		"configs", res.VisualizationConfigs)
	return res, nil
}
