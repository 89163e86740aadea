package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/agentic-research/kgstore/api"
	"github.com/agentic-research/kgstore/internal/accessor"
)

// Import registers name for owner and replaces every collection with the
// contents of ds in a single transaction: either the whole datastore is
// written or nothing changes.
func (s *Store) Import(ctx context.Context, owner, name string, ds accessor.Dataset) (api.DatastoreItem, error) {
	const op = "Import"
	if err := validateUserAndName(op, owner, name); err != nil {
		return api.DatastoreItem{}, err
	}

	unlock := s.locks.Lock(name)
	defer unlock()

	var item api.DatastoreItem
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if item, err = register(ctx, tx, op, owner, name); err != nil {
			return err
		}
		if err := replaceGraph(ctx, tx, name, ds.Graph.Vertices, ds.Graph.Edges); err != nil {
			return err
		}
		if err := replaceNLU(ctx, tx, name, ds.NLU.IntentRules, ds.NLU.Entities, ds.NLU.EntityAttributes); err != nil {
			return err
		}
		return replaceConfigs(ctx, tx, name, ds.Visualization.Configs)
	})
	if err != nil {
		return api.DatastoreItem{}, asAccessorError(op, name, err)
	}
	return item, nil
}

func register(ctx context.Context, tx *sql.Tx, op, owner, name string) (api.DatastoreItem, error) {
	existing, exists, err := lookup(ctx, tx, name)
	if err != nil {
		return api.DatastoreItem{}, err
	}
	if exists {
		if existing.Owner != owner {
			return api.DatastoreItem{}, accessor.NewError(op, accessor.KindNotFound, name, fmt.Errorf("%w: %s", accessor.ErrNotOwner, owner))
		}
		return existing, nil
	}
	return insertDatastore(ctx, tx, owner, name)
}

func replaceGraph(ctx context.Context, tx *sql.Tx, name string, vertices []api.Vertex, edges []api.Edge) error {
	if err := replaceCollection(ctx, tx, name, CollVertexes, vertices); err != nil {
		return err
	}
	return replaceCollection(ctx, tx, name, CollEdges, edges)
}

func replaceNLU(ctx context.Context, tx *sql.Tx, name string, rules []api.NLUIntentRule, entities []api.EntityData, attrs []api.EntityAttributeData) error {
	if err := replaceCollection(ctx, tx, name, CollIntentRules, rules); err != nil {
		return err
	}
	if err := replaceCollection(ctx, tx, name, CollEntities, entities); err != nil {
		return err
	}
	return replaceCollection(ctx, tx, name, CollEntityAttributes, attrs)
}

func replaceConfigs(ctx context.Context, tx *sql.Tx, name string, configs []api.VisualizationConfig) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM visualization_configs WHERE datastore = ?`, name); err != nil {
		return fmt.Errorf("clear configs: %w", err)
	}
	for _, cfg := range configs {
		if err := upsertConfig(ctx, tx, name, cfg); err != nil {
			return err
		}
	}
	return nil
}

func replaceCollection[T any](ctx context.Context, tx *sql.Tx, ds, coll string, recs []T) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM documents WHERE datastore = ? AND collection = ?`, ds, coll); err != nil {
		return fmt.Errorf("clear %s: %w", coll, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (datastore, collection, seq, body) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare %s: %w", coll, err)
	}
	defer func() { _ = stmt.Close() }()

	for i, rec := range recs {
		body, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode %s[%d]: %w", coll, i, err)
		}
		if _, err := stmt.ExecContext(ctx, ds, coll, i, string(body)); err != nil {
			return fmt.Errorf("insert %s[%d]: %w", coll, i, err)
		}
	}
	return nil
}
