package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agentic-research/kgstore/api"
	"github.com/agentic-research/kgstore/internal/accessor"
)

// ListDatastores implements accessor.DataAccessor.
func (s *Store) ListDatastores(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM datastores ORDER BY name`)
	if err != nil {
		return nil, accessor.NewError("ListDatastores", accessor.KindIOFailure, "", err)
	}
	defer func() { _ = rows.Close() }()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, accessor.NewError("ListDatastores", accessor.KindIOFailure, "", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, accessor.NewError("ListDatastores", accessor.KindIOFailure, "", err)
	}
	return names, nil
}

// AddDatastore implements accessor.DataAccessor. The catalogue row carries
// the owner, so no mirror record is needed.
func (s *Store) AddDatastore(ctx context.Context, user, name string) error {
	const op = "AddDatastore"
	if err := validateUserAndName(op, user, name); err != nil {
		return err
	}

	unlock := s.locks.Lock(name)
	defer unlock()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, exists, err := lookup(ctx, tx, name)
		if err != nil {
			return accessor.NewError(op, accessor.KindIOFailure, name, err)
		}
		if exists {
			return accessor.NewError(op, accessor.KindAlreadyExists, name, accessor.ErrDatastoreExists)
		}
		if _, err := insertDatastore(ctx, tx, user, name); err != nil {
			return accessor.NewError(op, accessor.KindIOFailure, name, err)
		}
		return nil
	})
	if err != nil {
		return asAccessorError(op, name, err)
	}
	s.log.Info("datastore created", "datastore", name, "user", user)
	return nil
}

// DeleteDatastore implements accessor.DataAccessor. The catalogue row and
// every document of the datastore go in one transaction.
func (s *Store) DeleteDatastore(ctx context.Context, user, name string) error {
	const op = "DeleteDatastore"
	if err := validateUserAndName(op, user, name); err != nil {
		return err
	}

	unlock := s.locks.Lock(name)
	defer unlock()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		item, exists, err := lookup(ctx, tx, name)
		if err != nil {
			return accessor.NewError(op, accessor.KindIOFailure, name, err)
		}
		if !exists {
			return accessor.NewError(op, accessor.KindNotFound, name, accessor.ErrDatastoreNotFound)
		}
		if item.Owner != user {
			return accessor.NewError(op, accessor.KindNotFound, name, fmt.Errorf("%w: %s", accessor.ErrNotOwner, user))
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM datastores WHERE name = ?`, name); err != nil {
			return accessor.NewError(op, accessor.KindIOFailure, name, err)
		}
		return nil
	})
	if err != nil {
		return asAccessorError(op, name, err)
	}
	s.log.Info("datastore deleted", "datastore", name, "user", user)
	return nil
}

// UpdateColorConfig implements accessor.DataAccessor. user is recorded in
// the log only.
func (s *Store) UpdateColorConfig(ctx context.Context, user, dsName, scenario string, colors []api.ColorConfig) error {
	const op = "UpdateColorConfig"
	if err := accessor.ValidateName("datastore", dsName); err != nil {
		return accessor.NewError(op, accessor.KindInvalidInput, dsName, err)
	}
	if err := accessor.ValidateName("scenario", scenario); err != nil {
		return accessor.NewError(op, accessor.KindInvalidInput, dsName, err)
	}
	if colors == nil {
		colors = []api.ColorConfig{}
	}

	unlock := s.locks.Lock(dsName)
	defer unlock()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, exists, err := lookup(ctx, tx, dsName)
		if err != nil {
			return accessor.NewError(op, accessor.KindIOFailure, dsName, err)
		}
		if !exists {
			return accessor.NewError(op, accessor.KindNotFound, dsName, accessor.ErrDatastoreNotFound)
		}
		return upsertConfig(ctx, tx, dsName, api.VisualizationConfig{Scenario: scenario, LabelsOfVertexes: colors})
	})
	if err != nil {
		return asAccessorError(op, dsName, err)
	}
	s.log.Info("color config updated", "datastore", dsName, "scenario", scenario, "user", user, "rules", len(colors))
	return nil
}

func insertDatastore(ctx context.Context, tx *sql.Tx, owner, name string) (api.DatastoreItem, error) {
	item := api.DatastoreItem{
		ID:        uuid.NewString(),
		Name:      name,
		Owner:     owner,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO datastores (id, name, owner, created_at) VALUES (?, ?, ?, ?)`,
		item.ID, item.Name, item.Owner, item.CreatedAt)
	if err != nil {
		return api.DatastoreItem{}, fmt.Errorf("insert datastore %s: %w", name, err)
	}
	return item, nil
}

// upsertConfig replaces the scenario's row in place, keeping its position.
func upsertConfig(ctx context.Context, tx *sql.Tx, ds string, cfg api.VisualizationConfig) error {
	body, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config %s: %w", cfg.Scenario, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO visualization_configs (datastore, scenario, body) VALUES (?, ?, ?)
		ON CONFLICT (datastore, scenario) DO UPDATE SET body = excluded.body`,
		ds, cfg.Scenario, string(body))
	if err != nil {
		return fmt.Errorf("upsert config %s: %w", cfg.Scenario, err)
	}
	return nil
}

// withTx runs fn in a transaction, committing when fn returns nil.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// asAccessorError passes *accessor.Error and context errors through and
// wraps anything else as an I/O failure.
func asAccessorError(op, name string, err error) error {
	if accessor.KindOf(err) != "" || ctxErr(err) {
		return err
	}
	return accessor.NewError(op, accessor.KindIOFailure, name, err)
}

func ctxErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func validateUserAndName(op, user, name string) error {
	if err := accessor.ValidateName("datastore", name); err != nil {
		return accessor.NewError(op, accessor.KindInvalidInput, name, err)
	}
	if err := accessor.ValidateName("user", user); err != nil {
		return accessor.NewError(op, accessor.KindInvalidInput, name, err)
	}
	return nil
}
