package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5/util"

	"github.com/agentic-research/kgstore/api"
	"github.com/agentic-research/kgstore/internal/accessor"
	"github.com/agentic-research/kgstore/internal/writeback"
)

// UpdateColorConfig implements accessor.DataAccessor. The existence check
// and the read-modify-write run under the datastore's in-process lock, which
// DeleteDatastore also takes, and an advisory lock on its .lock file; the
// file is replaced atomically. user is recorded in the log only.
func (a *Accessor) UpdateColorConfig(ctx context.Context, user, dsName, scenario string, colors []api.ColorConfig) error {
	const op = "UpdateColorConfig"
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := accessor.ValidateName("datastore", dsName); err != nil {
		return accessor.NewError(op, accessor.KindInvalidInput, dsName, err)
	}
	if err := accessor.ValidateName("scenario", scenario); err != nil {
		return accessor.NewError(op, accessor.KindInvalidInput, dsName, err)
	}
	if colors == nil {
		colors = []api.ColorConfig{}
	}

	unlock := a.locks.Lock(dsName)
	defer unlock()

	canonical := a.layout.Canonical(dsName)
	isDir, err := a.isDir(canonical)
	if err != nil {
		return accessor.NewError(op, accessor.KindIOFailure, dsName, err)
	}
	if !isDir {
		return accessor.NewError(op, accessor.KindNotFound, dsName, accessor.ErrDatastoreNotFound)
	}

	err = writeback.WithLock(a.fs, a.layout.Lock(dsName), func() error {
		return a.upsertScenario(op, dsName, scenario, colors)
	})
	if err != nil {
		var kerr *accessor.Error
		switch {
		case errors.As(err, &kerr):
			return err
		case errors.Is(err, writeback.ErrLockDirMissing):
			// Deleted by another process after the check above.
			return accessor.NewError(op, accessor.KindNotFound, dsName, accessor.ErrDatastoreNotFound)
		}
		return accessor.NewError(op, accessor.KindIOFailure, dsName, err)
	}

	a.log.Info("color config updated", "datastore", dsName, "scenario", scenario, "user", user, "rules", len(colors))
	return nil
}

func (a *Accessor) upsertScenario(op, dsName, scenario string, colors []api.ColorConfig) error {
	if err := a.fs.MkdirAll(a.layout.Visualization(dsName), 0o755); err != nil {
		return fmt.Errorf("create visualization dir: %w", err)
	}

	file := a.layout.VisualizationFile(dsName, scenario)
	configs, err := a.readConfigs(file)
	if err != nil {
		if errors.Is(err, accessor.ErrCorrupt) {
			a.log.Error("corrupt visualization config left untouched", "datastore", dsName, "path", file, "err", err)
			return accessor.NewError(op, accessor.KindCorrupt, dsName, err)
		}
		return err
	}

	configs = upsert(configs, api.VisualizationConfig{Scenario: scenario, LabelsOfVertexes: colors})

	data, err := json.MarshalIndent(configs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", file, err)
	}
	return writeback.WriteFile(a.fs, file, data, 0o644)
}

// readConfigs reads a styling file. A missing or blank file is an empty list.
func (a *Accessor) readConfigs(file string) ([]api.VisualizationConfig, error) {
	data, err := util.ReadFile(a.fs, file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var configs []api.VisualizationConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", accessor.ErrCorrupt, file, err)
	}
	return configs, nil
}

// upsert replaces the first config with cfg's scenario, or appends cfg.
func upsert(configs []api.VisualizationConfig, cfg api.VisualizationConfig) []api.VisualizationConfig {
	for i := range configs {
		if configs[i].Scenario == cfg.Scenario {
			configs[i] = cfg
			return configs
		}
	}
	return append(configs, cfg)
}
