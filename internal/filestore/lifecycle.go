package filestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/util"

	"github.com/agentic-research/kgstore/internal/accessor"
)

// ListDatastores implements accessor.DataAccessor. A missing root lists as
// empty.
func (a *Accessor) ListDatastores(ctx context.Context) ([]string, error) {
	const op = "ListDatastores"
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	infos, err := a.fs.ReadDir(".")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, accessor.NewError(op, accessor.KindIOFailure, "", err)
	}

	names := []string{}
	for _, info := range infos {
		if !info.IsDir() {
			continue
		}
		name := info.Name()
		if a.opts.ListMode == ListCanonical {
			if strings.HasPrefix(name, ".") {
				continue
			}
			owner, err := a.isOwnerDir(name)
			if err != nil {
				return nil, accessor.NewError(op, accessor.KindIOFailure, name, err)
			}
			if owner {
				continue
			}
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// AddDatastore implements accessor.DataAccessor. It creates the canonical
// directory, then the owner mirror and marker. When the mirror cannot be
// created the canonical directory is removed again.
func (a *Accessor) AddDatastore(ctx context.Context, user, name string) error {
	const op = "AddDatastore"
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.validateUserAndName(op, user, name); err != nil {
		return err
	}
	if user == name {
		return accessor.NewError(op, accessor.KindInvalidInput, name,
			fmt.Errorf("%w: owner and datastore share the name %q", accessor.ErrInvalidName, name))
	}

	unlock := a.locks.Lock(name)
	defer unlock()

	canonical := a.layout.Canonical(name)
	exists, err := a.exists(canonical)
	if err != nil {
		return accessor.NewError(op, accessor.KindIOFailure, name, err)
	}
	if exists {
		owner, err := a.isOwnerDir(canonical)
		if err != nil {
			return accessor.NewError(op, accessor.KindIOFailure, name, err)
		}
		if owner {
			return accessor.NewError(op, accessor.KindInvalidInput, name,
				fmt.Errorf("%w: %q is an owner directory", accessor.ErrInvalidName, name))
		}
		return accessor.NewError(op, accessor.KindAlreadyExists, name, accessor.ErrDatastoreExists)
	}
	if err := a.checkOwnerDir(op, user, name); err != nil {
		return err
	}

	if err := a.fs.MkdirAll(canonical, 0o755); err != nil {
		return accessor.NewError(op, accessor.KindIOFailure, name, fmt.Errorf("create %s: %w", canonical, err))
	}

	if err := a.createMirror(user, name); err != nil {
		if rbErr := util.RemoveAll(a.fs, canonical); rbErr != nil {
			a.log.Error("rollback of datastore failed", "datastore", name, "user", user, "err", rbErr)
			return accessor.NewError(op, accessor.KindPartialFailure, name, errors.Join(err, fmt.Errorf("rollback: %w", rbErr)))
		}
		return accessor.NewError(op, accessor.KindIOFailure, name, err)
	}

	a.log.Info("datastore created", "datastore", name, "user", user)
	return nil
}

// checkOwnerDir refuses a user whose directory exists without the owner
// marker: such a directory is a datastore, or something kgstore did not
// create, and must not be turned into an owner directory.
func (a *Accessor) checkOwnerDir(op, user, name string) error {
	exists, err := a.exists(user)
	if err != nil {
		return accessor.NewError(op, accessor.KindIOFailure, name, err)
	}
	if !exists {
		return nil
	}
	owner, err := a.isOwnerDir(user)
	if err != nil {
		return accessor.NewError(op, accessor.KindIOFailure, name, err)
	}
	if !owner {
		return accessor.NewError(op, accessor.KindInvalidInput, name,
			fmt.Errorf("%w: user %q collides with an existing directory", accessor.ErrInvalidName, user))
	}
	return nil
}

func (a *Accessor) createMirror(user, name string) error {
	mirror := a.layout.Mirror(user, name)
	if err := a.fs.MkdirAll(mirror, 0o755); err != nil {
		return fmt.Errorf("create mirror %s: %w", mirror, err)
	}
	marker := a.layout.Owner(user)
	exists, err := a.exists(marker)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := util.WriteFile(a.fs, marker, nil, 0o644); err != nil {
		_ = a.fs.Remove(mirror) // best-effort cleanup
		return fmt.Errorf("write owner marker %s: %w", marker, err)
	}
	return nil
}

// DeleteDatastore implements accessor.DataAccessor. Both the canonical
// directory and the caller's mirror must exist. The mirror is kept unless
// Options.PruneMirror is set.
func (a *Accessor) DeleteDatastore(ctx context.Context, user, name string) error {
	const op = "DeleteDatastore"
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.validateUserAndName(op, user, name); err != nil {
		return err
	}

	unlock := a.locks.Lock(name)
	defer unlock()

	canonical := a.layout.Canonical(name)
	isDir, err := a.isDir(canonical)
	if err != nil {
		return accessor.NewError(op, accessor.KindIOFailure, name, err)
	}
	if isDir {
		if owner, err := a.isOwnerDir(canonical); err != nil {
			return accessor.NewError(op, accessor.KindIOFailure, name, err)
		} else if owner {
			isDir = false
		}
	}
	if !isDir {
		return accessor.NewError(op, accessor.KindNotFound, name, accessor.ErrDatastoreNotFound)
	}

	mirror := a.layout.Mirror(user, name)
	owned, err := a.isDir(mirror)
	if err != nil {
		return accessor.NewError(op, accessor.KindIOFailure, name, err)
	}
	if !owned {
		return accessor.NewError(op, accessor.KindNotFound, name, fmt.Errorf("%w: %s", accessor.ErrNotOwner, user))
	}

	if err := util.RemoveAll(a.fs, canonical); err != nil {
		a.log.Error("datastore partially deleted", "datastore", name, "user", user, "err", err)
		return accessor.NewError(op, accessor.KindPartialFailure, name, err)
	}

	if a.opts.PruneMirror {
		if err := util.RemoveAll(a.fs, mirror); err != nil {
			a.log.Error("mirror not removed", "datastore", name, "user", user, "err", err)
			return accessor.NewError(op, accessor.KindPartialFailure, name, fmt.Errorf("remove mirror: %w", err))
		}
	}

	a.log.Info("datastore deleted", "datastore", name, "user", user, "prune_mirror", a.opts.PruneMirror)
	return nil
}

func (a *Accessor) validateUserAndName(op, user, name string) error {
	if err := accessor.ValidateName("datastore", name); err != nil {
		return accessor.NewError(op, accessor.KindInvalidInput, name, err)
	}
	if err := accessor.ValidateName("user", user); err != nil {
		return accessor.NewError(op, accessor.KindInvalidInput, name, err)
	}
	return nil
}
