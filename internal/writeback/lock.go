package writeback

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
)

// ErrLockDirMissing is returned by WithLock when the directory that should
// hold the lock file does not exist.
var ErrLockDirMissing = errors.New("lock directory does not exist")

// WithLock runs fn while holding an exclusive advisory lock on lockPath.
// The lock file is created when missing, but only inside an existing
// directory: a directory removed concurrently is never brought back. On osfs
// this is flock(2), which linearizes processes sharing a root; memfs locks
// are no-ops.
func WithLock(fs billy.Filesystem, lockPath string, fn func() error) error {
	f, err := openLock(fs, lockPath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", lockPath, err)
	}
	defer func() { _ = f.Unlock() }()

	return fn()
}

func openLock(fs billy.Filesystem, lockPath string) (billy.File, error) {
	f, err := fs.OpenFile(lockPath, os.O_RDWR, 0)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("open lock %s: %w", lockPath, err)
	}

	dir := filepath.Dir(lockPath)
	info, err := fs.Stat(dir)
	if errors.Is(err, os.ErrNotExist) || (err == nil && !info.IsDir()) {
		return nil, fmt.Errorf("%w: %s", ErrLockDirMissing, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}

	f, err = fs.OpenFile(lockPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock %s: %w", lockPath, err)
	}
	return f, nil
}
