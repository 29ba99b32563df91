package download

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"vidfetch/internal/logging"
)

// LockFileName is created inside the download directory by its owner.
const LockFileName = ".vidfetch.lock"

// ErrDirLocked reports that another process owns the download directory.
var ErrDirLocked = errors.New("download directory is in use by another vidfetch server")

// DirLock is exclusive ownership of a download directory.
type DirLock struct {
	lock *flock.Flock
	dir  string
}

// AcquireDir takes the directory lock without blocking.
func AcquireDir(dir string) (*DirLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}
	lock := flock.New(filepath.Join(dir, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDirLocked, dir)
	}
	return &DirLock{lock: lock, dir: dir}, nil
}

// Dir reports the locked directory.
func (l *DirLock) Dir() string {
	return l.dir
}

// Release drops the lock.
func (l *DirLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}

// SweepStale removes transients left behind by a previous run. Only entries
// whose name starts with a uuid are touched. It must be called while holding
// the directory lock.
func (l *DirLock) SweepStale(logger *slog.Logger) (int, error) {
	logger = logging.NewComponentLogger(logger, "download")
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return 0, fmt.Errorf("list download dir: %w", err)
	}
	removed := 0
	for _, entry := range entries {
		if !isTransientName(entry.Name()) {
			continue
		}
		path := filepath.Join(l.dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			logging.WarnWithContext(logger, "stale transient removal failed", "stale_sweep_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on the download directory"),
			)
			continue
		}
		removed++
	}
	if removed > 0 {
		logger.Info("removed stale transients", logging.Int("count", removed), logging.String("dir", l.dir))
	}
	return removed, nil
}

func isTransientName(name string) bool {
	id, _, _ := strings.Cut(name, ".")
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
