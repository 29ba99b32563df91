package download

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Transient is a per-request download that lives only until the response has
// been written. Callers must defer Release.
type Transient struct {
	// Path is the absolute location of the finished file.
	Path string
	// Name is the file's base name, used for Content-Disposition.
	Name string

	id   string
	dir  string
	once sync.Once
	err  error
}

func newTransient(dir, ext string) *Transient {
	id := uuid.NewString()
	name := id + "." + ext
	return &Transient{
		Path: filepath.Join(dir, name),
		Name: name,
		id:   id,
		dir:  dir,
	}
}

// Release removes the file and any extractor sidecars sharing its id (part
// files, per-stream fragments). It is safe to call more than once.
func (t *Transient) Release() error {
	if t == nil {
		return nil
	}
	t.once.Do(func() {
		t.err = removeWithPrefix(t.dir, t.id)
	})
	return t.err
}

func removeWithPrefix(dir, prefix string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("list download dir: %w", err)
	}
	var firstErr error
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("remove %s: %w", entry.Name(), err)
		}
	}
	return firstErr
}
