package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Workspace is a per-analysis scratch directory. Close removes it and
// everything in it; it is safe to call more than once.
type Workspace struct {
	dir  string
	once sync.Once
	err  error
}

// NewWorkspace creates a fresh directory under base (os.TempDir if empty).
func NewWorkspace(base string) (*Workspace, error) {
	dir, err := os.MkdirTemp(base, "accent-*")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path joins name onto the workspace directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Close deletes the workspace.
func (w *Workspace) Close() error {
	if w == nil {
		return nil
	}
	w.once.Do(func() {
		if err := os.RemoveAll(w.dir); err != nil {
			w.err = fmt.Errorf("remove workspace: %w", err)
		}
	})
	return w.err
}
