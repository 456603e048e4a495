package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Workspace is a temporary directory owned by one ingest invocation.
type Workspace struct {
	Dir string

	once sync.Once
	err  error
}

// NewWorkspace creates a fresh directory under base (os.TempDir when empty).
func NewWorkspace(base string) (*Workspace, error) {
	dir, err := os.MkdirTemp(base, "xlsxflow-*")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{Dir: dir}, nil
}

// Path joins elem onto the workspace directory.
func (w *Workspace) Path(elem ...string) string {
	return filepath.Join(append([]string{w.Dir}, elem...)...)
}

// Stage copies r into the workspace under a sanitized form of name and
// returns the file path.
func (w *Workspace) Stage(name string, r io.Reader) (string, error) {
	clean := unsafeName.ReplaceAllString(filepath.Base(name), "_")
	if clean == "" || clean == "." || clean == ".." {
		clean = "input"
	}
	p := w.Path(clean)
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", err
	}
	return p, f.Close()
}

// Close removes the workspace and everything in it. Later calls return the
// result of the first one.
func (w *Workspace) Close() error {
	w.once.Do(func() {
		w.err = os.RemoveAll(w.Dir)
	})
	return w.err
}
