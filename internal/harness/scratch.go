package harness

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Scratch creates per-case working directories under the scratch root.
//
// Directories are left behind after the run so a failed case can be
// inspected; the next run with the same name resets them. Names must be
// unique per case within a run. Nothing serializes access, so two
// concurrent cases sharing a name is undefined behavior.
type Scratch struct {
	root string
}

// NewScratch creates a Scratch rooted at cfg.ScratchRoot.
func NewScratch(cfg Config) *Scratch {
	return &Scratch{root: cfg.ScratchRoot}
}

// Fresh returns root/name as an empty directory, creating parents as
// needed. An existing directory at that path is removed with all its
// contents first; an existing non-directory is a configuration error
// rather than something to silently delete. Calling twice with the same
// name yields a reset, not accumulation.
func (s *Scratch) Fresh(name string) (string, error) {
	dir := filepath.Join(s.root, name)

	info, err := os.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return "", &ConfigError{Op: "scratch", Path: dir, Msg: "expected a directory, found a file"}
		}
		if err := os.RemoveAll(dir); err != nil {
			return "", fmt.Errorf("failed to reset scratch directory: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// nothing to reset
	default:
		return "", fmt.Errorf("failed to stat scratch directory: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return dir, nil
}

// FreshUnique is Fresh with a generated name: prefix plus a UUIDv7, so
// repeated calls never collide and sort by creation time. For callers
// that do not need a stable per-case name.
func (s *Scratch) FreshUnique(prefix string) (string, error) {
	return s.Fresh(prefix + "-" + uuid.Must(uuid.NewV7()).String())
}
