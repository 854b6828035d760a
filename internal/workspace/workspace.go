package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

const (
	manifestSuffix = "_manifest.json"
	outputSuffix   = "_nfa_output"
)

// ErrLocked reports that another process holds a conflicting workspace lock.
var ErrLocked = errors.New("workspace is locked by another process")

// Workspace resolves per-run paths under a work directory.
type Workspace struct {
	dir string
}

// New returns a workspace rooted at dir.
func New(dir string) *Workspace {
	return &Workspace{dir: dir}
}

// Dir returns the workspace root.
func (w *Workspace) Dir() string {
	return w.dir
}

// ManifestPath returns the manifest location for runID.
func (w *Workspace) ManifestPath(runID string) string {
	return filepath.Join(w.dir, runID+manifestSuffix)
}

// OutputDir returns the aligner output directory for runID.
func (w *Workspace) OutputDir(runID string) string {
	return filepath.Join(w.dir, runID+outputSuffix)
}

// Ensure creates the workspace root.
func (w *Workspace) Ensure() error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create work dir %q: %w", w.dir, err)
	}
	return nil
}

// Lock guards a workspace across processes.
type Lock struct {
	fl *flock.Flock
}

// NewLock returns an unlocked handle on the lock file at path.
func NewLock(path string) *Lock {
	return &Lock{fl: flock.New(path)}
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.fl.Path()
}

// AcquireShared takes a shared lock for processes that run alignments.
func (l *Lock) AcquireShared() error {
	if err := os.MkdirAll(filepath.Dir(l.fl.Path()), 0o755); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}
	ok, err := l.fl.TryRLock()
	if err != nil {
		return fmt.Errorf("acquire shared lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	return nil
}

// AcquireExclusive takes the lock exclusively for maintenance.
func (l *Lock) AcquireExclusive() error {
	if err := os.MkdirAll(filepath.Dir(l.fl.Path()), 0o755); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}
	ok, err := l.fl.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	return nil
}

// Release drops whichever lock is held.
func (l *Lock) Release() error {
	return l.fl.Unlock()
}

// PruneResult describes a prune pass.
type PruneResult struct {
	Removed []string
	Failed  map[string]error
}

// isRunArtifact matches run manifests and output directories. It also matches
// the hidden temp file an interrupted manifest write leaves behind
// (".<run>_manifest.json.<rand>.tmp").
func isRunArtifact(name string, dir bool) bool {
	if dir {
		return strings.HasSuffix(name, outputSuffix)
	}
	if strings.HasSuffix(name, manifestSuffix) {
		return true
	}
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, ".tmp") &&
		strings.Contains(name, manifestSuffix+".")
}

// Prune removes leftover run artifacts last modified before now minus
// olderThan. Unrelated entries are left alone. The caller should hold
// the exclusive lock.
func (w *Workspace) Prune(olderThan time.Duration, now time.Time) (PruneResult, error) {
	result := PruneResult{Failed: map[string]error{}}
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return result, nil
		}
		return result, fmt.Errorf("list work dir: %w", err)
	}
	cutoff := now.Add(-olderThan)
	for _, entry := range entries {
		name := entry.Name()
		if !isRunArtifact(name, entry.IsDir()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			result.Failed[name] = err
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(w.dir, name)
		if err := os.RemoveAll(path); err != nil {
			result.Failed[name] = err
			continue
		}
		result.Removed = append(result.Removed, name)
	}
	return result, nil
}
