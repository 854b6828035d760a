package workspace_test

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"texthighlight/internal/workspace"
)

func TestRunPathsAreDistinctPerRun(t *testing.T) {
	ws := workspace.New("/tmp/work")
	if got := ws.ManifestPath("run-a"); got != "/tmp/work/run-a_manifest.json" {
		t.Fatalf("unexpected manifest path %q", got)
	}
	if got := ws.OutputDir("run-a"); got != "/tmp/work/run-a_nfa_output" {
		t.Fatalf("unexpected output dir %q", got)
	}
	if ws.ManifestPath("run-a") == ws.ManifestPath("run-b") {
		t.Fatal("expected distinct manifest paths")
	}
}

func TestSharedLocksCoexistButBlockExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "texthighlight.lock")
	first := workspace.NewLock(path)
	second := workspace.NewLock(path)
	maint := workspace.NewLock(path)

	if err := first.AcquireShared(); err != nil {
		t.Fatalf("first shared lock: %v", err)
	}
	if err := second.AcquireShared(); err != nil {
		t.Fatalf("second shared lock: %v", err)
	}
	if err := maint.AcquireExclusive(); !errors.Is(err, workspace.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("release first: %v", err)
	}
	if err := second.Release(); err != nil {
		t.Fatalf("release second: %v", err)
	}
	if err := maint.AcquireExclusive(); err != nil {
		t.Fatalf("exclusive lock after release: %v", err)
	}
	if err := first.AcquireShared(); !errors.Is(err, workspace.ErrLocked) {
		t.Fatalf("expected shared lock to be refused, got %v", err)
	}
	_ = maint.Release()
}

func TestPruneRemovesOnlyStaleRunArtifacts(t *testing.T) {
	dir := t.TempDir()
	ws := workspace.New(dir)
	now := time.Now()
	old := now.Add(-3 * time.Hour)

	mustWrite := func(name string, mtime time.Time) {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatalf("chtimes %s: %v", name, err)
		}
	}
	mustDir := func(name string, mtime time.Time) {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Join(path, "ctm", "words"), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", name, err)
		}
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatalf("chtimes %s: %v", name, err)
		}
	}

	mustWrite("old_manifest.json", old)
	mustDir("old_nfa_output", old)
	mustWrite("fresh_manifest.json", now)
	mustDir("fresh_nfa_output", now)
	mustWrite("notes.txt", old)
	mustWrite(".old_manifest.json.123456.tmp", old)
	mustWrite(".fresh_manifest.json.654321.tmp", now)
	mustWrite(".cache.tmp", old)

	result, err := ws.Prune(time.Hour, now)
	if err != nil {
		t.Fatalf("Prune returned error: %v", err)
	}
	slices.Sort(result.Removed)
	if !slices.Equal(result.Removed, []string{".old_manifest.json.123456.tmp", "old_manifest.json", "old_nfa_output"}) {
		t.Fatalf("unexpected removals: %v", result.Removed)
	}
	for _, keep := range []string{"fresh_manifest.json", "fresh_nfa_output", "notes.txt", ".fresh_manifest.json.654321.tmp", ".cache.tmp"} {
		if _, err := os.Stat(filepath.Join(dir, keep)); err != nil {
			t.Fatalf("expected %s to remain: %v", keep, err)
		}
	}
}

func TestPruneMissingDirIsNoop(t *testing.T) {
	ws := workspace.New(filepath.Join(t.TempDir(), "absent"))
	result, err := ws.Prune(time.Minute, time.Now())
	if err != nil {
		t.Fatalf("Prune returned error: %v", err)
	}
	if len(result.Removed) != 0 {
		t.Fatalf("expected no removals, got %v", result.Removed)
	}
}
