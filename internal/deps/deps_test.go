package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected blank command status: %#v", results[2])
	}
}

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "align.py")
	if err := os.WriteFile(script, []byte("print('ok')\n"), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	if st := CheckFile(Requirement{Name: "Aligner script", Command: script}); !st.Available {
		t.Fatalf("expected script available, got %q", st.Detail)
	}
	if st := CheckFile(Requirement{Name: "Aligner script", Command: filepath.Join(dir, "nope.py")}); st.Available || st.Detail == "" {
		t.Fatalf("expected missing script, got %#v", st)
	}
	if st := CheckFile(Requirement{Name: "Aligner script", Command: dir}); st.Available {
		t.Fatal("expected directory to be rejected")
	}
	if st := CheckFile(Requirement{Name: "Aligner script"}); st.Available || st.Detail != "path not configured" {
		t.Fatalf("unexpected status for empty path: %#v", st)
	}
}
