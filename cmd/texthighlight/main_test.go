package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type alignOutput struct {
	Status  bool    `json:"status"`
	Marks   []mark  `json:"marks"`
	Message *string `json:"message"`
	Time    float64 `json:"time"`
}

type mark struct {
	S float64 `json:"s"`
	E float64 `json:"e"`
	W string  `json:"w"`
}

func decodeAlign(t *testing.T, out string) (alignOutput, map[string]json.RawMessage) {
	t.Helper()
	var parsed alignOutput
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("decode align output %q: %v", out, err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(out), &raw); err != nil {
		t.Fatalf("decode raw output: %v", err)
	}
	return parsed, raw
}

func TestAlignSuccessEndToEnd(t *testing.T) {
	env := setupCLITestEnv(t, stubAligner)

	out, _, err := runCLI(t, []string{"align", "--text", "Hello\nworld", "--audiopath", env.audioPath}, env.configPath)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	if strings.Count(strings.TrimSpace(out), "\n") != 0 {
		t.Fatalf("expected single-line JSON, got %q", out)
	}
	parsed, raw := decodeAlign(t, out)
	if !parsed.Status {
		t.Fatalf("expected success, got %s", out)
	}
	if _, ok := raw["message"]; ok {
		t.Fatalf("successful result must not carry message: %s", out)
	}
	if len(parsed.Marks) != 2 || parsed.Marks[0].W != "Hello" || parsed.Marks[1].W != "world" {
		t.Fatalf("unexpected marks %+v", parsed.Marks)
	}
	if parsed.Marks[1].S != 0.5 || parsed.Marks[1].E != 0.9 {
		t.Fatalf("unexpected timing %+v", parsed.Marks[1])
	}
	if left := listWorkDir(t, env.workDir); len(left) != 0 {
		t.Fatalf("expected clean work dir, found %v", left)
	}

	histOut, _, err := runCLI(t, []string{"history", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var rows []struct {
		ID        string `json:"id"`
		Status    bool   `json:"status"`
		MarkCount int    `json:"mark_count"`
	}
	if err := json.Unmarshal([]byte(histOut), &rows); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(rows) != 1 || !rows[0].Status || rows[0].MarkCount != 2 {
		t.Fatalf("unexpected history %+v", rows)
	}

	showOut, _, err := runCLI(t, []string{"history", "show", rows[0].ID}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, showOut, "Run "+rows[0].ID)
	requireContains(t, showOut, env.audioPath)

	tableOut, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history table: %v", err)
	}
	requireContains(t, tableOut, rows[0].ID)
	requireContains(t, tableOut, "ok")
}

func TestAlignMissingAudioPrintsFailure(t *testing.T) {
	env := setupCLITestEnv(t, stubAligner)
	missing := filepath.Join(env.baseDir, "absent.wav")

	out, _, err := runCLI(t, []string{"align", "--text", "hi", "--audiopath", missing}, env.configPath)
	if err != nil {
		t.Fatalf("align should not fail the process: %v", err)
	}
	parsed, raw := decodeAlign(t, out)
	if parsed.Status {
		t.Fatal("expected failure status")
	}
	if _, ok := raw["marks"]; ok {
		t.Fatalf("failed result must not carry marks: %s", out)
	}
	if parsed.Message == nil || !strings.Contains(*parsed.Message, "not found") {
		t.Fatalf("expected not found message, got %s", out)
	}
	if left := listWorkDir(t, env.workDir); len(left) != 0 {
		t.Fatalf("expected no transient files, found %v", left)
	}
}

func TestAlignAlignerFailureCarriesStderr(t *testing.T) {
	env := setupCLITestEnv(t, failingAligner)

	out, _, err := runCLI(t, []string{"align", "--text", "hi", "--audiopath", env.audioPath, "--pretty"}, env.configPath)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	parsed, _ := decodeAlign(t, out)
	if parsed.Status {
		t.Fatal("expected failure")
	}
	if parsed.Message == nil || !strings.Contains(*parsed.Message, "stt model checkpoint missing") {
		t.Fatalf("expected stderr in message, got %s", out)
	}
	requireContains(t, *parsed.Message, "AlignmentEngineError")
	if left := listWorkDir(t, env.workDir); len(left) != 0 {
		t.Fatalf("expected manifest removed, found %v", left)
	}
}

func TestAlignReadsTranscriptFile(t *testing.T) {
	env := setupCLITestEnv(t, stubAligner)
	textPath := filepath.Join(env.baseDir, "transcript.txt")
	if err := os.WriteFile(textPath, []byte("Hello world"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, _, err := runCLI(t, []string{"align", "--text-file", textPath, "--audiopath", env.audioPath}, env.configPath)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	parsed, _ := decodeAlign(t, out)
	if !parsed.Status {
		t.Fatalf("expected success, got %s", out)
	}
}

func TestAlignUsageErrors(t *testing.T) {
	env := setupCLITestEnv(t, stubAligner)
	if _, _, err := runCLI(t, []string{"align", "--audiopath", env.audioPath}, env.configPath); err == nil {
		t.Fatal("expected error without transcript")
	}
	if _, _, err := runCLI(t, []string{"align", "--text", "hi"}, env.configPath); err == nil {
		t.Fatal("expected error without audio path")
	}
	if _, _, err := runCLI(t, []string{"align", "--text", "hi", "--text-file", "x", "--audiopath", env.audioPath}, env.configPath); err == nil {
		t.Fatal("expected error for mutually exclusive flags")
	}
}

func TestPruneRemovesStaleArtifacts(t *testing.T) {
	env := setupCLITestEnv(t, stubAligner)
	if err := os.MkdirAll(env.workDir, 0o755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(env.workDir, "0192_manifest.json")
	if err := os.WriteFile(stale, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"prune", "--older-than", "1h"}, env.configPath)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	requireContains(t, out, "Pruned 1 work item(s)")
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale manifest removed, stat err=%v", err)
	}
}

func TestDoctorWithStubRuntime(t *testing.T) {
	env := setupCLITestEnv(t, stubAligner)
	// Free space depends on the host, so only the dependency lines are asserted.
	out, _, _ := runCLI(t, []string{"doctor"}, env.configPath)
	requireContains(t, out, "Aligner script:")
	requireContains(t, out, "[OK] /bin/sh")
}

func TestDoctorReportsMissingScript(t *testing.T) {
	env := setupCLITestEnv(t, stubAligner)
	t.Setenv("TEXTHIGHLIGHT_ALIGN_SCRIPT", filepath.Join(env.baseDir, "missing.py"))
	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err == nil {
		t.Fatal("expected doctor to fail")
	}
	requireContains(t, out, "[ERROR]")
}

func TestConfigInitValidateShow(t *testing.T) {
	env := setupCLITestEnv(t, stubAligner)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "[aligner]")
	requireContains(t, out, "python_binary")
	requireContains(t, out, "/bin/sh")
}

func TestInvalidConfigFailsBeforeCommands(t *testing.T) {
	env := setupCLITestEnv(t, stubAligner)
	if err := os.WriteFile(env.configPath, []byte("[decoder]\nworkers = -3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runCLI(t, []string{"align", "--text", "hi", "--audiopath", env.audioPath}, env.configPath); err == nil {
		t.Fatal("expected configuration error")
	}
}
