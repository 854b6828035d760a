package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"texthighlight/internal/testsupport"
)

// stubAligner writes a word CTM file to the output_dir override it receives.
const stubAligner = `#!/bin/sh
for arg in "$@"; do
  case "$arg" in
    output_dir=*)
      out="${arg#output_dir=}"
      out="${out#\"}"
      out="${out%\"}"
      ;;
  esac
done
mkdir -p "$out/ctm/words"
printf 'clip 1 0.00 0.08 <b>\nclip 1 0.08 0.32 \342\226\201Hello\nclip 1 0.50 0.40 \342\226\201world\n' > "$out/ctm/words/clip.ctm"
`

const failingAligner = `#!/bin/sh
echo "loading model"
echo "OSError: stt model checkpoint missing" >&2
exit 2
`

type cliTestEnv struct {
	baseDir    string
	workDir    string
	configPath string
	audioPath  string
}

func setupCLITestEnv(t *testing.T, script string) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithAlignerScript(script))
	base := testsupport.BaseDir(cfg)
	home := filepath.Join(base, "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)
	for _, key := range []string{"TEXTHIGHLIGHT_ALIGN_SCRIPT", "TEXTHIGHLIGHT_PYTHON", "TEXTHIGHLIGHT_WORK_DIR", "TEXTHIGHLIGHT_S3_BUCKET"} {
		t.Setenv(key, "")
	}

	env := &cliTestEnv{
		baseDir:    base,
		workDir:    cfg.Paths.WorkDir,
		configPath: testsupport.WriteConfig(t, cfg),
		audioPath:  filepath.Join(base, "clip.wav"),
	}
	testsupport.WriteFile(t, env.audioPath, 4096)
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func listWorkDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("read work dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
