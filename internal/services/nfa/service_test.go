package nfa

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"texthighlight/internal/services"
)

func TestBuildArgsFixedProfile(t *testing.T) {
	svc := NewService(Config{ScriptPath: "/opt/NeMo/tools/nemo_forced_aligner/align.py"}, nil)
	args := svc.buildArgs("/work/01J_manifest.json", "/work/01J_nfa_output")

	want := []string{
		"/opt/NeMo/tools/nemo_forced_aligner/align.py",
		`pretrained_name="stt_en_fastconformer_hybrid_large_pc"`,
		`manifest_filepath="/work/01J_manifest.json"`,
		`output_dir="/work/01J_nfa_output"`,
		`additional_segment_grouping_separator="|"`,
		`ass_file_config.vertical_alignment="bottom"`,
		"ass_file_config.text_already_spoken_rgb=[66,245,212]",
		"ass_file_config.text_being_spoken_rgb=[242,222,44]",
		"ass_file_config.text_not_yet_spoken_rgb=[223,242,239]",
	}
	if len(args) != len(want) {
		t.Fatalf("arg count mismatch: got %d want %d (%v)", len(args), len(want), args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("arg %d: got %q want %q", i, args[i], want[i])
		}
	}
}

func TestHydraStringEscapesQuotes(t *testing.T) {
	if got := hydraString(`/tmp/a "b"/c`); got != `"/tmp/a \"b\"/c"` {
		t.Fatalf("unexpected quoting: %s", got)
	}
}

func TestNewServiceDefaults(t *testing.T) {
	svc := NewService(Config{}, nil)
	if svc.cfg.PythonBinary != DefaultPythonBinary {
		t.Fatalf("python default: %q", svc.cfg.PythonBinary)
	}
	if svc.cfg.ScriptPath != DefaultScriptPath {
		t.Fatalf("script default: %q", svc.cfg.ScriptPath)
	}
	if svc.Model() != DefaultPretrainedName {
		t.Fatalf("model default: %q", svc.Model())
	}
}

func TestAlignUsesRunnerAndCreatesOutputDir(t *testing.T) {
	dir := t.TempDir()
	outputDir := filepath.Join(dir, "out")
	svc := NewService(Config{PythonBinary: "py", ScriptPath: "align.py"}, nil)

	var gotName string
	var gotArgs []string
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	})

	if err := svc.Align(context.Background(), filepath.Join(dir, "m.json"), outputDir); err != nil {
		t.Fatalf("Align: %v", err)
	}
	if gotName != "py" {
		t.Fatalf("expected python binary, got %q", gotName)
	}
	if len(gotArgs) == 0 || gotArgs[0] != "align.py" {
		t.Fatalf("expected script as first arg, got %v", gotArgs)
	}
	if info, err := os.Stat(outputDir); err != nil || !info.IsDir() {
		t.Fatalf("expected output dir to be created: %v", err)
	}
}

func TestAlignFailureIsEngineError(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(Config{}, nil)
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return errors.New("exit status 1: RuntimeError: CUDA out of memory")
	})

	err := svc.Align(context.Background(), filepath.Join(dir, "m.json"), filepath.Join(dir, "out"))
	if !errors.Is(err, services.ErrAlignmentEngine) {
		t.Fatalf("expected alignment engine error, got %v", err)
	}
	if !strings.Contains(err.Error(), "CUDA out of memory") {
		t.Fatalf("expected diagnostic text in %q", err.Error())
	}
}

func TestAlignRunsOnce(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(Config{}, nil)
	calls := 0
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		calls++
		return errors.New("exit status 2")
	})
	_ = svc.Align(context.Background(), filepath.Join(dir, "m.json"), filepath.Join(dir, "out"))
	if calls != 1 {
		t.Fatalf("expected exactly one invocation, got %d", calls)
	}
}

func TestAlignTimeout(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(Config{Timeout: 20 * time.Millisecond}, nil)
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		<-ctx.Done()
		return ctx.Err()
	})

	err := svc.Align(context.Background(), filepath.Join(dir, "m.json"), filepath.Join(dir, "out"))
	if !errors.Is(err, services.ErrAlignmentEngine) {
		t.Fatalf("expected alignment engine error, got %v", err)
	}
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", err)
	}
}

func TestAlignValidatesInputs(t *testing.T) {
	svc := NewService(Config{}, nil)
	if err := svc.Align(context.Background(), "", "/tmp/out"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for manifest, got %v", err)
	}
	if err := svc.Align(context.Background(), "/tmp/m.json", " "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for output dir, got %v", err)
	}
}

func TestAlignCapturesStderrFromProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a POSIX shell")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "align.sh")
	body := "#!/bin/sh\necho 'progress on stdout'\necho 'hydra: model download failed' >&2\nexit 3\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	svc := NewService(Config{PythonBinary: "/bin/sh", ScriptPath: script}, nil)
	err := svc.Align(context.Background(), filepath.Join(dir, "m.json"), filepath.Join(dir, "out"))
	if !errors.Is(err, services.ErrAlignmentEngine) {
		t.Fatalf("expected alignment engine error, got %v", err)
	}
	if !strings.Contains(err.Error(), "hydra: model download failed") {
		t.Fatalf("expected stderr in error, got %q", err.Error())
	}
	if strings.Contains(err.Error(), "progress on stdout") {
		t.Fatalf("stdout should not be reported when stderr is present: %q", err.Error())
	}
}

func TestAlignSucceedsWithProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a POSIX shell")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "align.sh")
	body := `#!/bin/sh
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
echo "speech 1 0.00 0.40 ▁hello" > "$out/ctm/words/speech.ctm"
`
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	outputDir := filepath.Join(dir, "run out")
	svc := NewService(Config{PythonBinary: "/bin/sh", ScriptPath: script}, nil)
	if err := svc.Align(context.Background(), filepath.Join(dir, "m.json"), outputDir); err != nil {
		t.Fatalf("Align: %v", err)
	}
	if _, err := os.Stat(filepath.Join(WordsDirFor(outputDir), "speech.ctm")); err != nil {
		t.Fatalf("expected stub to write CTM output: %v", err)
	}
}
