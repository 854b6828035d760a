package nfa

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"texthighlight/internal/logging"
	"texthighlight/internal/services"
)

// maxDiagnosticBytes caps how much stderr is carried in an error message. NeMo
// tracebacks put the useful part at the end, so the tail is kept.
const maxDiagnosticBytes = 16 * 1024

// CommandRunner executes name with args and returns an error carrying the
// captured diagnostic output when the process fails.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Service provides forced alignment through the NeMo aligner script.
type Service struct {
	cfg           Config
	logger        *slog.Logger
	commandRunner CommandRunner
}

// NewService creates an aligner service with the given configuration.
func NewService(cfg Config, logger *slog.Logger) *Service {
	if strings.TrimSpace(cfg.PythonBinary) == "" {
		cfg.PythonBinary = DefaultPythonBinary
	}
	if strings.TrimSpace(cfg.ScriptPath) == "" {
		cfg.ScriptPath = DefaultScriptPath
	}
	if strings.TrimSpace(cfg.PretrainedName) == "" {
		cfg.PretrainedName = DefaultPretrainedName
	}
	return &Service{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "aligner"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner CommandRunner) {
	s.commandRunner = runner
}

// Model returns the configured pretrained model name for logging.
func (s *Service) Model() string {
	return s.cfg.PretrainedName
}

// WordsDirFor returns the directory where the aligner writes word-level CTM files
// for the given output directory.
func WordsDirFor(outputDir string) string {
	return filepath.Join(outputDir, CTMDir, WordsDir)
}

// Align runs the aligner against manifestPath and blocks until it exits. A
// non-zero exit, a failure to start, or a timeout is reported as
// services.ErrAlignmentEngine. The aligner is never retried.
func (s *Service) Align(ctx context.Context, manifestPath, outputDir string) error {
	if strings.TrimSpace(manifestPath) == "" {
		return services.Wrap(services.ErrValidation, "invoke_aligner", "align", "manifest path required", nil)
	}
	if strings.TrimSpace(outputDir) == "" {
		return services.Wrap(services.ErrValidation, "invoke_aligner", "align", "output directory required", nil)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return services.Wrap(services.ErrIO, "invoke_aligner", "ensure output dir", outputDir, err)
	}

	runCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	args := s.buildArgs(manifestPath, outputDir)
	logging.WithContext(ctx, s.logger).Debug("invoking forced aligner",
		logging.String("python", s.cfg.PythonBinary),
		logging.String("script", s.cfg.ScriptPath),
		logging.String("model", s.cfg.PretrainedName),
		logging.String("manifest", manifestPath),
		logging.String("output_dir", outputDir),
	)

	started := time.Now()
	err := s.run(runCtx, s.cfg.PythonBinary, args...)
	if err == nil {
		logging.WithContext(ctx, s.logger).Info("forced aligner finished",
			logging.Duration("duration", time.Since(started)),
		)
		return nil
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		msg := fmt.Sprintf("aligner exceeded timeout of %s", s.cfg.Timeout)
		return services.Wrap(services.ErrAlignmentEngine, "invoke_aligner", "align", msg, fmt.Errorf("%w: %w", services.ErrTimeout, err))
	}
	return services.Wrap(services.ErrAlignmentEngine, "invoke_aligner", "align", "aligner exited with failure", err)
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	return runCommand(ctx, name, args...)
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.WaitDelay = 5 * time.Second

	// Hydra truncates tracebacks unless asked otherwise; the full trace is the
	// only useful diagnostic when the aligner fails.
	if os.Getenv("HYDRA_FULL_ERROR") == "" {
		cmd.Env = append(os.Environ(), "HYDRA_FULL_ERROR=1")
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := tail(stderr.Bytes(), maxDiagnosticBytes)
		if detail == "" {
			detail = tail(stdout.Bytes(), maxDiagnosticBytes)
		}
		if detail == "" {
			return fmt.Errorf("%s: %w", name, err)
		}
		return fmt.Errorf("%s: %w: %s", name, err, detail)
	}
	return nil
}

func tail(data []byte, limit int) string {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > limit {
		trimmed = trimmed[len(trimmed)-limit:]
	}
	return string(trimmed)
}

// buildArgs constructs the interpreter arguments for align.py.
func (s *Service) buildArgs(manifestPath, outputDir string) []string {
	return []string{
		s.cfg.ScriptPath,
		"pretrained_name=" + hydraString(s.cfg.PretrainedName),
		"manifest_filepath=" + hydraString(manifestPath),
		"output_dir=" + hydraString(outputDir),
		"additional_segment_grouping_separator=" + hydraString(SegmentSeparator),
		"ass_file_config.vertical_alignment=" + hydraString(VerticalAlignment),
		"ass_file_config.text_already_spoken_rgb=" + TextAlreadySpoken.String(),
		"ass_file_config.text_being_spoken_rgb=" + TextBeingSpoken.String(),
		"ass_file_config.text_not_yet_spoken_rgb=" + TextNotYetSpoken.String(),
	}
}

// String renders the colour as a Hydra list literal.
func (c RGB) String() string {
	return fmt.Sprintf("[%d,%d,%d]", c[0], c[1], c[2])
}

// hydraString quotes a value for a Hydra command-line override so paths with
// spaces, commas, or equals signs reach the aligner intact.
func hydraString(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
}
