package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"texthighlight/internal/ctm"
	"texthighlight/internal/fileutil"
	"texthighlight/internal/logging"
	"texthighlight/internal/manifest"
	"texthighlight/internal/services"
	"texthighlight/internal/services/nfa"
	"texthighlight/internal/textutil"
	"texthighlight/internal/workspace"
)

// Stage names used in context, logs, and wrapped errors.
const (
	StageValidateAudio = "validate_audio"
	StageNormalize     = "normalize"
	StageWriteManifest = "write_manifest"
	StageInvokeAligner = "invoke_aligner"
	StageDecodeResults = "decode_results"
	StageCleanup       = "cleanup"
)

// Aligner runs the external forced aligner and blocks until it exits.
type Aligner interface {
	Align(ctx context.Context, manifestPath, outputDir string) error
}

// Decoder turns a word CTM directory into ordered marks.
type Decoder interface {
	Decode(ctx context.Context, dir string) ([]ctm.Mark, error)
}

// Recorder observes finished runs.
type Recorder interface {
	Record(ctx context.Context, run Run) error
}

// Run describes a finished pipeline run.
type Run struct {
	ID        string
	AudioPath string
	StartedAt time.Time
	Elapsed   time.Duration
	// Kind is the error taxonomy name for failed runs and empty on success.
	Kind   string
	Result Result
}

// Pipeline orchestrates alignment runs. It is safe for concurrent use; each
// run works on its own manifest and output directory.
type Pipeline struct {
	ws           *workspace.Workspace
	aligner      Aligner
	decoder      Decoder
	recorders    []Recorder
	logger       *slog.Logger
	retainOutput bool
	newID        func() string
	now          func() time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithRecorders registers observers called after every run.
func WithRecorders(recorders ...Recorder) Option {
	return func(p *Pipeline) {
		for _, r := range recorders {
			if r != nil {
				p.recorders = append(p.recorders, r)
			}
		}
	}
}

// WithRetainOutput keeps the aligner output directory after each run.
func WithRetainOutput(retain bool) Option {
	return func(p *Pipeline) { p.retainOutput = retain }
}

// WithIDFunc overrides run id generation.
func WithIDFunc(fn func() string) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// WithClock overrides the wall clock used for elapsed time.
func WithClock(fn func() time.Time) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.now = fn
		}
	}
}

// New constructs a pipeline.
func New(ws *workspace.Workspace, aligner Aligner, decoder Decoder, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		ws:      ws,
		aligner: aligner,
		decoder: decoder,
		logger:  logging.NewComponentLogger(logger, "pipeline"),
		newID:   NewRunID,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Align runs one request and returns its result. It never returns an error;
// failures are reported through Result.Status and Result.Message.
func (p *Pipeline) Align(ctx context.Context, text, audioPath string) Result {
	return p.Run(ctx, text, audioPath).Result
}

// Run executes a request and returns the full run record.
func (p *Pipeline) Run(ctx context.Context, text, audioPath string) Run {
	started := p.now()
	run := Run{
		ID:        p.newID(),
		AudioPath: audioPath,
		StartedAt: started,
	}
	ctx = services.WithRunID(ctx, run.ID)
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("alignment run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("audio_path", audioPath),
		logging.Int("text_chars", len(text)),
	)

	marks, err := p.execute(ctx, run.ID, text, audioPath)

	run.Elapsed = p.now().Sub(started)
	run.Result = Result{Time: ElapsedSeconds(run.Elapsed)}
	if err != nil {
		run.Kind = services.Kind(err)
		run.Result.Message = fmt.Sprintf("%s: %v", run.Kind, err)
		logging.ErrorWithContext(logger, "alignment run failed", "run_failure",
			logging.String("error_kind", run.Kind),
			logging.Error(err),
			logging.Duration("elapsed", run.Elapsed),
			logging.String(logging.FieldErrorHint, hintFor(err)),
		)
	} else {
		run.Result.Status = true
		run.Result.Marks = marks
		logger.Info("alignment run completed",
			logging.String(logging.FieldEventType, "run_complete"),
			logging.Int("marks", len(marks)),
			logging.Duration("elapsed", run.Elapsed),
		)
	}

	p.record(ctx, logger, run)
	return run
}

func (p *Pipeline) execute(ctx context.Context, runID, text, audioPath string) (marks []ctm.Mark, err error) {
	stage := StageValidateAudio
	defer func() {
		if r := recover(); r != nil {
			marks = nil
			err = services.Wrap(services.ErrIO, stage, "panic", fmt.Sprint(r), nil)
		}
	}()

	if err := validateAudio(audioPath); err != nil {
		return nil, err
	}

	manifestPath := p.ws.ManifestPath(runID)
	outputDir := p.ws.OutputDir(runID)
	defer p.cleanup(ctx, manifestPath, outputDir)

	stage = StageNormalize
	stageCtx := services.WithStage(ctx, stage)
	normalized := textutil.NormalizeTranscript(text)
	logging.WithContext(stageCtx, p.logger).Debug("transcript normalized",
		logging.Int("input_chars", len(text)),
		logging.Int("normalized_chars", len(normalized)),
	)

	stage = StageWriteManifest
	stageCtx = services.WithStage(ctx, stage)
	if err := manifest.Write(manifestPath, manifest.Request{AudioPath: audioPath, Text: normalized}); err != nil {
		return nil, err
	}
	logging.WithContext(stageCtx, p.logger).Debug("manifest written", logging.String("path", manifestPath))

	stage = StageInvokeAligner
	stageCtx = services.WithStage(ctx, stage)
	if err := p.aligner.Align(stageCtx, manifestPath, outputDir); err != nil {
		return nil, err
	}

	stage = StageDecodeResults
	stageCtx = services.WithStage(ctx, stage)
	return p.decoder.Decode(stageCtx, nfa.WordsDirFor(outputDir))
}

func validateAudio(audioPath string) error {
	if strings.TrimSpace(audioPath) == "" {
		return services.Wrap(services.ErrAudioNotFound, StageValidateAudio, "", "audio file not found: no path given", nil)
	}
	info, err := os.Stat(audioPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return services.Wrap(services.ErrAudioNotFound, StageValidateAudio, "", "audio file not found: "+audioPath, nil)
		}
		return services.Wrap(services.ErrIO, StageValidateAudio, "stat", audioPath, err)
	}
	if info.IsDir() {
		return services.Wrap(services.ErrAudioNotFound, StageValidateAudio, "", "audio path is a directory: "+audioPath, nil)
	}
	return nil
}

// cleanup removes run artifacts. Failures are logged and never replace the
// run outcome.
func (p *Pipeline) cleanup(ctx context.Context, manifestPath, outputDir string) {
	logger := logging.WithContext(services.WithStage(ctx, StageCleanup), p.logger)
	if err := fileutil.RemoveIfExists(manifestPath); err != nil {
		logging.WarnWithContext(logger, "failed to remove manifest", "cleanup_failed",
			logging.String("path", manifestPath),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale manifest left in work dir"),
			logging.String(logging.FieldErrorHint, "run texthighlight prune"),
		)
	}
	if p.retainOutput {
		logger.Debug("output retained", logging.String("path", outputDir))
		return
	}
	if err := os.RemoveAll(outputDir); err != nil {
		logging.WarnWithContext(logger, "failed to remove aligner output", "cleanup_failed",
			logging.String("path", outputDir),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale output left in work dir"),
			logging.String(logging.FieldErrorHint, "run texthighlight prune"),
		)
	}
}

func (p *Pipeline) record(ctx context.Context, logger *slog.Logger, run Run) {
	for _, r := range p.recorders {
		if err := safeRecord(ctx, r, run); err != nil {
			logging.WarnWithContext(logger, "failed to record run", "record_failed",
				logging.String("recorder", fmt.Sprintf("%T", r)),
				logging.Error(err),
				logging.String(logging.FieldImpact, "run result not persisted"),
			)
		}
	}
}

func safeRecord(ctx context.Context, r Recorder, run Run) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("recorder panic: %v", rec)
		}
	}()
	return r.Record(ctx, run)
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, services.ErrAudioNotFound):
		return "check the audio path is readable from this host"
	case errors.Is(err, services.ErrTimeout):
		return "raise aligner.timeout_seconds or shorten the audio"
	case errors.Is(err, services.ErrAlignmentEngine):
		return "inspect the aligner stderr in the message; run texthighlight doctor"
	case errors.Is(err, services.ErrResultsMissing):
		return "the aligner exited cleanly without CTM output; check the NeMo version"
	default:
		return "check work_dir permissions and free space"
	}
}
