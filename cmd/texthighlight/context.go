package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"texthighlight/internal/config"
	"texthighlight/internal/ctm"
	"texthighlight/internal/history"
	"texthighlight/internal/logging"
	"texthighlight/internal/pipeline"
	"texthighlight/internal/publish"
	"texthighlight/internal/services/nfa"
	"texthighlight/internal/workspace"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil {
			if level := strings.ToLower(strings.TrimSpace(*c.logLevelFlag)); level != "" {
				cfg.Logging.Level = level
				if err := cfg.Validate(); err != nil {
					c.configErr = err
					return
				}
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// runtime bundles the pipeline with the resources it holds open.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	aligner  *nfa.Service
	pipeline *pipeline.Pipeline
	history  *history.Store
	lock     *workspace.Lock
}

// openRuntime wires the pipeline for cfg and takes the shared workspace lock.
// History and publishing failures degrade to warnings; alignment still runs.
func (c *commandContext) openRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	lock := workspace.NewLock(cfg.LockPath())
	if err := lock.AcquireShared(); err != nil {
		if errors.Is(err, workspace.ErrLocked) {
			return nil, fmt.Errorf("work directory is being pruned (lock %s); retry shortly", lock.Path())
		}
		return nil, err
	}

	rt := &runtime{cfg: cfg, logger: logger, lock: lock}
	var recorders []pipeline.Recorder
	if cfg.History.Enabled {
		store, err := history.Open(cfg.HistoryPath(), cfg.History.MaxRows)
		if err != nil {
			logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "runs will not be recorded"),
				logging.String(logging.FieldErrorHint, "delete "+cfg.HistoryPath()+" if the schema changed"),
			)
		} else {
			rt.history = store
			recorders = append(recorders, store)
		}
	}
	if cfg.Publish.S3Enabled {
		pub, err := publish.NewS3Publisher(ctx, cfg.Publish, logger)
		if err != nil {
			logging.WarnWithContext(logger, "result publishing unavailable", "publish_init_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "results will not be uploaded"),
				logging.String(logging.FieldErrorHint, "check AWS credentials and publish.s3_region"),
			)
		} else {
			recorders = append(recorders, pub)
		}
	}

	rt.aligner = nfa.NewService(nfa.Config{
		PythonBinary:   cfg.Aligner.PythonBinary,
		ScriptPath:     cfg.Aligner.ScriptPath,
		PretrainedName: cfg.Aligner.PretrainedName,
		Timeout:        cfg.AlignerTimeout(),
	}, logger)
	rt.pipeline = pipeline.New(
		workspace.New(cfg.Paths.WorkDir),
		rt.aligner,
		ctm.NewDecoder(cfg.Decoder.Workers, logger),
		logger,
		pipeline.WithRecorders(recorders...),
		pipeline.WithRetainOutput(cfg.Pipeline.RetainOutput),
	)
	return rt, nil
}

func (rt *runtime) Close() {
	if rt.history != nil {
		_ = rt.history.Close()
	}
	if rt.lock != nil {
		_ = rt.lock.Release()
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
