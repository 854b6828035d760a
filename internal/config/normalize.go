package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.applyEnv()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeAligner(); err != nil {
		return err
	}
	c.normalizeAPI()
	c.normalizePublish()
	c.normalizeLogging()
	return nil
}

// applyEnv lets deployment environments override file values without editing
// the TOML file.
func (c *Config) applyEnv() {
	if value, ok := lookupEnv("TEXTHIGHLIGHT_ALIGN_SCRIPT"); ok {
		c.Aligner.ScriptPath = value
	}
	if value, ok := lookupEnv("TEXTHIGHLIGHT_PYTHON"); ok {
		c.Aligner.PythonBinary = value
	}
	if value, ok := lookupEnv("TEXTHIGHLIGHT_WORK_DIR"); ok {
		c.Paths.WorkDir = value
	}
	if value, ok := lookupEnv("TEXTHIGHLIGHT_S3_BUCKET"); ok {
		c.Publish.S3Bucket = value
		c.Publish.S3Enabled = true
	}
}

func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAligner() error {
	c.Aligner.PythonBinary = strings.TrimSpace(c.Aligner.PythonBinary)
	if c.Aligner.PythonBinary == "" {
		c.Aligner.PythonBinary = defaultPythonBinary
	}
	c.Aligner.PretrainedName = strings.TrimSpace(c.Aligner.PretrainedName)
	if c.Aligner.PretrainedName == "" {
		c.Aligner.PretrainedName = defaultPretrainedName
	}
	if strings.TrimSpace(c.Aligner.ScriptPath) == "" {
		c.Aligner.ScriptPath = defaultScriptPath
	}
	var err error
	if c.Aligner.ScriptPath, err = expandPath(strings.TrimSpace(c.Aligner.ScriptPath)); err != nil {
		return fmt.Errorf("aligner.script_path: %w", err)
	}
	if c.Decoder.Workers == 0 {
		c.Decoder.Workers = defaultDecoderWorkers
	}
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	if c.API.MaxBodyBytes == 0 {
		c.API.MaxBodyBytes = defaultMaxBodyBytes
	}
	if c.History.MaxRows == 0 {
		c.History.MaxRows = defaultHistoryMaxRows
	}
}

func (c *Config) normalizePublish() {
	c.Publish.S3Bucket = strings.TrimSpace(c.Publish.S3Bucket)
	c.Publish.S3Region = strings.TrimSpace(c.Publish.S3Region)
	if c.Publish.S3Region == "" {
		c.Publish.S3Region = defaultS3Region
	}
	c.Publish.S3Prefix = strings.TrimLeft(strings.TrimSpace(c.Publish.S3Prefix), "/")
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
