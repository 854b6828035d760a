package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"texthighlight/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The aligner points at a no-op shell script run by /bin/sh.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Aligner.PythonBinary = "/bin/sh"
	cfgVal.Aligner.TimeoutSeconds = 30
	cfgVal.API.Bind = "127.0.0.1:0"
	cfgVal.Logging.Level = "error"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	WithAlignerScript("#!/bin/sh\nexit 0\n")(builder)

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithAlignerScript writes body as the aligner script and points the config at it.
func WithAlignerScript(body string) ConfigOption {
	return func(b *configBuilder) {
		target := filepath.Join(b.baseDir, "align.sh")
		if err := os.WriteFile(target, []byte(body), 0o755); err != nil {
			b.t.Fatalf("write aligner script: %v", err)
		}
		b.cfg.Aligner.ScriptPath = target
	}
}

// WithHistory toggles run history on the test config.
func WithHistory(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = enabled
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}

// WriteConfig encodes cfg as TOML next to its temp directories and returns the path.
func WriteConfig(t testing.TB, cfg *config.Config) string {
	t.Helper()

	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	path := filepath.Join(BaseDir(cfg), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
