package config

const (
	defaultConfigPath     = "~/.config/texthighlight/config.toml"
	defaultWorkDir        = "~/.local/share/texthighlight/work"
	defaultStateDir       = "~/.local/share/texthighlight"
	defaultLogDir         = "~/.local/share/texthighlight/logs"
	defaultPythonBinary   = "python3"
	defaultScriptPath     = "~/NeMo/tools/nemo_forced_aligner/align.py"
	defaultPretrainedName = "stt_en_fastconformer_hybrid_large_pc"
	defaultTimeoutSeconds = 1800
	defaultDecoderWorkers = 4
	defaultAPIBind        = "127.0.0.1:7488"
	defaultMaxBodyBytes   = 8 << 20
	defaultHistoryMaxRows = 5000
	defaultS3Region       = "us-east-1"
	defaultS3Prefix       = "texthighlight/"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:  defaultWorkDir,
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Aligner: Aligner{
			PythonBinary:   defaultPythonBinary,
			ScriptPath:     defaultScriptPath,
			PretrainedName: defaultPretrainedName,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Decoder: Decoder{
			Workers: defaultDecoderWorkers,
		},
		API: API{
			Bind:         defaultAPIBind,
			MaxBodyBytes: defaultMaxBodyBytes,
		},
		History: History{
			Enabled: true,
			MaxRows: defaultHistoryMaxRows,
		},
		Publish: Publish{
			S3Region: defaultS3Region,
			S3Prefix: defaultS3Prefix,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
