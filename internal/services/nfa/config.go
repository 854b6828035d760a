package nfa

import "time"

// Config captures runtime settings for NeMo forced aligner invocations.
type Config struct {
	// PythonBinary runs the aligner script (e.g., "python3" or a venv interpreter).
	PythonBinary string
	// ScriptPath points at NeMo's tools/nemo_forced_aligner/align.py.
	ScriptPath string
	// PretrainedName is the NeMo model identifier. Empty uses DefaultPretrainedName.
	PretrainedName string
	// Timeout bounds a single invocation. Zero disables the bound.
	Timeout time.Duration
}

// Aligner configuration constants. The segment separator and subtitle style
// form the fixed profile passed on every invocation.
const (
	DefaultPythonBinary   = "python3"
	DefaultScriptPath     = "NeMo/tools/nemo_forced_aligner/align.py"
	DefaultPretrainedName = "stt_en_fastconformer_hybrid_large_pc"
	DefaultTimeout        = 30 * time.Minute
	SegmentSeparator      = "|"
	VerticalAlignment     = "bottom"
	CTMDir                = "ctm"
	WordsDir              = "words"
)

// RGB is a subtitle text colour.
type RGB [3]int

// Subtitle colours for the ASS side output.
var (
	TextAlreadySpoken = RGB{66, 245, 212}
	TextBeingSpoken   = RGB{242, 222, 44}
	TextNotYetSpoken  = RGB{223, 242, 239}
)
