package ctm

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Mark is one aligned word.
type Mark struct {
	Start float64 `json:"s"`
	End   float64 `json:"e"`
	Word  string  `json:"w"`
}

const (
	// BlankToken marks non-speech in CTM output and never produces a mark.
	BlankToken = "<b>"

	minFields   = 5
	fieldStart  = 2
	fieldLength = 3
	fieldToken  = 4
)

// continuationMarkers are sub-word prefixes emitted by the SentencePiece
// tokenizer. The second entry is the same glyph decoded as Mac Roman, which
// shows up when CTM files pass through a mis-configured locale.
var continuationMarkers = strings.NewReplacer(
	"▁", "",
	"‚ñÅ", "",
)

// ParseLine decodes a single CTM line. ok is false when the line must be
// skipped.
func ParseLine(line string) (mark Mark, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < minFields {
		return Mark{}, false
	}
	token := fields[fieldToken]
	if token == BlankToken {
		return Mark{}, false
	}
	start, err := strconv.ParseFloat(fields[fieldStart], 64)
	if err != nil || !isFinite(start) {
		return Mark{}, false
	}
	duration, err := strconv.ParseFloat(fields[fieldLength], 64)
	if err != nil || !isFinite(duration) || duration < 0 {
		return Mark{}, false
	}
	word := CleanWord(token)
	if word == "" {
		return Mark{}, false
	}
	return Mark{Start: start, End: start + duration, Word: word}, true
}

// CleanWord strips tokenizer continuation markers and returns the word in
// NFC form.
func CleanWord(token string) string {
	return norm.NFC.String(continuationMarkers.Replace(token))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
