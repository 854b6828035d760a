package textutil

import (
	"strings"
	"unicode"
)

const (
	// LineBreakSentinel replaces a single line break in aligner input. Runs of
	// two and three-or-more breaks become two and three sentinels.
	LineBreakSentinel = "/nn"
	// ParagraphTag is an explicit paragraph hint restored to a real double
	// line break after whitespace has been collapsed.
	ParagraphTag = "<p>"

	maxSentinelRun = 3
)

// NormalizeTranscript canonicalizes transcript text for the aligner.
//
// Line-break runs are encoded as sentinels (1, 2, or 3+ breaks map to 1, 2,
// or 3 sentinels), every remaining whitespace run collapses to one space, and
// paragraph tags are expanded to "\n\n" last so they survive as genuine breaks.
// CRLF and lone CR line endings are treated as single line breaks.
func NormalizeTranscript(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = encodeLineBreaks(text)
	text = collapseWhitespace(text)
	return strings.ReplaceAll(text, ParagraphTag, "\n\n")
}

func encodeLineBreaks(text string) string {
	if !strings.Contains(text, "\n") {
		return text
	}
	var b strings.Builder
	b.Grow(len(text) + 8)
	run := 0
	flush := func() {
		if run == 0 {
			return
		}
		b.WriteString(strings.Repeat(LineBreakSentinel, min(run, maxSentinelRun)))
		run = 0
	}
	for _, r := range text {
		if r == '\n' {
			run++
			continue
		}
		flush()
		b.WriteRune(r)
	}
	flush()
	return b.String()
}

func collapseWhitespace(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	inSpace := false
	for _, r := range text {
		if isSpace(r) {
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// isSpace matches unicode.IsSpace plus the ASCII information separators,
// which transcript exports occasionally carry as record delimiters.
func isSpace(r rune) bool {
	if r >= 0x1c && r <= 0x1f {
		return true
	}
	return unicode.IsSpace(r)
}
