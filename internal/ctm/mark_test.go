package ctm_test

import (
	"testing"

	"texthighlight/internal/ctm"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want ctm.Mark
		ok   bool
	}{
		{"plain word", "x x 1.250 0.500 hello", ctm.Mark{Start: 1.25, End: 1.75, Word: "hello"}, true},
		{"nemo layout", "audio 1 0.08 0.32 ▁Hello NA lex NA", ctm.Mark{Start: 0.08, End: 0.4, Word: "Hello"}, true},
		{"mac roman marker", "audio 1 2.00 0.25 ‚ñÅworld", ctm.Mark{Start: 2, End: 2.25, Word: "world"}, true},
		{"zero duration", "a 1 3 0 word", ctm.Mark{Start: 3, End: 3, Word: "word"}, true},
		{"blank token", "audio 1 0.00 0.08 <b>", ctm.Mark{}, false},
		{"too few fields", "audio 1 0.00 0.08", ctm.Mark{}, false},
		{"bad start", "audio 1 abc 0.08 word", ctm.Mark{}, false},
		{"bad duration", "audio 1 0.1 xyz word", ctm.Mark{}, false},
		{"negative duration", "audio 1 0.1 -0.2 word", ctm.Mark{}, false},
		{"nan start", "audio 1 NaN 0.2 word", ctm.Mark{}, false},
		{"marker only", "audio 1 0.1 0.2 ▁", ctm.Mark{}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ctm.ParseLine(tc.line)
			if ok != tc.ok {
				t.Fatalf("ParseLine(%q) ok = %v, want %v", tc.line, ok, tc.ok)
			}
			if !ok {
				return
			}
			if got.Word != tc.want.Word {
				t.Fatalf("word = %q, want %q", got.Word, tc.want.Word)
			}
			if !approx(got.Start, tc.want.Start) || !approx(got.End, tc.want.End) {
				t.Fatalf("times = (%v, %v), want (%v, %v)", got.Start, got.End, tc.want.Start, tc.want.End)
			}
		})
	}
}

func TestCleanWordComposesToNFC(t *testing.T) {
	decomposed := "▁cafe\u0301"
	if got := ctm.CleanWord(decomposed); got != "caf\u00e9" {
		t.Fatalf("CleanWord(%q) = %q", decomposed, got)
	}
	if got := ctm.CleanWord("in▁side"); got != "inside" {
		t.Fatalf("expected interior marker removed, got %q", got)
	}
}

func TestCleanWordKeepsComposedTokensVerbatim(t *testing.T) {
	for _, token := range []string{"Hello,", "naïve", "Zürich.", "日本語", "don't", "3.14"} {
		if got := ctm.CleanWord("▁" + token); got != token {
			t.Fatalf("CleanWord(%q) = %q, want %q", "▁"+token, got, token)
		}
	}
}

func approx(a, b float64) bool {
	const eps = 1e-9
	d := a - b
	return d < eps && d > -eps
}
