package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderStatusLine(t *testing.T) {
	line := renderStatusLine("Python", statusOK, "/usr/bin/python3", false)
	if !strings.Contains(line, "Python:") || !strings.Contains(line, "[OK] /usr/bin/python3") {
		t.Fatalf("unexpected line %q", line)
	}
	colored := renderStatusLine("Python", statusError, "", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected red colouring, got %q", colored)
	}
	if !strings.Contains(colored, "[ERROR]") {
		t.Fatalf("expected error label, got %q", colored)
	}
}

func TestStatusPanelWritesHeaderAndChecks(t *testing.T) {
	var buf bytes.Buffer
	panel := newStatusPanel(&buf, "Alignment host")
	panel.check("Python", true, "/bin/sh")
	panel.check("Aligner script", false, "missing")
	panel.info("Model", "stt_test")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %q", buf.String())
	}
	if lines[0] != "== Alignment host ==" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[2], "[OK] /bin/sh") || !strings.Contains(lines[3], "[ERROR] missing") || !strings.Contains(lines[4], "[INFO] stt_test") {
		t.Fatalf("unexpected panel output %q", buf.String())
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatal("buffers must not be coloured")
	}
}

func TestShouldColorizeNonTerminal(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("buffers are never terminals")
	}
}

func TestRenderTableTrimsWideColumns(t *testing.T) {
	out := renderTable([]tableColumn{
		{Header: "Run"},
		{Header: "Audio", MaxWidth: 8},
	}, [][]string{{"r1", "/very/long/path/to/audio.wav"}, {"r2"}})
	if !strings.Contains(out, "r1") || !strings.Contains(out, "r2") {
		t.Fatalf("missing rows in %q", out)
	}
	if strings.Contains(out, "audio.wav") {
		t.Fatalf("expected audio column trimmed, got %q", out)
	}
	if renderTable(nil, nil) != "" {
		t.Fatal("expected empty output without columns")
	}
}
