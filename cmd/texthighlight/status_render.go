package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 24
	statusIndent     = "  "
)

var statusStyles = [...]struct {
	label string
	color string
}{
	statusInfo:  {"INFO", ansiBlue},
	statusOK:    {"OK", ansiGreen},
	statusWarn:  {"WARN", ansiYellow},
	statusError: {"ERROR", ansiRed},
}

// statusPanel prints a titled block of aligned status lines, coloured when
// the destination is a terminal.
type statusPanel struct {
	out      io.Writer
	colorize bool
}

func newStatusPanel(out io.Writer, title string) *statusPanel {
	p := &statusPanel{out: out, colorize: shouldColorize(out)}
	for _, line := range renderSectionHeader(title, p.colorize) {
		fmt.Fprintln(out, line)
	}
	return p
}

func (p *statusPanel) line(label string, kind statusKind, detail string) {
	fmt.Fprintln(p.out, renderStatusLine(label, kind, detail, p.colorize))
}

func (p *statusPanel) info(label, detail string) {
	p.line(label, statusInfo, detail)
}

// check prints OK or ERROR depending on passed.
func (p *statusPanel) check(label string, passed bool, detail string) {
	kind := statusError
	if passed {
		kind = statusOK
	}
	p.line(label, kind, detail)
}

func renderStatusLine(label string, kind statusKind, detail string, colorize bool) string {
	style := statusStyles[statusInfo]
	if int(kind) >= 0 && int(kind) < len(statusStyles) {
		style = statusStyles[kind]
	}
	status := "[" + style.label + "]"
	if detail != "" {
		status += " " + detail
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", status)
	if colorize {
		return style.color + base + ansiReset
	}
	return base
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func outcomeLabel(status bool) string {
	if status {
		return "ok"
	}
	return "failed"
}
