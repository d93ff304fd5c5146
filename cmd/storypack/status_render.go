package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// statusKind classifies a summary line so terminals can color it.
type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

func (k statusKind) label() string {
	switch k {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func (k statusKind) color() string {
	switch k {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

// summaryLabelWidth fits the longest label either summary prints, the deps
// command's "Render backends:".
const summaryLabelWidth = 16

// statusPrinter writes the aligned status lines of the build and deps
// summaries. Color is decided once, from the destination.
type statusPrinter struct {
	out      io.Writer
	colorize bool
}

func newStatusPrinter(out io.Writer) *statusPrinter {
	return &statusPrinter{out: out, colorize: shouldColorize(out)}
}

func (p *statusPrinter) line(kind statusKind, label, message string) {
	status := "[" + kind.label() + "]"
	if message != "" {
		status += " " + message
	}
	line := fmt.Sprintf("  %-*s %s", summaryLabelWidth, label+":", status)
	if p.colorize {
		if color := kind.color(); color != "" {
			line = color + line + ansiReset
		}
	}
	fmt.Fprintln(p.out, line)
}

// section prints a ruled header separating groups of output, as between the
// per-run stage tables of history --stages.
func (p *statusPrinter) section(title string) {
	header := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(header))
	if p.colorize {
		header = ansiBlue + header + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	fmt.Fprintln(p.out, header)
	fmt.Fprintln(p.out, rule)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
