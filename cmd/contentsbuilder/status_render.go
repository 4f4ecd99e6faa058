package main

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// checkOutcome is how one health line is reported.
type checkOutcome int

const (
	outcomePass checkOutcome = iota
	outcomeFail
	outcomeSkip
	outcomeNote
)

type outcomeStyle struct {
	label string
	color string
}

var outcomeStyles = map[checkOutcome]outcomeStyle{
	outcomePass: {label: "PASS", color: "\x1b[32m"},
	outcomeFail: {label: "FAIL", color: "\x1b[31m"},
	outcomeSkip: {label: "SKIP", color: "\x1b[90m"},
	outcomeNote: {label: "NOTE", color: "\x1b[36m"},
}

const ansiReset = "\x1b[0m"

// formatCheck renders "  PASS  Name: detail". Only the label is coloured.
func formatCheck(name string, outcome checkOutcome, detail string, colorize bool) string {
	style := outcomeStyles[outcome]
	label := style.label
	if colorize {
		label = style.color + label + ansiReset
	}
	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(label)
	b.WriteString("  ")
	b.WriteString(name)
	if detail != "" {
		b.WriteString(": ")
		b.WriteString(detail)
	}
	return b.String()
}

func shouldColorize(writer io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
