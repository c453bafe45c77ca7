// Package output renders comparison verdicts, suite progress and tables for
// the closeness CLI.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Writer prints human-facing results to stdout and diagnostics to stderr.
type Writer struct {
	out   io.Writer
	err   io.Writer
	color bool
	quiet bool
}

// New returns a Writer on the process streams, colored when stdout is a
// terminal.
func New() *Writer {
	return NewWithWriters(os.Stdout, os.Stderr, isTerminal())
}

// NewWithWriters returns a Writer on the given streams.
func NewWithWriters(out, err io.Writer, color bool) *Writer {
	return &Writer{out: out, err: err, color: color}
}

// Stdout is the stream results are written to.
func (w *Writer) Stdout() io.Writer { return w.out }

// Stderr is the stream warnings and errors are written to.
func (w *Writer) Stderr() io.Writer { return w.err }

// SetQuiet hides informational lines and passing suite cases.
func (w *Writer) SetQuiet(quiet bool) { w.quiet = quiet }

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
)

// paint wraps s in an ANSI style when color is enabled.
func (w *Writer) paint(style, s string) string {
	if !w.color || style == "" {
		return s
	}
	return style + s + reset
}

func (w *Writer) line(s string) {
	fmt.Fprintln(w.out, s)
}

// Println formats a line to stdout.
func (w *Writer) Println(format string, args ...any) {
	w.line(fmt.Sprintf(format, args...))
}

// Info formats a line to stdout unless quiet.
func (w *Writer) Info(format string, args ...any) {
	if !w.quiet {
		w.Println(format, args...)
	}
}

// Success formats a green line to stdout.
func (w *Writer) Success(format string, args ...any) {
	w.line(w.paint(green, fmt.Sprintf(format, args...)))
}

// Warning formats a "warning:" line to stderr.
func (w *Writer) Warning(format string, args ...any) {
	fmt.Fprintln(w.err, w.paint(yellow, "warning: "+fmt.Sprintf(format, args...)))
}

// ErrorPrefix formats a "closeness:" error line to stderr.
func (w *Writer) ErrorPrefix(format string, args ...any) {
	fmt.Fprintf(w.err, "%s %s\n", w.paint(red, "closeness:"), fmt.Sprintf(format, args...))
}

// Failure prints a failed comparison: a FAIL header naming the kind,
// followed by the indented report.
func (w *Writer) Failure(kind, report string) {
	w.line(w.paint(red, "FAIL:") + " " + kind)
	w.line("")
	w.Block("  ", report)
}

// Section prints a "=== title ===" header unless quiet.
func (w *Writer) Section(title string) {
	if w.quiet {
		return
	}
	w.line("")
	w.line(w.paint(bold, "=== "+title+" ==="))
}

// Block prints a multi-line report with every non-empty line indented by
// prefix. Trailing newlines are dropped.
func (w *Writer) Block(prefix, text string) {
	for _, l := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		if l != "" {
			l = prefix + l
		}
		w.line(l)
	}
}

// Table prints left-aligned columns separated by two spaces, with a dashed
// rule under the headers. Cells beyond the header count are dropped.
func (w *Writer) Table(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], len(row[i]))
		}
	}

	rule := make([]string, len(widths))
	for i, n := range widths {
		rule[i] = strings.Repeat("-", n)
	}

	w.tableRow(widths, headers)
	w.line(strings.Join(rule, "  "))
	for _, row := range rows {
		w.tableRow(widths, row)
	}
}

func (w *Writer) tableRow(widths []int, cells []string) {
	var b strings.Builder
	for i := 0; i < len(cells) && i < len(widths); i++ {
		if i > 0 {
			b.WriteString("  ")
		}
		fmt.Fprintf(&b, "%-*s", widths[i], cells[i])
	}
	w.line(strings.TrimRight(b.String(), " "))
}

// SummaryHeader opens the suite summary block.
func (w *Writer) SummaryHeader(title string) {
	w.line("")
	w.line(w.paint(bold+cyan, "=== "+title+" ==="))
	w.line("")
}

func (w *Writer) summary(label, value, style string) {
	if w.color {
		w.line("  " + dim + label + ":" + reset + " " + w.paint(style, value))
		return
	}
	w.line("  " + label + ": " + value)
}

// SummaryItem prints a neutral "label: value" summary line.
func (w *Writer) SummaryItem(label, value string) { w.summary(label, value, "") }

// SummaryPassed prints a summary line with the value in green.
func (w *Writer) SummaryPassed(label, value string) { w.summary(label, value, green) }

// SummaryFailed prints a summary line with the value in red.
func (w *Writer) SummaryFailed(label, value string) { w.summary(label, value, red) }

// SummarySectionLabel prints a sub-heading such as "Failed Cases:".
func (w *Writer) SummarySectionLabel(label string) {
	w.line("  " + w.paint(dim, label))
}

// FailedCase lists one failed suite case under the summary with its kind
// and the indented failure reason.
func (w *Writer) FailedCase(path, kind, reason string) {
	w.SummaryFailed("  "+path, kind)
	w.Block("      ", reason)
}

// CaseResult prints one suite case with a pass/fail mark and its duration.
// Passing cases are hidden when quiet.
func (w *Writer) CaseResult(name string, passed bool, duration string) {
	if w.quiet && passed {
		return
	}
	mark, style := "x", red
	if passed {
		mark, style = "+", green
	}
	if w.color {
		mark = map[bool]string{true: "✓", false: "✗"}[passed]
	}
	w.line("    " + w.paint(style, mark) + " " + name + " " + w.paint(dim, duration))
}

// FinalSuccess prints the closing line of a passing run.
func (w *Writer) FinalSuccess(format string, args ...any) {
	w.line("")
	w.line(w.paint(green, fmt.Sprintf(format, args...)))
}

// FinalFailure prints the closing line of a failing run.
func (w *Writer) FinalFailure(format string, args ...any) {
	w.line("")
	w.line(w.paint(red, fmt.Sprintf(format, args...)))
}
