package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
)

// PlainReporter renders phase/step notifications as plain colored lines.
// It is the reporter the CLI installs for every command, and it also backs
// the "rich" interactive variant: the pack has no terminal-UI widget library, so
// the richer experience is the same line-oriented renderer with color and
// a spinner glyph rather than a fabricated dependency (see DESIGN.md).
type PlainReporter struct {
	out      io.Writer
	color    bool
	spinner  bool
	phase    string
	stepNum  int
}

func NewPlainReporter(out io.Writer, useColor bool) *PlainReporter {
	return &PlainReporter{out: out, color: useColor}
}

// NewInteractiveReporter returns a PlainReporter with color and spinner
// glyphs enabled, the interactive variant of §4.B's reporter. The CLI
// does not construct it; buildOrchestrator always uses NewPlainReporter.
func NewInteractiveReporter(out io.Writer) *PlainReporter {
	return &PlainReporter{out: out, color: true, spinner: true}
}

func (p *PlainReporter) colorize(c *color.Color, s string) string {
	if !p.color {
		return s
	}
	return c.Sprint(s)
}

func (p *PlainReporter) StartPhase(name string) {
	p.phase = name
	p.stepNum = 0

	glyph := "=="
	if p.spinner {
		glyph = "⠋"
	}

	fmt.Fprintln(p.out, p.colorize(color.New(color.FgCyan, color.Bold), fmt.Sprintf("%s %s", glyph, name)))
}

func (p *PlainReporter) Step(message string) {
	p.stepNum++
	line := legacyLine("INFO", message)
	fmt.Fprintln(p.out, p.colorize(color.New(color.FgGreen), line))
}

func (p *PlainReporter) ReportError(context, logPath string) {
	line := legacyLine("ERROR", fmt.Sprintf("%s (see %s)", context, logPath))
	fmt.Fprintln(p.out, p.colorize(color.New(color.FgRed, color.Bold), line))
}

func (p *PlainReporter) Finish(success bool, elapsed time.Duration) {
	result := "SUCCESS"
	c := color.New(color.FgGreen, color.Bold)
	if !success {
		result = "FAILURE"
		c = color.New(color.FgRed, color.Bold)
	}

	line := fmt.Sprintf("Creation result: %s (took %.1fs)", result, elapsed.Seconds())
	fmt.Fprintln(p.out, p.colorize(c, line))
}
