package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Console is the human-facing output of the tool: leveled status lines with
// a symbol prefix, boxes, tables and progress bars all share one writer.
type Console struct {
	Logger    *slog.Logger
	Colorized bool
	JSON      bool
	out       io.Writer
}

func NewConsole(opts *Options) *Console {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Console{
		Logger:    NewRichLogger(opts),
		Colorized: opts.Colors && !opts.JSON,
		JSON:      opts.JSON,
		out:       opts.Output,
	}
}

// Discard returns a console that drops everything written to it.
func Discard() *Console {
	return NewConsole(&Options{Output: io.Discard})
}

// With returns a console whose log records carry the given attributes.
func (c *Console) With(args ...any) *Console {
	return &Console{
		Logger:    c.Logger.With(args...),
		Colorized: c.Colorized,
		JSON:      c.JSON,
		out:       c.out,
	}
}

func (c *Console) Writer() io.Writer {
	return c.out
}

func (c *Console) paint(msg string, attrs ...color.Attribute) string {
	if !c.Colorized {
		return msg
	}
	p := color.New(attrs...)
	p.EnableColor()
	return p.Sprint(msg)
}

func (c *Console) Success(format string, args ...any) {
	c.Logger.Info(c.paint("✓ "+fmt.Sprintf(format, args...), color.FgGreen, color.Bold))
}

func (c *Console) Info(format string, args ...any) {
	c.Logger.Info(c.paint("ℹ "+fmt.Sprintf(format, args...), color.FgBlue, color.Bold))
}

func (c *Console) Log(format string, args ...any) {
	c.Logger.Info(fmt.Sprintf(format, args...))
}

func (c *Console) Debug(format string, args ...any) {
	c.Logger.Debug(fmt.Sprintf(format, args...))
}

func (c *Console) Warn(format string, args ...any) {
	c.Logger.Warn(c.paint("⚠ "+fmt.Sprintf(format, args...), color.FgYellow, color.Bold))
}

func (c *Console) Error(format string, args ...any) {
	c.Logger.Error(c.paint("✖ "+fmt.Sprintf(format, args...), color.FgRed, color.Bold))
}

func (c *Console) NewProgressBar(total int64, label string, visible bool) *ProgressBar {
	return NewProgressBar(total, label, c.out, visible)
}

func (c *Console) NewTable(headers []string) *Table {
	return NewTable(headers, c.out)
}

// Box prints content framed under title, bypassing the logger.
func (c *Console) Box(title string, content string) {
	lines := strings.Split(content, "\n")
	maxWidth := len([]rune(title))

	for _, line := range lines {
		if n := len([]rune(line)); n > maxWidth {
			maxWidth = n
		}
	}

	maxWidth += 4

	var b strings.Builder
	b.WriteString("┌─" + title + "─" + strings.Repeat("─", maxWidth-len([]rune(title))-2) + "┐\n")
	for _, line := range lines {
		b.WriteString("│ " + line + strings.Repeat(" ", maxWidth-len([]rune(line))) + " │\n")
	}
	b.WriteString("└" + strings.Repeat("─", maxWidth+2) + "┘\n")

	fmt.Fprint(c.out, c.paint(b.String(), color.FgCyan))
}
