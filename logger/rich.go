package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

type Options struct {
	Output     io.Writer
	TimeFormat string
	Level      slog.Level
	AddSource  bool
	JSON       bool
	Colors     bool
	ShowTime   bool
}

func DefaultOptions() *Options {
	return &Options{
		Output:     os.Stdout,
		TimeFormat: "15:04:05.000",
		Level:      slog.LevelInfo,
		Colors:     ShouldColorize(os.Stdout),
		ShowTime:   true,
	}
}

// ShouldColorize reports whether w is an interactive terminal and NO_COLOR is unset.
func ShouldColorize(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ParseLevel maps a textual level onto slog levels. Empty means info.
func ParseLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log level: unsupported value %q", value)
	}
}

// RichHandler renders records as a single colored console line:
// time, level, message and then key=value attributes.
type RichHandler struct {
	opts   *Options
	mu     *sync.Mutex
	attrs  []slog.Attr
	groups []string
}

func NewRichHandler(opts *Options) *RichHandler {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &RichHandler{opts: opts, mu: &sync.Mutex{}}
}

func (h *RichHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level
}

func (h *RichHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := h.clone()
	prefix := h.groupPrefix()
	for _, a := range attrs {
		a.Key = prefix + a.Key
		h2.attrs = append(h2.attrs, a)
	}
	return h2
}

func (h *RichHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := h.clone()
	h2.groups = append(h2.groups, name)
	return h2
}

func (h *RichHandler) clone() *RichHandler {
	h2 := &RichHandler{
		opts:   h.opts,
		mu:     h.mu,
		attrs:  make([]slog.Attr, len(h.attrs)),
		groups: make([]string, len(h.groups)),
	}
	copy(h2.attrs, h.attrs)
	copy(h2.groups, h.groups)
	return h2
}

func (h *RichHandler) groupPrefix() string {
	if len(h.groups) == 0 {
		return ""
	}
	return strings.Join(h.groups, ".") + "."
}

func (h *RichHandler) paint(s string, attrs ...color.Attribute) string {
	if !h.opts.Colors {
		return s
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(s)
}

var levelColors = map[slog.Level][]color.Attribute{
	slog.LevelDebug: {color.FgCyan},
	slog.LevelInfo:  {color.FgGreen, color.Bold},
	slog.LevelWarn:  {color.FgYellow, color.Bold},
	slog.LevelError: {color.FgRed, color.Bold},
}

func (h *RichHandler) Handle(_ context.Context, record slog.Record) error {
	var b strings.Builder

	if h.opts.ShowTime && !record.Time.IsZero() {
		b.WriteString(h.paint(record.Time.Format(h.opts.TimeFormat), color.FgBlue))
		b.WriteByte(' ')
	}

	b.WriteString(h.paint(fmt.Sprintf("%-5s", record.Level.String()), levelColors[record.Level]...))
	b.WriteByte(' ')

	if h.opts.AddSource && record.PC != 0 {
		fs := runtime.CallersFrames([]uintptr{record.PC})
		f, _ := fs.Next()
		file := f.File
		if i := strings.LastIndex(file, "/"); i >= 0 {
			file = file[i+1:]
		}
		b.WriteString(h.paint(fmt.Sprintf("%s:%d", file, f.Line), color.FgMagenta))
		b.WriteByte(' ')
	}

	b.WriteString(record.Message)

	write := func(a slog.Attr) {
		a.Value = a.Value.Resolve()
		if a.Equal(slog.Attr{}) {
			return
		}
		b.WriteByte(' ')
		b.WriteString(h.paint(a.Key, color.FgCyan))
		b.WriteByte('=')
		b.WriteString(formatValue(a.Value))
	}
	for _, a := range h.attrs {
		write(a)
	}
	prefix := h.groupPrefix()
	record.Attrs(func(a slog.Attr) bool {
		a.Key = prefix + a.Key
		write(a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.opts.Output, b.String())
	return err
}

func formatValue(v slog.Value) string {
	s := v.String()
	if strings.ContainsAny(s, " \t\"=") || s == "" {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// NewRichLogger returns a console logger, or a JSON-lines logger when opts.JSON is set.
func NewRichLogger(opts *Options) *slog.Logger {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.JSON {
		out := opts.Output
		if out == nil {
			out = os.Stdout
		}
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level:     opts.Level,
			AddSource: opts.AddSource,
		}))
	}
	return slog.New(NewRichHandler(opts))
}
