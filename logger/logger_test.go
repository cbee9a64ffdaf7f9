package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"batimgcon/logger"
)

func newBufferConsole(buf *bytes.Buffer, level slog.Level) *logger.Console {
	return logger.NewConsole(&logger.Options{Output: buf, Level: level})
}

func TestConsoleWritesPlainLinesWithoutColor(t *testing.T) {
	var buf bytes.Buffer
	c := newBufferConsole(&buf, slog.LevelInfo)

	c.Success("Converted %s", "a.png")
	c.Error("Failed to convert %s", "b.png")
	c.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "INFO  ✓ Converted a.png") {
		t.Fatalf("missing success line in %q", out)
	}
	if !strings.Contains(out, "ERROR ✖ Failed to convert b.png") {
		t.Fatalf("missing error line in %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line should be filtered at info level: %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("unexpected ANSI escape in %q", out)
	}
}

func TestConsoleWithRendersAttributes(t *testing.T) {
	var buf bytes.Buffer
	c := newBufferConsole(&buf, slog.LevelDebug).With("run_id", "abc", "dir", "/tmp/my dir")

	c.Log("hello")

	out := buf.String()
	if !strings.Contains(out, `run_id=abc`) || !strings.Contains(out, `dir="/tmp/my dir"`) {
		t.Fatalf("attributes not rendered: %q", out)
	}
}

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	c := logger.NewConsole(&logger.Options{Output: &buf, JSON: true, Colors: true})

	c.Warn("careful")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["level"] != "WARN" {
		t.Fatalf("unexpected level %v", rec["level"])
	}
	if msg, _ := rec["msg"].(string); msg != "⚠ careful" {
		t.Fatalf("unexpected msg %q", msg)
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	} {
		got, err := logger.ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := logger.ParseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestTableRender(t *testing.T) {
	var buf bytes.Buffer
	tbl := logger.NewTable([]string{"Metric", "Value"}, &buf)
	tbl.AddRow("Converted files", "2/2")
	tbl.AddRow("Failed files")
	tbl.Print()

	out := buf.String()
	for _, want := range []string{"Metric", "Converted files", "2/2", "Failed files"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestBox(t *testing.T) {
	var buf bytes.Buffer
	c := newBufferConsole(&buf, slog.LevelInfo)
	c.Box("title", "line one\nline two")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "title") || !strings.Contains(lines[2], "line two") {
		t.Fatalf("unexpected box: %q", buf.String())
	}
}

func TestTimerLogsAtDebug(t *testing.T) {
	var quiet bytes.Buffer
	newBufferConsole(&quiet, slog.LevelInfo).StartTimer("Directory scan").End()
	if quiet.Len() != 0 {
		t.Fatalf("timer should be silent at info level, got %q", quiet.String())
	}

	var verbose bytes.Buffer
	d := newBufferConsole(&verbose, slog.LevelDebug).StartTimer("Directory scan").End()
	if d < 0 {
		t.Fatalf("negative duration %v", d)
	}
	if !strings.Contains(verbose.String(), "Directory scan completed in") {
		t.Fatalf("unexpected timer output %q", verbose.String())
	}
}
