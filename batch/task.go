// Package batch turns a directory listing into conversion tasks and runs
// them on a bounded pool of workers.
package batch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"batimgcon/codec"
)

type Status int

const (
	StatusConverted Status = iota
	StatusFailed
	StatusAbandoned
)

func (s Status) String() string {
	switch s {
	case StatusConverted:
		return "converted"
	case StatusFailed:
		return "failed"
	case StatusAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Task converts one source file into Output using Format.
type Task struct {
	Source string
	Output string
	Format string
}

// NewTask places the output in outputDir under the source's base name, with
// the trailing ".inputFormat" replaced by ".outputFormat". A name without
// that suffix keeps its full base name and gets the new extension appended.
func NewTask(source, outputDir, inputFormat, outputFormat string) Task {
	stem := strings.TrimSuffix(filepath.Base(source), "."+inputFormat)
	return Task{
		Source: source,
		Output: filepath.Join(outputDir, stem+"."+outputFormat),
		Format: outputFormat,
	}
}

type Result struct {
	Task       Task
	Status     Status
	Err        error
	InputSize  int64
	OutputSize int64
	Duration   time.Duration
}

func (r Result) OK() bool {
	return r.Status == StatusConverted
}

// Execute runs the conversion. A cancelled ctx short-circuits before the
// adapter is touched. Failures are reported in the Result, never returned.
func (t Task) Execute(ctx context.Context, adapter codec.Adapter) (res Result) {
	res.Task = t
	if ctx.Err() != nil {
		res.Status = StatusAbandoned
		res.Err = context.Cause(ctx)
		return res
	}

	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
	}()

	h, err := adapter.Open(t.Source)
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		return res
	}
	defer h.Close()

	if err := adapter.Save(h, t.Output, t.Format); err != nil {
		res.Status = StatusFailed
		res.Err = err
		return res
	}

	res.Status = StatusConverted
	if info, err := os.Stat(t.Source); err == nil {
		res.InputSize = info.Size()
	}
	if info, err := os.Stat(t.Output); err == nil {
		res.OutputSize = info.Size()
	}
	return res
}
