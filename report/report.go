// Package report writes a YAML summary of a conversion run, one entry per file.
package report

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"batimgcon/batch"
)

type Entry struct {
	Source      string `yaml:"source"`
	Output      string `yaml:"output"`
	Status      string `yaml:"status"`
	Error       string `yaml:"error,omitempty"`
	InputBytes  int64  `yaml:"input_bytes,omitempty"`
	OutputBytes int64  `yaml:"output_bytes,omitempty"`
	DurationMS  int64  `yaml:"duration_ms,omitempty"`
}

type Report struct {
	RunID          string    `yaml:"run_id"`
	StartedAt      time.Time `yaml:"started_at"`
	InputDir       string    `yaml:"input_dir"`
	OutputDir      string    `yaml:"output_dir"`
	InputFormat    string    `yaml:"input_format"`
	OutputFormat   string    `yaml:"output_format"`
	Workers        int       `yaml:"workers"`
	Total          int       `yaml:"total"`
	Successful     int       `yaml:"successful"`
	Failed         int       `yaml:"failed"`
	Abandoned      int       `yaml:"abandoned"`
	ElapsedSeconds float64   `yaml:"elapsed_seconds"`
	Interrupted    bool      `yaml:"interrupted"`
	Error          string    `yaml:"error,omitempty"`
	Files          []Entry   `yaml:"files"`
}

// Collector builds a Report from dispatcher notifications.
type Collector struct {
	mu     sync.Mutex
	report Report
}

// NewCollector starts from header, which carries the run identity and inputs.
func NewCollector(header Report) *Collector {
	header.Files = nil
	return &Collector{report: header}
}

func (c *Collector) TaskFinished(r batch.Result) {
	e := Entry{
		Source:     r.Task.Source,
		Output:     r.Task.Output,
		Status:     r.Status.String(),
		DurationMS: r.Duration.Milliseconds(),
	}
	if r.Err != nil {
		e.Error = r.Err.Error()
	}
	if r.OK() {
		e.InputBytes = r.InputSize
		e.OutputBytes = r.OutputSize
	}

	c.mu.Lock()
	c.report.Files = append(c.report.Files, e)
	c.mu.Unlock()
}

func (c *Collector) RunFinished(r batch.RunResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.report.Total = r.Total
	c.report.Successful = r.Successful
	c.report.Failed = r.Failed
	c.report.Abandoned = r.Abandoned
	c.report.ElapsedSeconds = r.Elapsed.Seconds()
	c.report.Interrupted = r.Interrupted
	if r.Err != nil {
		c.report.Error = r.Err.Error()
	}
}

// Report returns a copy with entries sorted by source path.
func (c *Collector) Report() Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.report
	out.Files = append([]Entry(nil), c.report.Files...)
	sort.Slice(out.Files, func(i, j int) bool {
		return out.Files[i].Source < out.Files[j].Source
	})
	return out
}

func (c *Collector) Write(path string) error {
	data, err := yaml.Marshal(c.Report())
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
