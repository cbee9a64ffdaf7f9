package report_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"batimgcon/batch"
	"batimgcon/report"
)

func TestCollectorWritesYAML(t *testing.T) {
	c := report.NewCollector(report.Report{
		RunID:        "run-1",
		InputDir:     "/imgs",
		OutputDir:    "/out",
		InputFormat:  "png",
		OutputFormat: "avif",
		Workers:      2,
	})

	c.TaskFinished(batch.Result{
		Task:   batch.NewTask("/imgs/b.png", "/out", "png", "avif"),
		Status: batch.StatusFailed,
		Err:    errors.New("error decoding image: unexpected EOF"),
	})
	c.TaskFinished(batch.Result{
		Task:       batch.NewTask("/imgs/a.png", "/out", "png", "avif"),
		Status:     batch.StatusConverted,
		InputSize:  2048,
		OutputSize: 512,
		Duration:   1500 * time.Millisecond,
	})
	c.RunFinished(batch.RunResult{Total: 2, Successful: 1, Failed: 1, Elapsed: 2 * time.Second})

	path := filepath.Join(t.TempDir(), "report.yaml")
	if err := c.Write(path); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got report.Report
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("report is not valid YAML: %v\n%s", err, data)
	}

	if got.RunID != "run-1" || got.Total != 2 || got.Successful != 1 || got.Failed != 1 {
		t.Fatalf("unexpected header %+v", got)
	}
	if len(got.Files) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got.Files))
	}
	first, second := got.Files[0], got.Files[1]
	if first.Source != "/imgs/a.png" || first.Status != "converted" || first.DurationMS != 1500 {
		t.Fatalf("unexpected first entry %+v", first)
	}
	if second.Status != "failed" || second.Error == "" || second.OutputBytes != 0 {
		t.Fatalf("unexpected second entry %+v", second)
	}
}
