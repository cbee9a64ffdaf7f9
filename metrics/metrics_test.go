package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"batimgcon/batch"
)

func TestMetricsRecordRun(t *testing.T) {
	m := New()

	m.TaskFinished(batch.Result{Status: batch.StatusConverted, InputSize: 100, OutputSize: 40, Duration: 50 * time.Millisecond})
	m.TaskFinished(batch.Result{Status: batch.StatusConverted, InputSize: 10, OutputSize: 5, Duration: 20 * time.Millisecond})
	m.TaskFinished(batch.Result{Status: batch.StatusFailed, Err: errors.New("corrupt"), Duration: time.Millisecond})
	m.TaskFinished(batch.Result{Status: batch.StatusAbandoned})
	m.RunFinished(batch.RunResult{Total: 4, Successful: 2, Failed: 1, Abandoned: 1, Elapsed: 3 * time.Second, Interrupted: true})

	if got := testutil.ToFloat64(m.conversions.WithLabelValues("converted")); got != 2 {
		t.Fatalf("converted = %v", got)
	}
	if got := testutil.ToFloat64(m.conversions.WithLabelValues("failed")); got != 1 {
		t.Fatalf("failed = %v", got)
	}
	if got := testutil.ToFloat64(m.conversions.WithLabelValues("abandoned")); got != 1 {
		t.Fatalf("abandoned = %v", got)
	}
	if got := testutil.ToFloat64(m.bytes.WithLabelValues("in")); got != 110 {
		t.Fatalf("bytes in = %v", got)
	}
	if got := testutil.ToFloat64(m.files); got != 4 {
		t.Fatalf("files = %v", got)
	}
	if got := testutil.ToFloat64(m.interrupted); got != 1 {
		t.Fatalf("interrupted = %v", got)
	}
	if got := testutil.CollectAndCount(m.duration); got != 1 {
		t.Fatalf("duration collectors = %d", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.TaskFinished(batch.Result{Status: batch.StatusConverted})
	m.RunFinished(batch.RunResult{Total: 1, Successful: 1})

	path := filepath.Join(t.TempDir(), "batimgcon.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`batimgcon_conversions_total{status="converted"} 1`,
		"batimgcon_run_files 1",
		"batimgcon_conversion_duration_seconds_count 1",
	} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("textfile missing %q:\n%s", want, data)
		}
	}
}
