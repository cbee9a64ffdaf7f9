// Package metrics records conversion outcomes in a Prometheus registry that
// can be dumped for node_exporter's textfile collector after a run.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"batimgcon/batch"
)

const namespace = "batimgcon"

type Metrics struct {
	Registry *prometheus.Registry

	conversions *prometheus.CounterVec
	bytes       *prometheus.CounterVec
	duration    prometheus.Histogram
	files       prometheus.Gauge
	elapsed     prometheus.Gauge
	interrupted prometheus.Gauge
	lastRun     prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		conversions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Conversion tasks by final status.",
		}, []string{"status"}),
		bytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "converted_bytes_total",
			Help:      "Bytes read from sources and written to outputs of converted files.",
		}, []string{"direction"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_duration_seconds",
			Help:      "Wall-clock time of a single file conversion.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
		files: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_files",
			Help:      "Files matched by the last run.",
		}),
		elapsed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_elapsed_seconds",
			Help:      "Wall-clock duration of the last run.",
		}),
		interrupted: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_interrupted",
			Help:      "1 if the last run was stopped by an interrupt.",
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}
}

func (m *Metrics) TaskFinished(r batch.Result) {
	m.conversions.WithLabelValues(r.Status.String()).Inc()
	if r.Status == batch.StatusAbandoned {
		return
	}
	m.duration.Observe(r.Duration.Seconds())
	if r.OK() {
		m.bytes.WithLabelValues("in").Add(float64(r.InputSize))
		m.bytes.WithLabelValues("out").Add(float64(r.OutputSize))
	}
}

func (m *Metrics) RunFinished(r batch.RunResult) {
	m.files.Set(float64(r.Total))
	m.elapsed.Set(r.Elapsed.Seconds())
	if r.Interrupted {
		m.interrupted.Set(1)
	} else {
		m.interrupted.Set(0)
	}
	m.lastRun.SetToCurrentTime()
}

// WriteTextfile writes the registry in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
