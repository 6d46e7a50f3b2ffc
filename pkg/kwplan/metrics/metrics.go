package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "kwplan"

// Recorder collects per-run pipeline counters on a private registry so
// batch runs can dump them to a node_exporter textfile. A nil *Recorder is
// valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	stageRecords *prometheus.GaugeVec
	dropped      *prometheus.CounterVec
	rows         *prometheus.CounterVec
	runDuration  prometheus.Gauge
	lastSuccess  prometheus.Gauge
	failures     *prometheus.CounterVec
}

// NewRecorder creates a recorder with all collectors registered
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stageRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_records",
			Help:      "Records remaining after each pipeline stage.",
		}, []string{"stage"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filtered_records_total",
			Help:      "Records dropped by the keyword filter, by reason.",
		}, []string{"reason"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "output_rows_total",
			Help:      "Result rows emitted, by match type.",
		}, []string{"match_type"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last pipeline run.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_failures_total",
			Help:      "Failed runs, by stage.",
		}, []string{"stage"}),
	}
	r.registry.MustRegister(r.stageRecords, r.dropped, r.rows, r.runDuration, r.lastSuccess, r.failures)
	return r
}

// Gatherer exposes the registry for tests and exporters
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Stage records how many records a stage left
func (r *Recorder) Stage(stage string, n int) {
	if r == nil {
		return
	}
	r.stageRecords.WithLabelValues(stage).Set(float64(n))
}

// Dropped counts records removed for a reason
func (r *Recorder) Dropped(reason string, n int) {
	if r == nil || n == 0 {
		return
	}
	r.dropped.WithLabelValues(reason).Add(float64(n))
}

// Row counts one emitted row
func (r *Recorder) Row(matchType string) {
	if r == nil {
		return
	}
	r.rows.WithLabelValues(matchType).Inc()
}

// Finish records the outcome of a run. stage is empty on success.
func (r *Recorder) Finish(start time.Time, failedStage string) {
	if r == nil {
		return
	}
	r.runDuration.Set(time.Since(start).Seconds())
	if failedStage != "" {
		r.failures.WithLabelValues(failedStage).Inc()
		return
	}
	r.lastSuccess.SetToCurrentTime()
}

// WriteTextfile writes the registry in text exposition format
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
