package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "xcreport"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	lines            prom.Counter
	events           *prom.CounterVec
	buildOutcome     *prom.CounterVec
	actionsCompleted prom.Counter
	diagnostics      *prom.CounterVec
	chunks           *prom.CounterVec
	runDuration      prom.Histogram
	activeRuns       prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them on reg. A nil reg
// gets a private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		lines: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "lines_total",
			Help:      "Console lines fed to the translator",
		}),
		events: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Translated events by kind",
		}, []string{"kind"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Finished builds by final status",
		}, []string{"outcome"}),
		actionsCompleted: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "actions_completed_total",
			Help:      "Build actions closed by a later action or the result banner",
		}),
		diagnostics: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Diagnostics attached to actions by severity",
		}, []string{"severity"}),
		chunks: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "log_chunks_total",
			Help:      "Log chunks consumed by the ingest agent by result",
		}, []string{"result"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Time from the first chunk of a run to its report",
			Buckets:   prom.DefBuckets,
		}),
		activeRuns: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "active_runs",
			Help:      "Runs with an open session in the ingest agent",
		}),
	}
	reg.MustRegister(pr.lines, pr.events, pr.buildOutcome, pr.actionsCompleted, pr.diagnostics, pr.chunks, pr.runDuration, pr.activeRuns)
	return pr
}

func (p *PrometheusRecorder) IncLines(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.lines.Add(float64(n))
}

func (p *PrometheusRecorder) IncEvent(kind string) {
	if p == nil {
		return
	}
	p.events.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncActionsCompleted() {
	if p == nil {
		return
	}
	p.actionsCompleted.Inc()
}

func (p *PrometheusRecorder) IncDiagnostic(severity string) {
	if p == nil {
		return
	}
	p.diagnostics.WithLabelValues(severity).Inc()
}

func (p *PrometheusRecorder) IncChunk(result ChunkResult) {
	if p == nil {
		return
	}
	p.chunks.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetActiveRuns(n int) {
	if p == nil {
		return
	}
	p.activeRuns.Set(float64(n))
}
