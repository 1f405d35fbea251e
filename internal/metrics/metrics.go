package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "contentstudio"
	subsystem = "pipeline"

	// Labels
	stageLabel   = "stage"
	kindLabel    = "kind"
	outcomeLabel = "outcome"
)

// Pipeline holds the collectors describing pipeline runs. A nil *Pipeline is
// valid and records nothing.
type Pipeline struct {
	runs     *prometheus.CounterVec
	failures *prometheus.CounterVec
	stages   *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

func NewPipeline() *Pipeline {
	return &Pipeline{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "runs_total",
			Help:      "Number of finished pipeline runs partitioned by outcome.",
		}, []string{outcomeLabel}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "failures_total",
			Help:      "Number of failed pipeline runs partitioned by error kind.",
		}, []string{kindLabel}),
		stages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage.",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{stageLabel}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "runs_in_flight",
			Help:      "Number of pipeline runs currently executing.",
		}),
	}
}

// Collectors returns the collectors for registration.
func (p *Pipeline) Collectors() []prometheus.Collector {
	return []prometheus.Collector{p.runs, p.failures, p.stages, p.inFlight}
}

func (p *Pipeline) RunStarted() {
	if p == nil {
		return
	}
	p.inFlight.Inc()
}

func (p *Pipeline) RunSucceeded() {
	if p == nil {
		return
	}
	p.inFlight.Dec()
	p.runs.With(prometheus.Labels{outcomeLabel: "ready"}).Inc()
}

func (p *Pipeline) RunFailed(kind string) {
	if p == nil {
		return
	}
	p.inFlight.Dec()
	p.runs.With(prometheus.Labels{outcomeLabel: "failed"}).Inc()
	p.failures.With(prometheus.Labels{kindLabel: kind}).Inc()
}

func (p *Pipeline) ObserveStage(stage string, elapsed time.Duration) {
	if p == nil {
		return
	}
	p.stages.With(prometheus.Labels{stageLabel: stage}).Observe(elapsed.Seconds())
}

// NewRegistry returns a registry holding the Go runtime and process
// collectors plus cs.
func NewRegistry(cs ...prometheus.Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(cs...)
	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
