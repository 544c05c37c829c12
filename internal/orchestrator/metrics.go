package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the orchestrator.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	RunsTotal           *prometheus.CounterVec
	TasksTotal          *prometheus.CounterVec
	TaskDuration        *prometheus.HistogramVec
	RateLimitRejections *prometheus.CounterVec
	DegradedRoutings    *prometheus.CounterVec
	TasksInFlight       prometheus.Gauge
}

// NewMetrics creates the orchestrator collectors and registers them with reg.
//
// Metrics:
//   - designorch_runs_total{outcome} - runs by success or failure
//   - designorch_tasks_total{category,outcome} - tasks by terminal outcome
//   - designorch_task_duration_seconds{category} - task wall time
//   - designorch_rate_limit_rejections_total{provider} - admission rejections
//   - designorch_degraded_routings_total{category} - capability-mismatched routings
//   - designorch_tasks_in_flight - tasks holding a gate permit
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "designorch_runs_total",
				Help: "Total number of orchestration runs",
			},
			[]string{"outcome"}, // "success" or "failure"
		),
		TasksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "designorch_tasks_total",
				Help: "Total number of executed tasks by terminal outcome",
			},
			[]string{"category", "outcome"},
		),
		TaskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "designorch_task_duration_seconds",
				Help:    "Duration of task execution in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
			},
			[]string{"category"},
		),
		RateLimitRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "designorch_rate_limit_rejections_total",
				Help: "Total number of tasks rejected by a provider rate limiter",
			},
			[]string{"provider"},
		),
		DegradedRoutings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "designorch_degraded_routings_total",
				Help: "Total number of tasks routed to a provider lacking the category capability",
			},
			[]string{"category"},
		),
		TasksInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "designorch_tasks_in_flight",
				Help: "Number of tasks currently holding a concurrency permit",
			},
		),
	}
}

func (m *Metrics) recordRun(success bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) recordTask(o *Outcome) {
	if m == nil {
		return
	}
	category := o.Task.Category.String()
	outcome := "succeeded"
	if o.Err != nil {
		outcome = o.Err.Kind.String()
	}
	m.TasksTotal.WithLabelValues(category, outcome).Inc()
	m.TaskDuration.WithLabelValues(category).Observe(o.Duration.Seconds())
}

func (m *Metrics) recordRateLimited(provider string) {
	if m == nil {
		return
	}
	m.RateLimitRejections.WithLabelValues(provider).Inc()
}

func (m *Metrics) recordDegraded(category string) {
	if m == nil {
		return
	}
	m.DegradedRoutings.WithLabelValues(category).Inc()
}

func (m *Metrics) inFlight(delta float64) {
	if m == nil {
		return
	}
	m.TasksInFlight.Add(delta)
}
