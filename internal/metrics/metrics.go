// Package metrics exposes Prometheus collectors for the HTTP API and the
// scheduler.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Schedule outcomes used as the "outcome" label.
const (
	OutcomeOK         = "ok"
	OutcomeCycle      = "cycle"
	OutcomeUnresolved = "unresolved"
	OutcomeError      = "error"
)

// Metrics holds all Prometheus metrics for projectflow
type Metrics struct {
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	Schedules      *prometheus.CounterVec
	ScheduleTasks  prometheus.Histogram
	CyclesDetected prometheus.Counter

	// Errors counts coded errors by component.
	Errors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "projectflow_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "projectflow_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Schedules: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "projectflow_schedules_total",
				Help: "Total number of schedule computations by outcome",
			},
			[]string{"outcome"},
		),
		ScheduleTasks: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "projectflow_schedule_tasks",
				Help:    "Number of tasks per schedule computation",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 1000},
			},
		),
		CyclesDetected: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "projectflow_cycles_detected_total",
				Help: "Total number of dependency cycles detected",
			},
		),
		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "projectflow_errors_total",
				Help: "Total number of errors by error code",
			},
			[]string{"error_code", "component"},
		),
	}
}

// ObserveSchedule records one schedule computation over n tasks.
func (m *Metrics) ObserveSchedule(outcome string, n int) {
	if m == nil {
		return
	}
	m.Schedules.WithLabelValues(outcome).Inc()
	m.ScheduleTasks.Observe(float64(n))
	if outcome == OutcomeCycle {
		m.CyclesDetected.Inc()
	}
}

// ObserveError counts a coded error.
func (m *Metrics) ObserveError(code, component string) {
	if m == nil || code == "" {
		return
	}
	m.Errors.WithLabelValues(code, component).Inc()
}

// ObserveRequest records one served HTTP request. route is the registered
// pattern, not the raw path.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
