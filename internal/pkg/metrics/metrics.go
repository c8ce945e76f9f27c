package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics - counters and histograms for the complaint lifecycle.
// Registered once per process in the default registry.
type Metrics struct {
	Transitions            *prometheus.CounterVec
	Assignments            *prometheus.CounterVec
	Notifications          *prometheus.CounterVec
	JurisdictionCache      *prometheus.CounterVec
	HTTPRequestDuration    *prometheus.HistogramVec
	JurisdictionResolution prometheus.Histogram
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer is used by tests to avoid duplicate registration panics.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "complaints_transitions_total",
			Help: "Complaint status transitions by source, target and result",
		}, []string{"from", "to", "result"}),
		Assignments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "complaints_assignments_total",
			Help: "Assignment engine outcomes (assigned, unassigned)",
		}, []string{"result"}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "complaints_notifications_total",
			Help: "Notification publish and dispatch outcomes",
		}, []string{"stage", "result"}),
		JurisdictionCache: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "complaints_jurisdiction_cache_total",
			Help: "Jurisdiction cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "complaints_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),
		JurisdictionResolution: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "complaints_jurisdiction_resolution_seconds",
			Help:    "Duration of uncached jurisdiction resolution",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
	}
}

// NewNop - metrics bound to a throwaway registry
func NewNop() *Metrics {
	return NewWithRegisterer(prometheus.NewRegistry())
}

func (m *Metrics) IncTransition(from, to, result string) {
	m.Transitions.WithLabelValues(from, to, result).Inc()
}

func (m *Metrics) IncAssignment(result string) {
	m.Assignments.WithLabelValues(result).Inc()
}

func (m *Metrics) IncNotification(stage, result string) {
	m.Notifications.WithLabelValues(stage, result).Inc()
}

func (m *Metrics) IncJurisdictionCache(result string) {
	m.JurisdictionCache.WithLabelValues(result).Inc()
}

// ObserveResolution records the duration of a fresh jurisdiction resolution.
// Call with time.Now() taken at the start of the operation.
func (m *Metrics) ObserveResolution(start time.Time) {
	m.JurisdictionResolution.Observe(time.Since(start).Seconds())
}
