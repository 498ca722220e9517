package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. Services hold it
// optionally; every observer method is nil-safe.
type Metrics struct {
	RegistrationsCreated prometheus.Counter
	CapacityConflicts    prometheus.Counter
	TogglesRejected      prometheus.Counter
	CascadeDeselections  prometheus.Counter
	ArtifactsUploaded    prometheus.Counter
	StatusTransitions    *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		RegistrationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campreg_registrations_created_total",
			Help: "Registrations created via the wizard.",
		}),
		CapacityConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campreg_capacity_conflicts_total",
			Help: "Registration attempts refused because a camp was full.",
		}),
		TogglesRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campreg_camp_toggles_rejected_total",
			Help: "Camp selection toggles rejected by eligibility rules.",
		}),
		CascadeDeselections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campreg_cascade_deselections_total",
			Help: "Dependent camps auto-removed after a prerequisite was deselected.",
		}),
		ArtifactsUploaded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campreg_payment_artifacts_uploaded_total",
			Help: "Payment check images accepted for review.",
		}),
		StatusTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "campreg_registration_status_transitions_total",
			Help: "Registration status transitions by target status.",
		}, []string{"to"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "campreg_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
}

func (m *Metrics) IncRegistrationsCreated() {
	if m != nil {
		m.RegistrationsCreated.Inc()
	}
}

func (m *Metrics) IncCapacityConflicts() {
	if m != nil {
		m.CapacityConflicts.Inc()
	}
}

func (m *Metrics) IncTogglesRejected() {
	if m != nil {
		m.TogglesRejected.Inc()
	}
}

func (m *Metrics) AddCascadeDeselections(n int) {
	if m != nil && n > 0 {
		m.CascadeDeselections.Add(float64(n))
	}
}

func (m *Metrics) IncArtifactsUploaded() {
	if m != nil {
		m.ArtifactsUploaded.Inc()
	}
}

func (m *Metrics) IncStatusTransition(to string) {
	if m != nil {
		m.StatusTransitions.WithLabelValues(to).Inc()
	}
}
