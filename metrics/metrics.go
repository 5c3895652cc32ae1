// Package metrics holds the Prometheus metrics for mailscout.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the finder and its HTTP
// surface. A nil *Metrics is valid and records nothing, so the library
// can run without a registry.
type Metrics struct {
	ValidationsTotal *prometheus.CounterVec
	ProbeErrorsTotal prometheus.Counter
	CatchAllDetected prometheus.Counter
	FindRunsTotal    prometheus.Counter
}

// New creates and registers all metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ValidationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mailscout_validations_total",
			Help: "Address validations by outcome (accepted or rejected).",
		}, []string{"outcome"}),
		ProbeErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "mailscout_probe_errors_total",
			Help: "SMTP probes that ended in a transport or protocol error.",
		}),
		CatchAllDetected: factory.NewCounter(prometheus.CounterOpts{
			Name: "mailscout_catch_all_detected_total",
			Help: "Domains detected as catch-all.",
		}),
		FindRunsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "mailscout_find_runs_total",
			Help: "Complete finder runs.",
		}),
	}
}

// ObserveValidation records one validation outcome.
func (m *Metrics) ObserveValidation(accepted bool) {
	if m == nil {
		return
	}
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	m.ValidationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveProbeError records one inconclusive probe.
func (m *Metrics) ObserveProbeError() {
	if m == nil {
		return
	}
	m.ProbeErrorsTotal.Inc()
}

// ObserveCatchAll records one catch-all detection.
func (m *Metrics) ObserveCatchAll() {
	if m == nil {
		return
	}
	m.CatchAllDetected.Inc()
}

// ObserveFindRun records one completed finder run.
func (m *Metrics) ObserveFindRun() {
	if m == nil {
		return
	}
	m.FindRunsTotal.Inc()
}
