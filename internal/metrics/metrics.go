package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes recorded by the relay and the uploader.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics groups the collectors exported on /metrics.
type Metrics struct {
	Sessions prometheus.Gauge
	Events   *prometheus.CounterVec
	Uploads  *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chat",
			Subsystem: "relay",
			Name:      "sessions",
			Help:      "Number of live socket sessions.",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chat",
			Subsystem: "relay",
			Name:      "events_total",
			Help:      "Inbound relay events by name and outcome.",
		}, []string{"event", "outcome"}),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chat",
			Subsystem: "blob",
			Name:      "uploads_total",
			Help:      "Blob uploads by profile and outcome.",
		}, []string{"profile", "outcome"}),
	}
	reg.MustRegister(m.Sessions, m.Events, m.Uploads)
	return m
}
