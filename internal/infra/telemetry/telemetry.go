package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Provider holds workflow metric collectors.
type Provider struct {
	outcomes *prometheus.CounterVec
}

// Attach registers workflow collectors with the default registerer.
func Attach() *Provider {
	outcomes := promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gate",
		Name:      "registrations_total",
		Help:      "Total registrations partitioned by workflow outcome.",
	}, []string{"outcome"})

	return &Provider{outcomes: outcomes}
}

// Observe counts a workflow outcome (submitted, approved, rejected).
func (p *Provider) Observe(outcome string) {
	if p == nil || p.outcomes == nil {
		return
	}
	p.outcomes.WithLabelValues(outcome).Inc()
}
