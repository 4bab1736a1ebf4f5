package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the client core.
type Metrics struct {
	// Tenant resolution
	TenantResolutions *prometheus.CounterVec // labeled by resulting mode
	TenantFallbacks   prometheus.Counter     // resolutions that failed open

	// Session
	Logins       prometheus.Counter
	SessionDrops prometheus.Counter // cleared by logout or 401

	// Donation workflow
	DonationsInitiated prometheus.Counter
	DonationOutcomes   *prometheus.CounterVec // labeled by terminal state reason

	// Gateway
	RequestLatency *prometheus.HistogramVec // labeled by endpoint
}

// New creates and registers all Prometheus metrics on reg. Passing a fresh
// registry keeps test suites from colliding on duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TenantResolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "seva_tenant_resolutions_total",
			Help: "Total tenant resolutions, labeled by resulting mode",
		}, []string{"mode"}),
		TenantFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "seva_tenant_resolution_fallbacks_total",
			Help: "Total tenant resolutions that failed open to marketplace",
		}),
		Logins: factory.NewCounter(prometheus.CounterOpts{
			Name: "seva_logins_total",
			Help: "Total successful logins",
		}),
		SessionDrops: factory.NewCounter(prometheus.CounterOpts{
			Name: "seva_session_drops_total",
			Help: "Total sessions cleared by logout or an unauthorized response",
		}),
		DonationsInitiated: factory.NewCounter(prometheus.CounterOpts{
			Name: "seva_donations_initiated_total",
			Help: "Total donation attempts that reached the initiate call",
		}),
		DonationOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "seva_donation_outcomes_total",
			Help: "Total terminal donation outcomes, labeled by outcome",
		}, []string{"outcome"}),
		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "seva_api_request_latency_seconds",
			Help:    "Latency of platform API requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}
