// Package metrics holds the storefront's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MirrorTasks counts best-effort backend mirror writes by operation and outcome.
	MirrorTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_mirror_tasks_total",
			Help: "Background cart/wishlist mirror writes by operation and result.",
		},
		[]string{"op", "result"},
	)

	// ReconcileRuns counts guest-to-server reconciliation runs.
	ReconcileRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_reconcile_runs_total",
			Help: "Wishlist/cart reconciliation runs by result (ok, error, skipped).",
		},
		[]string{"result"},
	)

	// HTTPRequests counts BFF requests by route pattern and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "BFF HTTP requests by route pattern and status code.",
		},
		[]string{"route", "status"},
	)

	// BreakerState is 0 closed, 1 half-open, 2 open.
	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "storefront_backend_breaker_state",
			Help: "Backend circuit breaker state (0=closed, 1=half-open, 2=open).",
		},
		[]string{"name"},
	)

	// ActiveSessions is the number of sessions held in memory.
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_active_sessions",
		Help: "Sessions currently held in memory.",
	})
)

// Registry holds every storefront collector plus the Go runtime collectors.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		MirrorTasks,
		ReconcileRuns,
		HTTPRequests,
		BreakerState,
		ActiveSessions,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
