// Package metrics exposes Prometheus collectors for the portal API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portal_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Business metrics
	roleResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_role_resolutions_total",
			Help: "Role resolutions by resolved kind; kind is \"none\" when no record matched",
		},
		[]string{"kind"},
	)

	roleConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_role_conflicts_total",
			Help: "Principals found in more than one role collection, by winning kind",
		},
		[]string{"kind"},
	)

	provisioningSteps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_provisioning_steps_total",
			Help: "Provisioning workflow steps by entity, step and outcome",
		},
		[]string{"entity", "step", "outcome"},
	)

	provisioningCompensations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_provisioning_compensations_total",
			Help: "Compensating actions run after a failed provisioning step",
		},
		[]string{"entity", "step", "outcome"},
	)

	upstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_upstream_request_duration_seconds",
			Help:    "Outbound request duration by upstream and outcome",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"upstream", "outcome"},
	)
)

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency labelled by the matched
// route template, which keeps label cardinality bounded.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			httpRequestsInFlight.Inc()
			defer httpRequestsInFlight.Dec()

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			} else if err != nil {
				status = http.StatusInternalServerError
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			httpRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// RecordRoleResolution counts one resolver outcome.
func RecordRoleResolution(kind string) {
	if kind == "" {
		kind = "none"
	}
	roleResolutions.WithLabelValues(kind).Inc()
}

// RecordRoleConflict counts a principal present in several role collections.
func RecordRoleConflict(winner string) {
	roleConflicts.WithLabelValues(winner).Inc()
}

// RecordProvisioningStep counts a workflow step outcome ("ok" or "error").
func RecordProvisioningStep(entity, step string, err error) {
	provisioningSteps.WithLabelValues(entity, step, outcome(err)).Inc()
}

// RecordProvisioningRollback counts a step that completed inside a
// transaction that was later rolled back.
func RecordProvisioningRollback(entity, step string) {
	provisioningSteps.WithLabelValues(entity, step, "rolled_back").Inc()
}

// RecordCompensation counts a compensating delete after a failed step.
func RecordCompensation(entity, step string, err error) {
	provisioningCompensations.WithLabelValues(entity, step, outcome(err)).Inc()
}

// ObserveUpstream records the latency of a call to an external collaborator.
func ObserveUpstream(upstream string, start time.Time, err error) {
	upstreamDuration.WithLabelValues(upstream, outcome(err)).Observe(time.Since(start).Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
