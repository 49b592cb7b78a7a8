package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stemsi/scholardist/internal/model"
)

const namespace = "scholardist"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	applications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "applications_total",
			Help:      "Application submissions by result.",
		},
		[]string{"result"},
	)

	selectionRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "selection_runs_total",
			Help:      "Selection runs by outcome.",
		},
		[]string{"outcome"},
	)

	selectionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "selection_run_duration_seconds",
			Help:      "Duration of selection runs including disbursement.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
	)

	payouts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "payouts_total",
			Help:      "Winners paid.",
		},
	)

	payoutAmount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "payout_amount_total",
			Help:      "Value disbursed, in the smallest currency unit.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		applications,
		selectionRuns,
		selectionDuration,
		payouts,
		payoutAmount,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// HTTPStarted marks a request as in flight and returns the completion hook.
func HTTPStarted() func(method, route string, status int, elapsed time.Duration) {
	httpInFlight.Inc()
	return func(method, route string, status int, elapsed time.Duration) {
		httpInFlight.Dec()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(method, route, statusClass(status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// RecordApplication counts an application submission. result is "accepted"
// or the rejection code.
func RecordApplication(result string) {
	applications.WithLabelValues(result).Inc()
}

// RecordSelection records a finished selection run.
func RecordSelection(rep *model.Report, duration time.Duration) {
	selectionRuns.WithLabelValues(string(rep.Outcome)).Inc()
	selectionDuration.Observe(duration.Seconds())
	payouts.Add(float64(len(rep.Paid)))
	payoutAmount.Add(float64(rep.AmountDisbursed))
}
