package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "opsboard"

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	requestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed.",
		},
	)

	googleCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "google_api_calls_total",
			Help:      "Calls made to Google APIs by api, operation and outcome.",
		},
		[]string{"api", "op", "outcome"},
	)

	cellsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheet_cells_written_total",
			Help:      "Cells submitted in values:batchUpdate requests.",
		},
	)

	writeSkips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheet_write_skips_total",
			Help:      "Requested writes that could not be resolved to a cell.",
		},
		[]string{"reason"},
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 open, 2 half-open).",
		},
		[]string{"name"},
	)

	conflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pending_write_conflicts_total",
			Help:      "Optimistic writes whose value differed on the next read.",
		},
		[]string{"table"},
	)
)

// ObserveGoogleCall counts one call to a Google API.
func ObserveGoogleCall(api, op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	googleCalls.WithLabelValues(api, op, outcome).Inc()
}

func AddCellsWritten(n int) {
	cellsWritten.Add(float64(n))
}

// AddWriteSkips counts skipped writes; reason is one of unmatched_key,
// ambiguous_key or unknown_column.
func AddWriteSkips(reason string, n int) {
	if n > 0 {
		writeSkips.WithLabelValues(reason).Add(float64(n))
	}
}

func SetBreakerState(name string, state int) {
	breakerState.WithLabelValues(name).Set(float64(state))
}

func AddConflicts(table string, n int) {
	if n > 0 {
		conflicts.WithLabelValues(table).Add(float64(n))
	}
}

// Metrics is an HTTP middleware that records request count, duration and in-flight gauge.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestsInFlight.Inc()
		defer requestsInFlight.Dec()

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := strconv.Itoa(sw.status)
		requestsTotal.WithLabelValues(r.Method, route, status).Inc()
		requestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
