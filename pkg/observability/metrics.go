package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Search cluster metrics
	SearchRequestsTotal   *prometheus.CounterVec
	SearchRequestDuration *prometheus.HistogramVec
	SearchRetriesTotal    *prometheus.CounterVec

	// Gauge metrics
	GaugeValue       *prometheus.GaugeVec
	GaugeErrorsTotal *prometheus.CounterVec
	GaugeDuration    *prometheus.HistogramVec

	// External API metrics (identity provider, spreadsheets)
	ExternalRequestsTotal *prometheus.CounterVec

	// Snapshot metrics
	SnapshotsTotal        *prometheus.CounterVec
	SnapshotLastSuccessTS prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventdash_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eventdash_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eventdash_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),

		SearchRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventdash_search_requests_total",
				Help: "Total number of search requests by operation and outcome",
			},
			[]string{"operation", "status"},
		),
		SearchRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eventdash_search_request_duration_seconds",
				Help:    "Search request duration in seconds, including retries",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		),
		SearchRetriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventdash_search_retries_total",
				Help: "Total number of search retries after transient failures",
			},
			[]string{"operation"},
		),

		GaugeValue: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "eventdash_gauge_value",
				Help: "Last computed value of each dashboard gauge",
			},
			[]string{"gauge"},
		),
		GaugeErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventdash_gauge_errors_total",
				Help: "Total number of failed gauge computations",
			},
			[]string{"gauge"},
		),
		GaugeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eventdash_gauge_duration_seconds",
				Help:    "Gauge computation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"gauge"},
		),

		ExternalRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventdash_external_requests_total",
				Help: "Total number of requests to external APIs",
			},
			[]string{"service", "status"},
		),

		SnapshotsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventdash_snapshots_total",
				Help: "Total number of dashboard snapshot runs",
			},
			[]string{"status"},
		),
		SnapshotLastSuccessTS: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "eventdash_snapshot_last_success_timestamp_seconds",
				Help: "Unix time of the last successful snapshot",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.SearchRequestsTotal,
		m.SearchRequestDuration,
		m.SearchRetriesTotal,
		m.GaugeValue,
		m.GaugeErrorsTotal,
		m.GaugeDuration,
		m.ExternalRequestsTotal,
		m.SnapshotsTotal,
		m.SnapshotLastSuccessTS,
	)

	return m
}

// ObserveSearch records the outcome of one logical search call
func (m *Metrics) ObserveSearch(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.SearchRequestsTotal.WithLabelValues(operation, status).Inc()
	m.SearchRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveRetry counts a retried search attempt
func (m *Metrics) ObserveRetry(operation string) {
	if m == nil {
		return
	}
	m.SearchRetriesTotal.WithLabelValues(operation).Inc()
}

// ObserveGauge records a gauge computation
func (m *Metrics) ObserveGauge(name string, value int64, duration time.Duration, failed bool) {
	if m == nil {
		return
	}
	if failed {
		m.GaugeErrorsTotal.WithLabelValues(name).Inc()
	}
	m.GaugeValue.WithLabelValues(name).Set(float64(value))
	m.GaugeDuration.WithLabelValues(name).Observe(duration.Seconds())
}

// ObserveExternal counts a call to an external API
func (m *Metrics) ObserveExternal(service string, statusCode int, err error) {
	if m == nil {
		return
	}
	status := strconv.Itoa(statusCode)
	if err != nil && statusCode == 0 {
		status = "error"
	}
	m.ExternalRequestsTotal.WithLabelValues(service, status).Inc()
}

// ObserveSnapshot records a snapshot run
func (m *Metrics) ObserveSnapshot(at time.Time, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.SnapshotsTotal.WithLabelValues("error").Inc()
		return
	}
	m.SnapshotsTotal.WithLabelValues("success").Inc()
	m.SnapshotLastSuccessTS.Set(float64(at.Unix()))
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics.
// routeName maps a request to a low-cardinality path label.
func HTTPMetricsMiddleware(metrics *Metrics, routeName func(*http.Request) string) func(http.Handler) http.Handler {
	if routeName == nil {
		routeName = func(r *http.Request) string { return r.URL.Path }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			path := routeName(r)
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
			metrics.HTTPResponseSize.WithLabelValues(r.Method, path).Observe(float64(rw.bytesWritten))
		})
	}
}

// MetricsHandler serves the registry in the Prometheus exposition format
func MetricsHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
