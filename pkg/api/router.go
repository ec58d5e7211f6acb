package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/eventdash/pkg/httputil"
	"github.com/platinummonkey/eventdash/pkg/middleware"
	"github.com/platinummonkey/eventdash/pkg/observability"
)

// RouterConfig wires the services behind the API. Only Analytics and Board
// are required.
type RouterConfig struct {
	Analytics EventRepository
	Board     GaugeBoard
	Targets   TargetSource
	Snapshots SnapshotReader
	Health    *observability.HealthChecker
	Registry  *prometheus.Registry
	Metrics   *observability.Metrics
	Logger    *logrus.Logger

	// RateLimiter limits requests per client IP when set
	RateLimiter    middleware.Limiter
	// TrustedProxies may report the client IP through forwarding headers
	TrustedProxies middleware.TrustedProxies
	// CORSOrigins enables CORS for the listed origins ("*" for any)
	CORSOrigins    []string
	// ServiceName names the server spans; tracing is off when empty
	ServiceName    string
}

// NewRouter builds the HTTP handler for the API
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteNotFound(w, "route not found")
	})

	NewAnalyticsHandlers(cfg.Analytics).RegisterRoutes(router)
	NewGaugeHandlers(cfg.Board, cfg.Targets, cfg.Snapshots).RegisterRoutes(router)

	if cfg.Health != nil {
		observability.RegisterHealthRoutes(router, cfg.Health)
	}
	if cfg.Registry != nil {
		router.Handle("/metrics", observability.MetricsHandler(cfg.Registry)).Methods(http.MethodGet)
	}
	if cfg.Metrics != nil {
		// route middleware runs after matching, so the template is known
		router.Use(observability.HTTPMetricsMiddleware(cfg.Metrics, routeTemplate))
	}

	middlewares := []func(http.Handler) http.Handler{
		httputil.RequestIDMiddleware(cfg.Logger),
		httputil.RecoveryMiddleware,
		httputil.LoggingMiddleware,
	}
	if cfg.RateLimiter != nil {
		middlewares = append(middlewares, middleware.RateLimit(cfg.RateLimiter, cfg.TrustedProxies, cfg.Logger))
	}
	if len(cfg.CORSOrigins) > 0 {
		middlewares = append(middlewares, httputil.CORSMiddleware(cfg.CORSOrigins))
	}
	handler := httputil.Chain(middlewares...)(router)

	if cfg.ServiceName != "" {
		handler = otelhttp.NewHandler(handler, cfg.ServiceName)
	}
	return handler
}

// routeTemplate labels requests by route template to bound cardinality
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}
