// Package observability provides structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// # Overview
//
// This package centralizes the ambient infrastructure shared by the API
// server and the snapshot job: logrus loggers, the eventdash_* metric set,
// health checks, OTLP export and graceful shutdown.
//
// # Structured Logging
//
//	logger := observability.NewLogger("info", "json", os.Stdout)
//	ctx = observability.WithLogger(ctx, logger)
//	observability.FromContext(ctx).WithField("gauge", name).Info("gauge computed")
//
// FromContext attaches request_id and, when a span is active, trace_id and span_id.
//
// # Prometheus Metrics
//
//	metrics := observability.NewMetrics(registry)
//	metrics.ObserveSearch("event_counts", elapsed, err)
//	metrics.ObserveGauge("active_chat_users", value, elapsed, false)
//
// # Health Checks
//
// The search cluster is required for readiness. Redis only degrades it.
//
//	checker := observability.NewHealthChecker(searchClient, redisClient, version)
//	observability.RegisterHealthRoutes(router, checker)
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "eventdash",
//	}, logger, observability.ComponentKey.String("api"))
//	defer observability.ShutdownOTel(ctx, providers, logger)
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/httputil: Request ID and logging middleware
package observability
