// Package api exposes the dashboard analytics over HTTP.
//
// # Routes
//
//	GET /api/v1/events/counts      ?start&end&event_name&type&interval
//	GET /api/v1/users/{id}/events  ?start&end&event_name&page_token&page_size
//	GET /api/v1/errors/summary     ?start&end&interval
//	GET /api/v1/paths              ?start&end&limit
//	GET /api/v1/gauges             ?start&end
//	GET /api/v1/gauges/snapshot
//	GET /api/v1/gauges/{name}      ?start&end
//	GET /api/v1/kpi/targets
//	GET /health, /health/live, /health/ready
//	GET /metrics
//
// Times are RFC 3339 timestamps or YYYY-MM-DD dates. Invalid parameters are
// answered with 400, search failures with 502 and every error body has the
// shape {"error": "..."}.
//
// Gauges never fail a request: a gauge that could not be computed is
// reported with a zero value and an "Error: ..." description.
//
// # Usage
//
//	handler := api.NewRouter(api.RouterConfig{
//		Analytics: analyticsService,
//		Board:     board,
//		Targets:   kpiService,
//		Health:    checker,
//		Registry:  registry,
//		Metrics:   metrics,
//		Logger:    logger,
//	})
package api
