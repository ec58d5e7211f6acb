// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Response Helpers
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteBadRequest(w, "invalid interval")
//	httputil.WriteBadGateway(w, err) // upstream search failure
//
// Every error body has the shape {"error": "..."}.
//
// # Request Parsing
//
//	limit, err := httputil.ParseQueryInt(r, "limit", 10)
//	start, end, err := httputil.ParseTimeRange(r) // ?start=...&end=...
//	id, ok := httputil.ParsePathStringOrError(w, r, "id")
//
// # Middleware
//
//	handler := httputil.Chain(
//		httputil.RequestIDMiddleware(logger),
//		httputil.RecoveryMiddleware,
//		httputil.LoggingMiddleware,
//	)(router)
package httputil
