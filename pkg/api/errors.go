package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/platinummonkey/eventdash/pkg/analytics"
	"github.com/platinummonkey/eventdash/pkg/httputil"
	"github.com/platinummonkey/eventdash/pkg/observability"
)

// writeError maps a service error to a status code. Validation failures are
// the caller's fault; everything else is an upstream failure.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, analytics.ErrInvalidRequest):
		httputil.WriteBadRequest(w, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		observability.FromContext(r.Context()).WithError(err).Warn("Search timed out")
		httputil.WriteError(w, http.StatusGatewayTimeout, err)
	default:
		observability.FromContext(r.Context()).WithError(err).Error("Search failed")
		httputil.WriteBadGateway(w, err)
	}
}
