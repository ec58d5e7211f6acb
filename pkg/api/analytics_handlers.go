package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/eventdash/pkg/analytics"
	"github.com/platinummonkey/eventdash/pkg/httputil"
	"github.com/platinummonkey/eventdash/pkg/querybuilder"
)

// EventRepository answers the event queries behind the dashboard charts
type EventRepository interface {
	EventCounts(ctx context.Context, req analytics.EventCountsRequest) ([]analytics.TimeBucket, error)
	UserEvents(ctx context.Context, req analytics.UserEventsRequest) (*analytics.UserEventsPage, error)
	ErrorSummary(ctx context.Context, req analytics.ErrorSummaryRequest) (*analytics.ErrorSummary, error)
	PathAnalytics(ctx context.Context, req analytics.PathAnalyticsRequest) ([]analytics.PathStats, error)
}

// AnalyticsHandlers provides event analytics endpoints
type AnalyticsHandlers struct {
	repo EventRepository
}

// NewAnalyticsHandlers creates a new analytics handlers instance
func NewAnalyticsHandlers(repo EventRepository) *AnalyticsHandlers {
	return &AnalyticsHandlers{repo: repo}
}

// RegisterRoutes registers analytics API routes
func (h *AnalyticsHandlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/events/counts", h.getEventCounts).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/users/{id}/events", h.getUserEvents).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/errors/summary", h.getErrorSummary).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/paths", h.getPaths).Methods(http.MethodGet)
}

// requiredRange parses start and end, both of which must be present
func requiredRange(w http.ResponseWriter, r *http.Request) (querybuilder.TimeRange, bool) {
	start, end, err := httputil.ParseTimeRange(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return querybuilder.TimeRange{}, false
	}
	if start == nil || end == nil {
		httputil.WriteBadRequest(w, "start and end are required")
		return querybuilder.TimeRange{}, false
	}
	return querybuilder.TimeRange{Start: *start, End: *end}, true
}

func parseInterval(w http.ResponseWriter, r *http.Request) (querybuilder.Interval, bool) {
	interval, err := querybuilder.ParseInterval(r.URL.Query().Get("interval"))
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return "", false
	}
	return interval, true
}

// getEventCounts handles GET /api/v1/events/counts
func (h *AnalyticsHandlers) getEventCounts(w http.ResponseWriter, r *http.Request) {
	rng, ok := requiredRange(w, r)
	if !ok {
		return
	}
	interval, ok := parseInterval(w, r)
	if !ok {
		return
	}

	buckets, err := h.repo.EventCounts(r.Context(), analytics.EventCountsRequest{
		Range:     rng,
		EventName: r.URL.Query().Get("event_name"),
		EventType: r.URL.Query().Get("type"),
		Interval:  interval,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	_ = httputil.WriteSuccess(w, buckets)
}

// getUserEvents handles GET /api/v1/users/{id}/events. The time range is
// optional here.
func (h *AnalyticsHandlers) getUserEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	start, end, err := httputil.ParseTimeRange(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if (start == nil) != (end == nil) {
		httputil.WriteBadRequest(w, "start and end must be given together")
		return
	}

	pageSize, err := httputil.ParseQueryInt(r, "page_size", querybuilder.DefaultPageSize)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	req := analytics.UserEventsRequest{
		UserID:    userID,
		EventName: r.URL.Query().Get("event_name"),
		PageToken: r.URL.Query().Get("page_token"),
		PageSize:  pageSize,
	}
	if start != nil {
		req.Range = &querybuilder.TimeRange{Start: *start, End: *end}
	}

	page, err := h.repo.UserEvents(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	_ = httputil.WriteSuccess(w, page)
}

// getErrorSummary handles GET /api/v1/errors/summary
func (h *AnalyticsHandlers) getErrorSummary(w http.ResponseWriter, r *http.Request) {
	rng, ok := requiredRange(w, r)
	if !ok {
		return
	}
	interval, ok := parseInterval(w, r)
	if !ok {
		return
	}

	summary, err := h.repo.ErrorSummary(r.Context(), analytics.ErrorSummaryRequest{Range: rng, Interval: interval})
	if err != nil {
		writeError(w, r, err)
		return
	}

	_ = httputil.WriteSuccess(w, summary)
}

// getPaths handles GET /api/v1/paths
func (h *AnalyticsHandlers) getPaths(w http.ResponseWriter, r *http.Request) {
	rng, ok := requiredRange(w, r)
	if !ok {
		return
	}
	limit, err := httputil.ParseQueryInt(r, "limit", analytics.DefaultPathLimit)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	paths, err := h.repo.PathAnalytics(r.Context(), analytics.PathAnalyticsRequest{Range: rng, Limit: limit})
	if err != nil {
		writeError(w, r, err)
		return
	}

	_ = httputil.WriteSuccess(w, paths)
}
