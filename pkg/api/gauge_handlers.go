package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/eventdash/pkg/gauges"
	"github.com/platinummonkey/eventdash/pkg/httputil"
	"github.com/platinummonkey/eventdash/pkg/kpi"
	"github.com/platinummonkey/eventdash/pkg/observability"
	"github.com/platinummonkey/eventdash/pkg/snapshot"
)

// GaugeBoard computes dashboard gauges
type GaugeBoard interface {
	Names() []string
	Compute(ctx context.Context, period gauges.Period) map[string]gauges.Result
	ComputeOne(ctx context.Context, name string, period gauges.Period) (gauges.Result, bool)
}

// TargetSource loads KPI targets
type TargetSource interface {
	Targets(ctx context.Context) (kpi.Report, error)
}

// SnapshotReader loads saved boards
type SnapshotReader interface {
	Latest(ctx context.Context) (*snapshot.Snapshot, error)
	History(ctx context.Context, limit int) ([]*snapshot.Snapshot, error)
}

// BoardResponse is the body of GET /api/v1/gauges
type BoardResponse struct {
	Period string                   `json:"period"`
	Gauges map[string]gauges.Result `json:"gauges"`
}

// GaugeHandlers serves gauges, KPI targets and snapshots. targets and
// snapshots may be nil.
type GaugeHandlers struct {
	board     GaugeBoard
	targets   TargetSource
	snapshots SnapshotReader
}

// NewGaugeHandlers creates gauge handlers
func NewGaugeHandlers(board GaugeBoard, targets TargetSource, snapshots SnapshotReader) *GaugeHandlers {
	return &GaugeHandlers{board: board, targets: targets, snapshots: snapshots}
}

// RegisterRoutes registers gauge API routes
func (h *GaugeHandlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/gauges", h.getBoard).Methods(http.MethodGet)
	// registered before {name} so it is not taken for a gauge
	r.HandleFunc("/api/v1/gauges/snapshot", h.getSnapshot).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/gauges/snapshot/history", h.getSnapshotHistory).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/gauges/{name}", h.getGauge).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/kpi/targets", h.getTargets).Methods(http.MethodGet)
}

// parsePeriod reads an optional start/end pair. Gauges cover all time when
// neither is given.
func parsePeriod(w http.ResponseWriter, r *http.Request) (gauges.Period, bool) {
	start, end, err := httputil.ParseTimeRange(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return gauges.Period{}, false
	}
	if (start == nil) != (end == nil) {
		httputil.WriteBadRequest(w, "start and end must be given together")
		return gauges.Period{}, false
	}
	return gauges.Period{Start: start, End: end}, true
}

// getBoard handles GET /api/v1/gauges
func (h *GaugeHandlers) getBoard(w http.ResponseWriter, r *http.Request) {
	period, ok := parsePeriod(w, r)
	if !ok {
		return
	}

	_ = httputil.WriteSuccess(w, BoardResponse{
		Period: period.String(),
		Gauges: h.board.Compute(r.Context(), period),
	})
}

// getGauge handles GET /api/v1/gauges/{name}
func (h *GaugeHandlers) getGauge(w http.ResponseWriter, r *http.Request) {
	period, ok := parsePeriod(w, r)
	if !ok {
		return
	}

	name := mux.Vars(r)["name"]
	result, found := h.board.ComputeOne(r.Context(), name, period)
	if !found {
		httputil.WriteDetailedError(w, http.StatusNotFound, errors.New("unknown gauge "+name), map[string]string{
			"available": strings.Join(h.board.Names(), ","),
		})
		return
	}

	_ = httputil.WriteSuccess(w, result)
}

// getTargets handles GET /api/v1/kpi/targets. An unconfigured or unreadable
// sheet yields an empty report.
func (h *GaugeHandlers) getTargets(w http.ResponseWriter, r *http.Request) {
	if h.targets == nil {
		_ = httputil.WriteSuccess(w, kpi.EmptyReport())
		return
	}

	report, err := h.targets.Targets(r.Context())
	if err != nil && !errors.Is(err, kpi.ErrNotConfigured) {
		observability.FromContext(r.Context()).WithError(err).Warn("Failed to load KPI targets")
	}
	if report == nil {
		report = kpi.EmptyReport()
	}

	_ = httputil.WriteSuccess(w, report)
}

// getSnapshot handles GET /api/v1/gauges/snapshot
func (h *GaugeHandlers) getSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		httputil.WriteServiceUnavailable(w, "snapshots are not enabled")
		return
	}

	snap, err := h.snapshots.Latest(r.Context())
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("Failed to load snapshot")
		httputil.WriteBadGateway(w, err)
		return
	}
	if snap == nil {
		httputil.WriteNotFound(w, "no snapshot available")
		return
	}

	_ = httputil.WriteSuccess(w, snap)
}

// getSnapshotHistory handles GET /api/v1/gauges/snapshot/history?limit=N.
// Snapshots are returned newest first; limit 0 returns all that are kept.
func (h *GaugeHandlers) getSnapshotHistory(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		httputil.WriteServiceUnavailable(w, "snapshots are not enabled")
		return
	}

	limit, err := httputil.ParseQueryInt(r, "limit", 0)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if limit < 0 {
		httputil.WriteBadRequest(w, "limit must not be negative")
		return
	}

	snaps, err := h.snapshots.History(r.Context(), limit)
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("Failed to load snapshot history")
		httputil.WriteBadGateway(w, err)
		return
	}
	if snaps == nil {
		snaps = []*snapshot.Snapshot{}
	}

	_ = httputil.WriteSuccess(w, snaps)
}
