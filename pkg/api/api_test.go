package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/eventdash/pkg/analytics"
	"github.com/platinummonkey/eventdash/pkg/gauges"
	"github.com/platinummonkey/eventdash/pkg/kpi"
	"github.com/platinummonkey/eventdash/pkg/snapshot"
)

// fakeRepo records the last request of each kind
type fakeRepo struct {
	err error

	counts  analytics.EventCountsRequest
	user    analytics.UserEventsRequest
	errs    analytics.ErrorSummaryRequest
	paths   analytics.PathAnalyticsRequest
	called  int
	page    *analytics.UserEventsPage
	buckets []analytics.TimeBucket
}

func (f *fakeRepo) EventCounts(_ context.Context, req analytics.EventCountsRequest) ([]analytics.TimeBucket, error) {
	f.called++
	f.counts = req
	if f.err != nil {
		return nil, f.err
	}
	if f.buckets == nil {
		return []analytics.TimeBucket{}, nil
	}
	return f.buckets, nil
}

func (f *fakeRepo) UserEvents(_ context.Context, req analytics.UserEventsRequest) (*analytics.UserEventsPage, error) {
	f.called++
	f.user = req
	if f.err != nil {
		return nil, f.err
	}
	if f.page == nil {
		return &analytics.UserEventsPage{Events: []analytics.UserEvent{}}, nil
	}
	return f.page, nil
}

func (f *fakeRepo) ErrorSummary(_ context.Context, req analytics.ErrorSummaryRequest) (*analytics.ErrorSummary, error) {
	f.called++
	f.errs = req
	if f.err != nil {
		return nil, f.err
	}
	return &analytics.ErrorSummary{TotalErrors: 3, ErrorsByName: []analytics.ErrorCount{}}, nil
}

func (f *fakeRepo) PathAnalytics(_ context.Context, req analytics.PathAnalyticsRequest) ([]analytics.PathStats, error) {
	f.called++
	f.paths = req
	if f.err != nil {
		return nil, f.err
	}
	return []analytics.PathStats{{Path: "/api/chat", TotalRequests: 4, ErrorRate: 0.25}}, nil
}

// fakeBoard answers with fixed results and records the period
type fakeBoard struct {
	results map[string]gauges.Result
	period  gauges.Period
}

func (b *fakeBoard) Names() []string {
	names := make([]string, 0, len(b.results))
	for n := range b.results {
		names = append(names, n)
	}
	return names
}

func (b *fakeBoard) Compute(_ context.Context, p gauges.Period) map[string]gauges.Result {
	b.period = p
	return b.results
}

func (b *fakeBoard) ComputeOne(_ context.Context, name string, p gauges.Period) (gauges.Result, bool) {
	b.period = p
	res, ok := b.results[name]
	return res, ok
}

type targetsFunc func(ctx context.Context) (kpi.Report, error)

func (f targetsFunc) Targets(ctx context.Context) (kpi.Report, error) { return f(ctx) }

// fakeSnapshots serves fixed snapshots and records the history limit
type fakeSnapshots struct {
	latest  *snapshot.Snapshot
	history []*snapshot.Snapshot
	err     error
	limit   int
}

func (f *fakeSnapshots) Latest(context.Context) (*snapshot.Snapshot, error) {
	return f.latest, f.err
}

func (f *fakeSnapshots) History(_ context.Context, limit int) ([]*snapshot.Snapshot, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.history, nil
}

func newBoard() *fakeBoard {
	return &fakeBoard{results: map[string]gauges.Result{
		"producers":         {Value: 12, Label: "Producers", Description: "Total count of unique producers"},
		"active_chat_users": {Value: 3, Label: "Active Chat Users"},
		"thread_users":      gauges.ErrorResult("Thread Creators", fmt.Errorf("timeout")),
		"medium_chat_users": {Value: 9, Label: "Medium Chat Users"},
		"identity_users":    {Value: 40, Label: "Identity Users", Details: map[string]int64{"total_users": 40, "new_signups": 2}},
	}}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestRouter(cfg RouterConfig) http.Handler {
	if cfg.Analytics == nil {
		cfg.Analytics = &fakeRepo{}
	}
	if cfg.Board == nil {
		cfg.Board = newBoard()
	}
	cfg.Logger = quietLogger()
	return NewRouter(cfg)
}

func do(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}
