package analytics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/eventdash/pkg/querybuilder"
)

func TestEventCounts(t *testing.T) {
	f := &fakeSearcher{body: `{
		"hits": {"total": {"value": 9}},
		"aggregations": {"time_buckets": {"buckets": [
			{"key": 1714521600000, "key_as_string": "2024-05-01T00:00:00+0000", "doc_count": 4},
			{"key": 1714608000000, "key_as_string": "2024-05-02T00:00:00+0000", "doc_count": 0},
			{"key": 1714694400000, "key_as_string": "2024-05-03T00:00:00+0000", "doc_count": 5}
		]}}
	}`}
	svc := newTestService(f)

	buckets, err := svc.EventCounts(context.Background(), EventCountsRequest{
		Range:     testRange,
		EventName: "login",
		EventType: "auth",
	})
	require.NoError(t, err)

	assert.Equal(t, []TimeBucket{
		{Timestamp: "2024-05-01T00:00:00+0000", Count: 4},
		{Timestamp: "2024-05-02T00:00:00+0000", Count: 0},
		{Timestamp: "2024-05-03T00:00:00+0000", Count: 5},
	}, buckets)

	body := f.lastBody(t)
	must := mustClauses(t, body)
	require.Len(t, must, 3)
	assert.Equal(t, map[string]any{"term": map[string]any{"event_name": "login"}}, must[1])
	assert.Equal(t, map[string]any{"term": map[string]any{"type": "auth"}}, must[2])

	hist := body["aggs"].(map[string]any)["time_buckets"].(map[string]any)["date_histogram"].(map[string]any)
	assert.Equal(t, "1d", hist["fixed_interval"], "interval defaults to day")
	terms := body["aggs"].(map[string]any)["timestamp_buckets"].(map[string]any)["terms"].(map[string]any)
	assert.Equal(t, "timestamp", terms["field"])
	assert.Equal(t, float64(querybuilder.TermsBucketSize), terms["size"])
	assert.Equal(t, 0, *f.last.Size)
}

func TestEventCounts_Interval(t *testing.T) {
	f := &fakeSearcher{body: `{"hits":{"total":{"value":0}},"aggregations":{"time_buckets":{"buckets":[]}}}`}
	svc := newTestService(f)

	_, err := svc.EventCounts(context.Background(), EventCountsRequest{Range: testRange, Interval: querybuilder.IntervalMonth})
	require.NoError(t, err)

	body := f.lastBody(t)
	hist := body["aggs"].(map[string]any)["time_buckets"].(map[string]any)["date_histogram"].(map[string]any)
	assert.Equal(t, "month", hist["calendar_interval"])
	assert.Len(t, mustClauses(t, body), 1)
}

func TestEventCounts_NoBuckets(t *testing.T) {
	svc := newTestService(&fakeSearcher{body: `{"hits":{"total":{"value":0}}}`})

	buckets, err := svc.EventCounts(context.Background(), EventCountsRequest{Range: testRange})
	require.NoError(t, err)
	assert.NotNil(t, buckets)
	assert.Empty(t, buckets)
}

func TestEventCounts_InvalidRange(t *testing.T) {
	f := &fakeSearcher{}
	svc := newTestService(f)

	_, err := svc.EventCounts(context.Background(), EventCountsRequest{})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Zero(t, f.calls)
}

const userEventsBody = `{
	"hits": {
		"total": {"value": 2, "relation": "eq"},
		"hits": [
			{"_id": "e2", "_source": {"event_name": "sendMessage", "timestamp": "2024-05-02T10:00:00Z", "type": "action", "event_data": {"len": 12}}, "sort": [1714644000000, "e2"]},
			{"_id": "e1", "_source": {"event_name": "login", "timestamp": "2024-05-01T09:00:00Z", "type": "auth", "event_data": null}, "sort": [1714554000000, "e1"]}
		]
	}
}`

func TestUserEvents(t *testing.T) {
	f := &fakeSearcher{body: userEventsBody}
	svc := newTestService(f)

	page, err := svc.UserEvents(context.Background(), UserEventsRequest{UserID: "user-1", PageSize: 2})
	require.NoError(t, err)

	require.Len(t, page.Events, 2)
	assert.Equal(t, "sendMessage", page.Events[0].EventName)
	assert.Equal(t, "2024-05-02T10:00:00Z", page.Events[0].Timestamp)
	assert.JSONEq(t, `{"len": 12}`, string(page.Events[0].EventData))
	assert.Equal(t, "login", page.Events[1].EventName)

	require.NotEmpty(t, page.NextPageToken)
	sortValues, err := querybuilder.DecodeCursor(page.NextPageToken)
	require.NoError(t, err)
	assert.Len(t, sortValues, 2)
	assert.Equal(t, "e1", sortValues[1])

	body := f.lastBody(t)
	assert.Equal(t, map[string]any{"term": map[string]any{"trace_id": "user-1"}}, mustClauses(t, body)[0])
	assert.Equal(t, []any{"event_name", "timestamp", "type", "event_data"}, body["_source"])
	assert.Equal(t, float64(2), body["size"])
	assert.Nil(t, f.last.Size, "page size travels in the body")
}

func TestUserEvents_CursorRoundTrip(t *testing.T) {
	f := &fakeSearcher{body: userEventsBody}
	svc := newTestService(f)

	first, err := svc.UserEvents(context.Background(), UserEventsRequest{UserID: "user-1"})
	require.NoError(t, err)

	_, err = svc.UserEvents(context.Background(), UserEventsRequest{UserID: "user-1", PageToken: first.NextPageToken})
	require.NoError(t, err)

	body := f.lastBody(t)
	assert.Equal(t, []any{float64(1714554000000), "e1"}, body["search_after"])
}

func TestUserEvents_EmptyPageHasNoToken(t *testing.T) {
	svc := newTestService(&fakeSearcher{body: `{"hits":{"total":{"value":0},"hits":[]}}`})

	page, err := svc.UserEvents(context.Background(), UserEventsRequest{UserID: "user-1"})
	require.NoError(t, err)
	assert.Empty(t, page.Events)
	assert.Empty(t, page.NextPageToken)
}

func TestUserEvents_Filters(t *testing.T) {
	f := &fakeSearcher{body: `{"hits":{"hits":[]}}`}
	svc := newTestService(f)

	r := testRange
	_, err := svc.UserEvents(context.Background(), UserEventsRequest{UserID: "user-1", Range: &r, EventName: "login"})
	require.NoError(t, err)

	must := mustClauses(t, f.lastBody(t))
	require.Len(t, must, 3)
	assert.Contains(t, must[1].(map[string]any), "range")
	assert.Equal(t, map[string]any{"term": map[string]any{"event_name": "login"}}, must[2])
}

func TestUserEvents_NumericTimestamp(t *testing.T) {
	svc := newTestService(&fakeSearcher{body: `{"hits":{"hits":[
		{"_id": "e1", "_source": {"event_name": "login", "timestamp": 1714554000000, "type": "auth"}, "sort": [1714554000000, "e1"]}
	]}}`})

	page, err := svc.UserEvents(context.Background(), UserEventsRequest{UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, "1714554000000", page.Events[0].Timestamp)
}

func TestUserEvents_Validation(t *testing.T) {
	f := &fakeSearcher{}
	svc := newTestService(f)

	_, err := svc.UserEvents(context.Background(), UserEventsRequest{})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.UserEvents(context.Background(), UserEventsRequest{UserID: "u", PageToken: "!!not-a-cursor"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	inverted := querybuilder.TimeRange{Start: testRange.End, End: testRange.Start}
	_, err = svc.UserEvents(context.Background(), UserEventsRequest{UserID: "u", Range: &inverted})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	assert.Zero(t, f.calls)
}

func TestUserEvents_SearchError(t *testing.T) {
	boom := errors.New("timeout")
	svc := newTestService(&fakeSearcher{err: boom})

	_, err := svc.UserEvents(context.Background(), UserEventsRequest{UserID: "u"})
	assert.ErrorIs(t, err, boom)
}
