// Package querybuilder assembles OpenSearch query bodies for the analytics layer.
//
// # Overview
//
// Every function returns a plain Query (map[string]any) that serializes to the
// search service's JSON contract. Builders are pure and can be composed freely.
//
// # Usage Example
//
// Time-bucketed counts for one event:
//
//	q := querybuilder.Composite(
//		[]querybuilder.Query{
//			querybuilder.DateRange(r),
//			querybuilder.Term("event_name", "login"),
//		},
//		nil,
//		querybuilder.Aggs{"time_buckets": querybuilder.DateHistogram(querybuilder.IntervalDay)},
//		nil,
//	)
//
// Paging through a user's events:
//
//	page := querybuilder.Paginated(token, 100)
//	q := querybuilder.Composite(must, []string{"event_name", "timestamp"}, nil, page)
//
// # Cursors
//
// EncodeCursor turns the sort values of the last hit into an opaque token;
// DecodeCursor restores them as search_after parameters on the next call.
//
// # Related Packages
//
//   - pkg/analytics: Event queries built on these helpers
//   - pkg/gauges: Gauge aggregations
package querybuilder
