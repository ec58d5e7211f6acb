// Package analytics answers dashboard queries over the product-analytics events index.
//
// # Overview
//
// Service translates high-level requests into OpenSearch aggregation queries
// (via pkg/querybuilder), runs them through a search.Searcher and flattens
// the responses into JSON-ready records.
//
// # Queries
//
//   - EventCounts: date histogram of matching events
//   - UserEvents: a user's events, newest first, with search-after paging
//   - ErrorSummary: error counts by name with optional trends
//   - PathAnalytics: busiest paths with average status and error rate
//   - ProducersCount: distinct uploaders
//
// # Errors
//
// Invalid input is reported as ErrInvalidRequest before any query runs.
// Search failures are returned wrapped with the operation name.
//
// # Usage Example
//
//	svc := analytics.NewService(client, analytics.WithLogger(log))
//	buckets, err := svc.EventCounts(ctx, analytics.EventCountsRequest{
//		Range:    querybuilder.TimeRange{Start: start, End: end},
//		Interval: querybuilder.IntervalHour,
//	})
//
//	page, err := svc.UserEvents(ctx, analytics.UserEventsRequest{UserID: id})
//	for page.NextPageToken != "" {
//		page, err = svc.UserEvents(ctx, analytics.UserEventsRequest{UserID: id, PageToken: page.NextPageToken})
//	}
//
// # Related Packages
//
//   - pkg/search: Search client
//   - pkg/gauges: Dashboard gauges built on the same index
package analytics
