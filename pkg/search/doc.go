// Package search is the client for the OpenSearch cluster holding analytics events.
//
// # Overview
//
// The query layers (pkg/analytics, pkg/gauges) depend on the Searcher
// interface only. Client implements it on top of opensearch-go, adding
// retry with exponential backoff, tracing and Prometheus metrics.
//
// # Failure Classification
//
// Transport failures and HTTP 429/502/503/504 are transient and retried.
// Any other HTTP status at or above 400 is returned as a *StatusError
// without retrying.
//
// # Usage Example
//
//	client, err := search.NewClient(search.Config{
//		Addresses: []string{"https://opensearch:9200"},
//		Retry:     retry.DefaultConfig(),
//	}, search.WithMetrics(metrics))
//
//	resp, err := client.Search(ctx, search.Request{
//		Operation: "error_summary",
//		Index:     "events-v2",
//		Body:      body,
//		Size:      search.Size(0),
//	})
//
// # Related Packages
//
//   - pkg/querybuilder: Builds request bodies
//   - pkg/retry: Backoff policy
package search
