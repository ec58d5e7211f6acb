package analytics

import (
	"context"
	"fmt"

	"github.com/platinummonkey/eventdash/pkg/querybuilder"
	"github.com/platinummonkey/eventdash/pkg/search"
)

// errorNamesSize is the number of distinct error names reported
const errorNamesSize = 100

// ErrorCount is the number of occurrences of one error name
type ErrorCount struct {
	ErrorName        string `json:"error_name"`
	Count            int64  `json:"count"`
	LatestOccurrence string `json:"latest_occurrence"`
}

// ErrorSummary aggregates error events over a time range
type ErrorSummary struct {
	TotalErrors  int64        `json:"total_errors"`
	ErrorsByName []ErrorCount `json:"errors_by_name"`
	ErrorTrends  []TimeBucket `json:"error_trends,omitempty"`
}

// ErrorSummaryRequest selects error events. Trends are computed only when
// Interval is set.
type ErrorSummaryRequest struct {
	Range    querybuilder.TimeRange
	Interval querybuilder.Interval
}

// ErrorSummary counts error events by name and optionally over time
func (s *Service) ErrorSummary(ctx context.Context, req ErrorSummaryRequest) (*ErrorSummary, error) {
	if err := validateRange(req.Range); err != nil {
		return nil, err
	}

	must := []querybuilder.Query{
		querybuilder.DateRange(req.Range),
		querybuilder.Term("type", "error"),
	}

	aggs := querybuilder.Aggs{
		"errors_by_name": querybuilder.Query{
			"terms": querybuilder.Query{"field": "error_name", "size": errorNamesSize},
			"aggs": querybuilder.Aggs{
				"latest_occurrence": querybuilder.Query{
					"max": querybuilder.Query{"field": querybuilder.TimestampField},
				},
			},
		},
	}
	if req.Interval != "" {
		aggs["error_trends"] = querybuilder.DateHistogram(req.Interval)
	}

	body := querybuilder.Composite(must, nil, aggs, nil)
	// hits.total is capped at 10,000 otherwise
	body["track_total_hits"] = true

	resp, err := s.searcher.Search(ctx, search.Request{
		Operation: "error_summary",
		Index:     s.index,
		Body:      body,
		Size:      search.Size(0),
	})
	if err != nil {
		return nil, fmt.Errorf("error summary: %w", err)
	}

	summary := &ErrorSummary{
		TotalErrors:  resp.Hits.Total.Value,
		ErrorsByName: []ErrorCount{},
	}

	var names errorNamesAgg
	if _, err := resp.Aggregation("errors_by_name", &names); err != nil {
		return nil, fmt.Errorf("error summary: %w", err)
	}
	for _, b := range names.Buckets {
		summary.ErrorsByName = append(summary.ErrorsByName, ErrorCount{
			ErrorName:        b.Key,
			Count:            b.DocCount,
			LatestOccurrence: b.LatestOccurrence.ValueAsString,
		})
	}

	if req.Interval != "" {
		var trends histogramAgg
		found, err := resp.Aggregation("error_trends", &trends)
		if err != nil {
			return nil, fmt.Errorf("error summary: %w", err)
		}
		if found {
			summary.ErrorTrends = trends.timeBuckets()
		}
	}

	return summary, nil
}
