package analytics

import (
	"context"
	"fmt"

	"github.com/platinummonkey/eventdash/pkg/querybuilder"
	"github.com/platinummonkey/eventdash/pkg/search"
)

const (
	// DefaultPathLimit is the number of paths returned when no limit is given
	DefaultPathLimit = 10
	// MaxPathLimit caps the number of paths per request
	MaxPathLimit = 1000
)

// PathStats summarizes requests to one path
type PathStats struct {
	Path          string   `json:"path"`
	TotalRequests int64    `json:"total_requests"`
	AverageStatus *float64 `json:"average_status"`
	ErrorRate     float64  `json:"error_rate"`
}

// PathAnalyticsRequest selects the busiest paths in a time range
type PathAnalyticsRequest struct {
	Range querybuilder.TimeRange
	Limit int
}

// PathAnalytics returns the most requested paths with their average status
// and the share of responses with status >= 400
func (s *Service) PathAnalytics(ctx context.Context, req PathAnalyticsRequest) ([]PathStats, error) {
	if err := validateRange(req.Range); err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultPathLimit
	}
	if limit > MaxPathLimit {
		limit = MaxPathLimit
	}

	aggs := querybuilder.Aggs{
		"popular_paths": querybuilder.Query{
			"terms": querybuilder.Query{"field": "path", "size": limit},
			"aggs": querybuilder.Aggs{
				"average_status": querybuilder.Query{
					"avg": querybuilder.Query{"field": "status_code"},
				},
				"error_count": querybuilder.Query{
					"filter": querybuilder.Query{
						"range": querybuilder.Query{"status_code": querybuilder.Query{"gte": 400}},
					},
				},
			},
		},
	}

	resp, err := s.searcher.Search(ctx, search.Request{
		Operation: "path_analytics",
		Index:     s.index,
		Body:      querybuilder.Composite([]querybuilder.Query{querybuilder.DateRange(req.Range)}, nil, aggs, nil),
		Size:      search.Size(0),
	})
	if err != nil {
		return nil, fmt.Errorf("path analytics: %w", err)
	}

	var popular popularPathsAgg
	if _, err := resp.Aggregation("popular_paths", &popular); err != nil {
		return nil, fmt.Errorf("path analytics: %w", err)
	}

	paths := make([]PathStats, 0, len(popular.Buckets))
	for _, b := range popular.Buckets {
		stats := PathStats{
			Path:          b.Key,
			TotalRequests: b.DocCount,
			AverageStatus: b.AverageStatus.Value,
		}
		if b.DocCount > 0 {
			stats.ErrorRate = float64(b.ErrorCount.DocCount) / float64(b.DocCount)
		}
		paths = append(paths, stats)
	}
	return paths, nil
}
