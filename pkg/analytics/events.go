package analytics

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/platinummonkey/eventdash/pkg/querybuilder"
	"github.com/platinummonkey/eventdash/pkg/search"
)

// TimeBucket is one point of a time series
type TimeBucket struct {
	Timestamp string `json:"timestamp"`
	Count     int64  `json:"count"`
}

// EventCountsRequest selects events to count over time
type EventCountsRequest struct {
	Range     querybuilder.TimeRange
	EventName string
	EventType string
	Interval  querybuilder.Interval
}

// EventCounts returns event counts bucketed by interval (day when unset)
func (s *Service) EventCounts(ctx context.Context, req EventCountsRequest) ([]TimeBucket, error) {
	if err := validateRange(req.Range); err != nil {
		return nil, err
	}

	must := []querybuilder.Query{querybuilder.DateRange(req.Range)}
	if req.EventName != "" {
		must = append(must, querybuilder.Term("event_name", req.EventName))
	}
	if req.EventType != "" {
		must = append(must, querybuilder.Term("type", req.EventType))
	}

	interval := req.Interval
	if interval == "" {
		interval = querybuilder.IntervalDay
	}

	body := querybuilder.Composite(must, nil, querybuilder.Aggregation(querybuilder.TimestampField, interval), nil)

	resp, err := s.searcher.Search(ctx, search.Request{
		Operation: "event_counts",
		Index:     s.index,
		Body:      body,
		Size:      search.Size(0),
	})
	if err != nil {
		return nil, fmt.Errorf("event counts: %w", err)
	}

	var hist histogramAgg
	found, err := resp.Aggregation("time_buckets", &hist)
	if err != nil {
		return nil, fmt.Errorf("event counts: %w", err)
	}
	if !found {
		return []TimeBucket{}, nil
	}
	return hist.timeBuckets(), nil
}

// UserEvent is a single event in a user's history
type UserEvent struct {
	EventName string          `json:"event_name"`
	Timestamp string          `json:"timestamp"`
	Type      string          `json:"type"`
	EventData json.RawMessage `json:"event_data"`
}

// UserEventsPage is one page of a user's events, newest first
type UserEventsPage struct {
	Events        []UserEvent `json:"events"`
	NextPageToken string      `json:"next_page_token,omitempty"`
}

// UserEventsRequest selects a page of a user's events
type UserEventsRequest struct {
	UserID    string
	Range     *querybuilder.TimeRange
	EventName string
	PageToken string
	PageSize  int
}

var userEventFields = []string{"event_name", "timestamp", "type", "event_data"}

// UserEvents returns a page of events for the user identified by trace ID.
// NextPageToken is set whenever the page is non-empty; an empty page ends
// the iteration.
func (s *Service) UserEvents(ctx context.Context, req UserEventsRequest) (*UserEventsPage, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidRequest)
	}
	if req.PageToken != "" {
		if _, err := querybuilder.DecodeCursor(req.PageToken); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}

	must := []querybuilder.Query{querybuilder.Term("trace_id", req.UserID)}
	if req.Range != nil && !req.Range.IsZero() {
		if err := validateRange(*req.Range); err != nil {
			return nil, err
		}
		must = append(must, querybuilder.DateRange(*req.Range))
	}
	if req.EventName != "" {
		must = append(must, querybuilder.Term("event_name", req.EventName))
	}

	body := querybuilder.Composite(must, userEventFields, nil,
		querybuilder.Paginated(req.PageToken, req.PageSize))

	resp, err := s.searcher.Search(ctx, search.Request{
		Operation: "user_events",
		Index:     s.index,
		Body:      body,
	})
	if err != nil {
		return nil, fmt.Errorf("user events: %w", err)
	}

	page := &UserEventsPage{Events: make([]UserEvent, 0, len(resp.Hits.Hits))}
	for _, hit := range resp.Hits.Hits {
		var src struct {
			EventName string          `json:"event_name"`
			Timestamp flexString      `json:"timestamp"`
			Type      string          `json:"type"`
			EventData json.RawMessage `json:"event_data"`
		}
		if err := json.Unmarshal(hit.Source, &src); err != nil {
			return nil, fmt.Errorf("user events: failed to decode hit %s: %w", hit.ID, err)
		}
		page.Events = append(page.Events, UserEvent{
			EventName: src.EventName,
			Timestamp: string(src.Timestamp),
			Type:      src.Type,
			EventData: src.EventData,
		})
	}

	if n := len(resp.Hits.Hits); n > 0 {
		token, err := querybuilder.EncodeCursor(resp.Hits.Hits[n-1].Sort)
		if err != nil {
			return nil, fmt.Errorf("user events: %w", err)
		}
		page.NextPageToken = token
	}

	return page, nil
}
