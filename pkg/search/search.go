package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Searcher executes search requests against an index
type Searcher interface {
	Search(ctx context.Context, req Request) (*Response, error)
}

// SearcherFunc adapts a function to the Searcher interface
type SearcherFunc func(ctx context.Context, req Request) (*Response, error)

// Search calls f(ctx, req)
func (f SearcherFunc) Search(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// Request represents a single _search call
type Request struct {
	Operation string         // Metric and span label, e.g. "event_counts"
	Index     string         // Target index
	Body      map[string]any // Request body
	Size      *int           // Optional size URL parameter
	Timeout   time.Duration  // Per-attempt timeout (0 = none)
}

// Size returns a pointer to n for Request.Size
func Size(n int) *int {
	return &n
}

// Response is the subset of the _search response the analytics layers read
type Response struct {
	Took         int                        `json:"took"`
	TimedOut     bool                       `json:"timed_out"`
	Hits         Hits                       `json:"hits"`
	Aggregations map[string]json.RawMessage `json:"aggregations,omitempty"`
}

// Hits holds matched documents
type Hits struct {
	Total TotalHits `json:"total"`
	Hits  []Hit     `json:"hits"`
}

// TotalHits is the hit count reported by the cluster
type TotalHits struct {
	Value    int64  `json:"value"`
	Relation string `json:"relation"`
}

// Hit is a single matched document
type Hit struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Source json.RawMessage `json:"_source"`
	Sort   []any           `json:"sort,omitempty"`
}

// Aggregation decodes the named aggregation into dest.
// It reports false when the response does not contain the aggregation.
func (r *Response) Aggregation(name string, dest any) (bool, error) {
	raw, ok := r.Aggregations[name]
	if !ok || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return true, fmt.Errorf("failed to decode aggregation %s: %w", name, err)
	}
	return true, nil
}

// StatusError is returned when the cluster answers with an error status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search returned status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the status indicates an overloaded or
// unreachable cluster
func (e *StatusError) Temporary() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
