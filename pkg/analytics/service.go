package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/eventdash/pkg/querybuilder"
	"github.com/platinummonkey/eventdash/pkg/search"
)

// DefaultIndex is the index holding analytics events
const DefaultIndex = "events-v2"

// producersTimeout bounds the producers cardinality query
const producersTimeout = 30 * time.Second

// ErrInvalidRequest is returned for requests rejected before querying
var ErrInvalidRequest = errors.New("invalid analytics request")

// Service answers analytics queries over the events index
type Service struct {
	searcher search.Searcher
	index    string
	log      *logrus.Logger
}

// Option configures a Service
type Option func(*Service)

// WithIndex overrides the events index
func WithIndex(index string) Option {
	return func(s *Service) {
		if index != "" {
			s.index = index
		}
	}
}

// WithLogger sets the logger
func WithLogger(log *logrus.Logger) Option {
	return func(s *Service) { s.log = log }
}

// NewService creates a new analytics service
func NewService(searcher search.Searcher, opts ...Option) *Service {
	s := &Service{
		searcher: searcher,
		index:    DefaultIndex,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logrus.New()
	}
	return s
}

// Index returns the index queried by the service
func (s *Service) Index() string {
	return s.index
}

// ProducersCount returns the number of distinct users who uploaded at least one sketch
func (s *Service) ProducersCount(ctx context.Context) (int64, error) {
	body := querybuilder.Composite(
		[]querybuilder.Query{querybuilder.Term("event_name.keyword", "uploadSketch_end")},
		nil,
		querybuilder.Aggs{
			"unique_producers": querybuilder.Query{
				"cardinality": querybuilder.Query{"field": "event_data.body.butcherId.keyword"},
			},
		},
		nil,
	)

	resp, err := s.searcher.Search(ctx, search.Request{
		Operation: "producers_count",
		Index:     s.index,
		Body:      body,
		Size:      search.Size(0),
		Timeout:   producersTimeout,
	})
	if err != nil {
		return 0, fmt.Errorf("producers count: %w", err)
	}

	var agg valueAgg
	if _, err := resp.Aggregation("unique_producers", &agg); err != nil {
		return 0, fmt.Errorf("producers count: %w", err)
	}

	s.log.WithField("producers", agg.int()).Debug("Producers counted")
	return agg.int(), nil
}

func validateRange(r querybuilder.TimeRange) error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidRequest)
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: end is before start", ErrInvalidRequest)
	}
	return nil
}
