package gauges

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/eventdash/pkg/querybuilder"
	"github.com/platinummonkey/eventdash/pkg/search"
)

// threadEvents are the event names emitted when a thread is created
var threadEvents = []string{"createThread_start", "create_thread", "createThread"}

// threadPrecision is the cardinality precision threshold
const threadPrecision = 40000

// ThreadUsers counts distinct users who created at least one thread
type ThreadUsers struct {
	searcher search.Searcher
	opts     options
}

// NewThreadUsers creates a thread users gauge
func NewThreadUsers(searcher search.Searcher, opts ...Option) *ThreadUsers {
	return &ThreadUsers{searcher: searcher, opts: newOptions(opts)}
}

// Name implements Gauge
func (g *ThreadUsers) Name() string { return "thread_users" }

func (g *ThreadUsers) query(period Period) querybuilder.Query {
	must := []querybuilder.Query{querybuilder.Terms("event_name.keyword", threadEvents...)}
	if r, ok := period.filter(); ok {
		must = append(must, r)
	}

	return querybuilder.Composite(must, nil, querybuilder.Aggs{
		"unique_users": querybuilder.Query{
			"cardinality": querybuilder.Query{
				"field":               "trace_id.keyword",
				"precision_threshold": threadPrecision,
			},
		},
	}, nil)
}

// Label implements Labeled
func (g *ThreadUsers) Label() string { return "Thread Users" }

// Compute implements Gauge
func (g *ThreadUsers) Compute(ctx context.Context, period Period) Result {
	label := g.Label()

	resp, err := g.searcher.Search(ctx, search.Request{
		Operation: g.Name(),
		Index:     g.opts.index,
		Body:      g.query(period),
		Size:      search.Size(0),
	})
	if err != nil {
		g.opts.log.WithError(err).Error("Error counting thread users")
		return ErrorResult(label, err)
	}

	var agg struct {
		Value int64 `json:"value"`
	}
	if _, err := resp.Aggregation("unique_users", &agg); err != nil {
		g.opts.log.WithError(err).Error("Error counting thread users")
		return ErrorResult(label, err)
	}

	g.opts.log.WithFields(logrus.Fields{
		"gauge":  g.Name(),
		"period": period.String(),
	}).Infof("Found %d thread users", agg.Value)

	return Result{
		Value:       agg.Value,
		Label:       label,
		Description: "Users who have created at least one thread",
	}
}
