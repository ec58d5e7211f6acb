package gauges

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/eventdash/pkg/querybuilder"
	"github.com/platinummonkey/eventdash/pkg/search"
)

// chatEvent marks a message sent inside a thread
const chatEvent = "handleMessageInThread_start"

// ChatUsers counts users whose message count falls in a tier
type ChatUsers struct {
	searcher search.Searcher
	tier     Tier
	opts     options
}

// NewChatUsers creates a chat users gauge for the active or medium tier
func NewChatUsers(searcher search.Searcher, tier Tier, opts ...Option) (*ChatUsers, error) {
	if tier != TierActive && tier != TierMedium {
		return nil, fmt.Errorf("gauges: unsupported chat tier %s", tier)
	}
	return &ChatUsers{searcher: searcher, tier: tier, opts: newOptions(opts)}, nil
}

// Name implements Gauge
func (g *ChatUsers) Name() string {
	return g.tier.String() + "_chat_users"
}

// Label implements Labeled
func (g *ChatUsers) Label() string {
	if g.tier == TierActive {
		return "Active Chat Users"
	}
	return "Medium Chat Users"
}

func (g *ChatUsers) description() string {
	if g.tier == TierActive {
		return fmt.Sprintf("Users who have started %d+ message threads", ActiveMin)
	}
	return fmt.Sprintf("Users who have started %d-%d message threads", MediumMin, MediumMax)
}

// query builds the per-user terms aggregation filtered by the tier selector
func (g *ChatUsers) query(period Period) querybuilder.Query {
	must := []querybuilder.Query{querybuilder.Term("event_name.keyword", chatEvent)}
	if r, ok := period.filter(); ok {
		must = append(must, r)
	}

	aggs := querybuilder.Aggs{
		"users_by_messages": querybuilder.Query{
			"terms": querybuilder.Query{
				"field": "trace_id.keyword",
				"size":  querybuilder.TermsBucketSize,
			},
			"aggs": querybuilder.Aggs{
				"message_count": querybuilder.Query{
					"value_count": querybuilder.Query{"field": "event_name.keyword"},
				},
				g.tier.String() + "_users_bucket_selector": querybuilder.Query{
					"bucket_selector": querybuilder.Query{
						"buckets_path": querybuilder.Query{"count": "message_count"},
						"script":       g.tier.selectorScript(),
					},
				},
			},
		},
	}

	return querybuilder.Composite(must, nil, aggs, nil)
}

// Compute implements Gauge. The value is the number of user buckets that
// survive the tier's bucket selector; each is checked again with Classify
// so a cluster that ignored the selector cannot inflate the count.
func (g *ChatUsers) Compute(ctx context.Context, period Period) Result {
	resp, err := g.searcher.Search(ctx, search.Request{
		Operation: g.Name(),
		Index:     g.opts.index,
		Body:      g.query(period),
		Size:      search.Size(0),
	})
	if err != nil {
		g.opts.log.WithError(err).Errorf("Error counting %s chat users", g.tier)
		return ErrorResult(g.Label(), err)
	}

	var agg struct {
		Buckets []struct {
			Key          string `json:"key"`
			MessageCount struct {
				Value int64 `json:"value"`
			} `json:"message_count"`
		} `json:"buckets"`
	}
	if _, err := resp.Aggregation("users_by_messages", &agg); err != nil {
		g.opts.log.WithError(err).Errorf("Error counting %s chat users", g.tier)
		return ErrorResult(g.Label(), err)
	}

	var count int64
	for _, b := range agg.Buckets {
		if Classify(b.MessageCount.Value) == g.tier {
			count++
		}
	}
	log := g.opts.log.WithFields(logrus.Fields{
		"gauge":  g.Name(),
		"period": period.String(),
	})
	if dropped := int64(len(agg.Buckets)) - count; dropped > 0 {
		log.Warnf("Dropped %d users outside the %s tier", dropped, g.tier)
	}
	log.Infof("Found %d %s chat users", count, g.tier)

	return Result{Value: count, Label: g.Label(), Description: g.description()}
}
