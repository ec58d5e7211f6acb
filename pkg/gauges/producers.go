package gauges

import "context"

// ProducerCounter counts distinct uploaders. analytics.Service implements it.
type ProducerCounter interface {
	ProducersCount(ctx context.Context) (int64, error)
}

// Producers reports the number of users with at least one uploaded sketch.
// The count covers all time; the period is ignored.
type Producers struct {
	counter ProducerCounter
	opts    options
}

// NewProducers creates a producers gauge
func NewProducers(counter ProducerCounter, opts ...Option) *Producers {
	return &Producers{counter: counter, opts: newOptions(opts)}
}

// Name implements Gauge
func (g *Producers) Name() string { return "producers" }

// Label implements Labeled
func (g *Producers) Label() string { return "Producers" }

// Compute implements Gauge
func (g *Producers) Compute(ctx context.Context, _ Period) Result {
	label := g.Label()

	count, err := g.counter.ProducersCount(ctx)
	if err != nil {
		g.opts.log.WithError(err).Error("Error counting producers")
		return ErrorResult(label, err)
	}

	return Result{
		Value:       count,
		Label:       label,
		Description: "Users who have uploaded at least one sketch",
	}
}
