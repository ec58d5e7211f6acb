package gauges

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/eventdash/pkg/observability"
)

// defaultConcurrency bounds the gauges computed at once
const defaultConcurrency = 4

// Board computes a set of independent gauges concurrently
type Board struct {
	gauges      map[string]Gauge
	order       []string
	concurrency int
	metrics     *observability.Metrics
	log         *logrus.Logger
}

// BoardOption configures a Board
type BoardOption func(*Board)

// WithConcurrency limits how many gauges run at once
func WithConcurrency(n int) BoardOption {
	return func(b *Board) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithMetrics publishes computed values
func WithMetrics(m *observability.Metrics) BoardOption {
	return func(b *Board) { b.metrics = m }
}

// WithBoardLogger sets the logger
func WithBoardLogger(log *logrus.Logger) BoardOption {
	return func(b *Board) { b.log = log }
}

// NewBoard creates a board. Gauges with duplicate names are rejected.
func NewBoard(gauges []Gauge, opts ...BoardOption) (*Board, error) {
	b := &Board{
		gauges:      make(map[string]Gauge, len(gauges)),
		concurrency: defaultConcurrency,
	}
	for _, g := range gauges {
		name := g.Name()
		if _, dup := b.gauges[name]; dup {
			return nil, errors.New("gauges: duplicate gauge " + name)
		}
		b.gauges[name] = g
		b.order = append(b.order, name)
	}
	sort.Strings(b.order)

	for _, opt := range opts {
		opt(b)
	}
	if b.log == nil {
		b.log = logrus.New()
	}
	return b, nil
}

// Names returns the gauge names in sorted order
func (b *Board) Names() []string {
	return append([]string(nil), b.order...)
}

// Get returns the named gauge
func (b *Board) Get(name string) (Gauge, bool) {
	g, ok := b.gauges[name]
	return g, ok
}

// ComputeOne computes the named gauge
func (b *Board) ComputeOne(ctx context.Context, name string, period Period) (Result, bool) {
	g, ok := b.gauges[name]
	if !ok {
		return Result{}, false
	}
	return b.compute(ctx, g, period), true
}

// Compute runs every gauge and merges the results by name. One gauge
// failing never affects the others.
func (b *Board) Compute(ctx context.Context, period Period) map[string]Result {
	var (
		mu      sync.Mutex
		results = make(map[string]Result, len(b.gauges))
	)

	g := new(errgroup.Group)
	g.SetLimit(b.concurrency)
	for _, name := range b.order {
		gauge := b.gauges[name]
		g.Go(func() error {
			res := b.compute(ctx, gauge, period)
			mu.Lock()
			results[gauge.Name()] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (b *Board) compute(ctx context.Context, g Gauge, period Period) Result {
	start := time.Now()
	res, err := b.safeCompute(ctx, g, period)
	if err != nil {
		res = ErrorResult(LabelOf(g), err)
	}
	b.metrics.ObserveGauge(g.Name(), res.Value, time.Since(start), res.Failed())
	return res
}

// safeCompute turns a panicking gauge into an error
func (b *Board) safeCompute(ctx context.Context, g Gauge, period Period) (res Result, err error) {
	defer observability.RecoverToError(b.log, "gauge "+g.Name(), &err)
	return g.Compute(ctx, period), nil
}
