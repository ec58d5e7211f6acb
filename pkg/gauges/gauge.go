package gauges

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/eventdash/pkg/analytics"
	"github.com/platinummonkey/eventdash/pkg/querybuilder"
)

// Gauge is a single named dashboard metric. Compute never fails: errors are
// logged and reported as a zero-valued Result.
type Gauge interface {
	Name() string
	Compute(ctx context.Context, period Period) Result
}

// Labeled is implemented by gauges that carry a display label
type Labeled interface {
	Label() string
}

// LabelOf returns the display label of g, falling back to its name
func LabelOf(g Gauge) string {
	if l, ok := g.(Labeled); ok {
		return l.Label()
	}
	return g.Name()
}

// Period optionally restricts a gauge to [Start, End). It applies only when
// both ends are set.
type Period struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// NewPeriod returns a bounded period
func NewPeriod(start, end time.Time) Period {
	return Period{Start: &start, End: &end}
}

// Bounded reports whether both ends are set
func (p Period) Bounded() bool {
	return p.Start != nil && p.End != nil
}

// filter returns the timestamp range clause for a bounded period
func (p Period) filter() (querybuilder.Query, bool) {
	if !p.Bounded() {
		return nil, false
	}
	return querybuilder.EpochRange(*p.Start, *p.End), true
}

func (p Period) String() string {
	if !p.Bounded() {
		return "all time"
	}
	return fmt.Sprintf("%s to %s", p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"))
}

// Result is a computed gauge value
type Result struct {
	Value       int64            `json:"value"`
	Label       string           `json:"label"`
	Description string           `json:"description"`
	Details     map[string]int64 `json:"details,omitempty"`

	// Err is the failure behind a zero-valued result
	Err error `json:"-"`
}

// Failed reports whether the result stands in for a failed computation
func (r Result) Failed() bool {
	return r.Err != nil
}

// ErrorResult is the zero-valued result reported when a gauge fails
func ErrorResult(label string, err error) Result {
	return Result{
		Value:       0,
		Label:       label,
		Description: "Error: " + err.Error(),
		Err:         err,
	}
}

type options struct {
	index string
	log   *logrus.Logger
}

// Option configures a gauge
type Option func(*options)

// WithIndex overrides the events index
func WithIndex(index string) Option {
	return func(o *options) {
		if index != "" {
			o.index = index
		}
	}
}

// WithLogger sets the logger
func WithLogger(log *logrus.Logger) Option {
	return func(o *options) { o.log = log }
}

func newOptions(opts []Option) options {
	o := options{index: analytics.DefaultIndex}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logrus.New()
	}
	return o
}
