package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/eventdash/pkg/gauges"
	"github.com/platinummonkey/eventdash/pkg/kpi"
	"github.com/platinummonkey/eventdash/pkg/observability"
)

// Snapshot is a saved copy of the board and the KPI targets
type Snapshot struct {
	ID      string                   `json:"id"`
	TakenAt time.Time                `json:"taken_at"`
	Period  string                   `json:"period"`
	Gauges  map[string]gauges.Result `json:"gauges"`
	// Failed lists the gauges whose values are error placeholders
	Failed  []string   `json:"failed,omitempty"`
	Targets kpi.Report `json:"targets,omitempty"`
}

// Computer computes every gauge on a board
type Computer interface {
	Compute(ctx context.Context, period gauges.Period) map[string]gauges.Result
}

// TargetSource loads KPI targets
type TargetSource interface {
	Targets(ctx context.Context) (kpi.Report, error)
}

// Saver persists snapshots
type Saver interface {
	Save(ctx context.Context, snap *Snapshot) error
}

// Collector builds and saves snapshots
type Collector struct {
	board   Computer
	targets TargetSource
	saver   Saver
	metrics *observability.Metrics
	log     *logrus.Logger
	now     func() time.Time
}

// NewCollector creates a collector. targets may be nil.
func NewCollector(board Computer, targets TargetSource, saver Saver, log *logrus.Logger) *Collector {
	if log == nil {
		log = logrus.New()
	}
	return &Collector{
		board:   board,
		targets: targets,
		saver:   saver,
		log:     log,
		now:     time.Now,
	}
}

// WithMetrics records snapshot outcomes
func (c *Collector) WithMetrics(m *observability.Metrics) *Collector {
	c.metrics = m
	return c
}

// Collect computes a snapshot without saving it
func (c *Collector) Collect(ctx context.Context, period gauges.Period) *Snapshot {
	results := c.board.Compute(ctx, period)

	snap := &Snapshot{
		ID:      uuid.NewString(),
		TakenAt: c.now().UTC(),
		Period:  period.String(),
		Gauges:  results,
	}
	for name, res := range results {
		if res.Failed() {
			snap.Failed = append(snap.Failed, name)
		}
	}
	sort.Strings(snap.Failed)

	if c.targets != nil {
		report, err := c.targets.Targets(ctx)
		switch {
		case errors.Is(err, kpi.ErrNotConfigured):
		case err != nil:
			c.log.WithError(err).Warn("Failed to load KPI targets for snapshot")
		default:
			snap.Targets = report
		}
	}

	return snap
}

// Run collects and saves one snapshot
func (c *Collector) Run(ctx context.Context, period gauges.Period) (*Snapshot, error) {
	snap := c.Collect(ctx, period)

	err := c.saver.Save(ctx, snap)
	c.metrics.ObserveSnapshot(snap.TakenAt, err)
	if err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"snapshot_id": snap.ID,
		"gauges":      len(snap.Gauges),
		"failed":      len(snap.Failed),
	}).Info("Snapshot saved")
	return snap, nil
}
