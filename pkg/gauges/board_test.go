package gauges

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/eventdash/pkg/observability"
)

type stubGauge struct {
	name    string
	compute func(context.Context, Period) Result
}

func (s stubGauge) Name() string { return s.name }
func (s stubGauge) Compute(ctx context.Context, p Period) Result {
	return s.compute(ctx, p)
}

func constant(name string, v int64) stubGauge {
	return stubGauge{name: name, compute: func(context.Context, Period) Result {
		return Result{Value: v, Label: name}
	}}
}

func TestNewBoard_RejectsDuplicates(t *testing.T) {
	_, err := NewBoard([]Gauge{constant("a", 1), constant("a", 2)})
	assert.Error(t, err)
}

func TestBoard_Compute(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	failing := stubGauge{name: "failing", compute: func(context.Context, Period) Result {
		return ErrorResult("Failing", errors.New("boom"))
	}}

	board, err := NewBoard([]Gauge{constant("b", 2), constant("a", 1), failing}, WithMetrics(metrics))
	require.NoError(t, err)

	results := board.Compute(context.Background(), may)

	require.Len(t, results, 3)
	assert.Equal(t, int64(1), results["a"].Value)
	assert.Equal(t, int64(2), results["b"].Value)
	assert.True(t, results["failing"].Failed())

	assert.Equal(t, []string{"a", "b", "failing"}, board.Names())
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.GaugeValue.WithLabelValues("b")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.GaugeErrorsTotal.WithLabelValues("failing")))
}

func TestBoard_PanickingGaugeIsIsolated(t *testing.T) {
	panicky := stubGauge{name: "panicky", compute: func(context.Context, Period) Result {
		panic("nil map")
	}}

	board, err := NewBoard([]Gauge{panicky, constant("ok", 5)}, WithBoardLogger(quietLogger()))
	require.NoError(t, err)

	results := board.Compute(context.Background(), Period{})

	assert.Equal(t, int64(5), results["ok"].Value)
	assert.Zero(t, results["panicky"].Value)
	assert.Equal(t, "Error: panic in gauge panicky: nil map", results["panicky"].Description)
	assert.Equal(t, "panicky", results["panicky"].Label, "unlabeled gauges fall back to their name")
}

type labeledStub struct {
	stubGauge
	label string
}

func (s labeledStub) Label() string { return s.label }

func TestBoard_PanickingGaugeKeepsLabel(t *testing.T) {
	g := labeledStub{
		stubGauge: stubGauge{name: "active_chat_users", compute: func(context.Context, Period) Result {
			panic("nil map")
		}},
		label: "Active Chat Users",
	}

	board, err := NewBoard([]Gauge{g}, WithBoardLogger(quietLogger()))
	require.NoError(t, err)

	res := board.Compute(context.Background(), Period{})["active_chat_users"]
	assert.True(t, res.Failed())
	assert.Equal(t, "Active Chat Users", res.Label)
}

func TestLabelOf(t *testing.T) {
	chat, err := NewChatUsers(&fakeSearcher{}, TierMedium)
	require.NoError(t, err)

	assert.Equal(t, "Medium Chat Users", LabelOf(chat))
	assert.Equal(t, "Thread Users", LabelOf(NewThreadUsers(&fakeSearcher{})))
	assert.Equal(t, "plain", LabelOf(constant("plain", 1)))
}

func TestBoard_RespectsConcurrencyLimit(t *testing.T) {
	var inFlight, peak int32
	slow := func(name string) stubGauge {
		return stubGauge{name: name, compute: func(context.Context, Period) Result {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return Result{Value: 1}
		}}
	}

	board, err := NewBoard([]Gauge{slow("a"), slow("b"), slow("c"), slow("d")}, WithConcurrency(2))
	require.NoError(t, err)

	results := board.Compute(context.Background(), Period{})

	assert.Len(t, results, 4)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestBoard_ComputeOne(t *testing.T) {
	board, err := NewBoard([]Gauge{constant("a", 7)})
	require.NoError(t, err)

	res, ok := board.ComputeOne(context.Background(), "a", Period{})
	assert.True(t, ok)
	assert.Equal(t, int64(7), res.Value)

	_, ok = board.ComputeOne(context.Background(), "missing", Period{})
	assert.False(t, ok)

	g, ok := board.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "a", g.Name())
}
