package summary

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	summary "tradefeed/internal/domain/entity/summary"
	trade "tradefeed/internal/domain/entity/trade"
	"tradefeed/internal/infrastructure/metrics"
	infratrades "tradefeed/internal/infrastructure/trades"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hourMillis = int64(3_600_000)

var fixedNow = time.UnixMilli(1_700_000_000_000)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// scriptedStore answers Aggregate from a function and can fail selected calls.
type scriptedStore struct {
	*infratrades.MemoryStore
	aggregate  func(w summary.TimeWindow) (summary.Aggregate, error)
	latestErr  error
	windows    []summary.TimeWindow
	latestHits int
}

func (s *scriptedStore) Aggregate(_ context.Context, w summary.TimeWindow) (summary.Aggregate, error) {
	s.windows = append(s.windows, w)
	return s.aggregate(w)
}

func (s *scriptedStore) FindLatest(ctx context.Context) (*trade.Record, error) {
	s.latestHits++
	if s.latestErr != nil {
		return nil, s.latestErr
	}
	return s.MemoryStore.FindLatest(ctx)
}

func newAggregator(t *testing.T, repo *scriptedStore, m *metrics.Metrics) *Aggregator {
	t.Helper()
	return NewAggregator(repo, quietLogger(),
		WithClock(func() time.Time { return fixedNow }),
		WithMetrics(m),
	)
}

func sum(v float64) *float64 { return &v }

func TestPrimaryWindowWithDataIsReturned(t *testing.T) {
	store := &scriptedStore{
		MemoryStore: infratrades.NewMemoryStore(),
		aggregate: func(summary.TimeWindow) (summary.Aggregate, error) {
			return summary.Aggregate{Count: 4, Sum: sum(12.5)}, nil
		},
	}
	got, err := newAggregator(t, store, nil).SummarizeRecentHour(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(4), got.Count)
	assert.True(t, decimal.RequireFromString("12.5").Equal(got.TotalAmount))
	assert.Equal(t, summary.TimeWindow{Start: fixedNow.UnixMilli() - hourMillis, End: fixedNow.UnixMilli()}, got.Window)
	assert.Zero(t, store.latestHits)
}

func TestLenientHasDataSkipsFallback(t *testing.T) {
	tests := []struct {
		name string
		agg  summary.Aggregate
	}{
		{name: "amount without count", agg: summary.Aggregate{Count: 0, Sum: sum(5)}},
		{name: "count without amount", agg: summary.Aggregate{Count: 2, Sum: sum(0)}},
		{name: "count with missing bucket", agg: summary.Aggregate{Count: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &scriptedStore{
				MemoryStore: infratrades.NewMemoryStore(),
				aggregate: func(summary.TimeWindow) (summary.Aggregate, error) {
					return tt.agg, nil
				},
			}
			got, err := newAggregator(t, store, nil).SummarizeRecentHour(context.Background())
			require.NoError(t, err)
			assert.False(t, got.IsFallback())
			assert.Len(t, store.windows, 1)
			assert.Zero(t, store.latestHits)
		})
	}
}

func TestEmptyStoreReturnsEmptyPrimary(t *testing.T) {
	store := &scriptedStore{
		MemoryStore: infratrades.NewMemoryStore(),
		aggregate: func(summary.TimeWindow) (summary.Aggregate, error) {
			return summary.Aggregate{}, nil
		},
	}
	got, err := newAggregator(t, store, nil).SummarizeRecentHour(context.Background())
	require.NoError(t, err)

	assert.Zero(t, got.Count)
	assert.True(t, got.TotalAmount.IsZero())
	assert.False(t, got.IsFallback())
	assert.Equal(t, fixedNow.UnixMilli(), got.Window.End)
	assert.Equal(t, 1, store.latestHits)
	assert.Len(t, store.windows, 1)
}

func TestFallbackWindowEndsAtLatestTrade(t *testing.T) {
	latest := int64(1_000_000)
	store := &scriptedStore{
		MemoryStore: infratrades.NewMemoryStore(),
		aggregate: func(w summary.TimeWindow) (summary.Aggregate, error) {
			if w.IsFallback {
				return summary.Aggregate{Count: 1, Sum: sum(7)}, nil
			}
			return summary.Aggregate{}, nil
		},
	}
	_, err := store.Index(context.Background(), &trade.Record{TradeID: "t", ExecutedAt: trade.Millis(latest)})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	got, err := newAggregator(t, store, m).SummarizeRecentHour(context.Background())
	require.NoError(t, err)

	assert.True(t, got.IsFallback())
	assert.Equal(t, latest, got.Window.End)
	assert.Equal(t, int64(0), got.Window.Start, "start is floored at zero")
	assert.Equal(t, int64(1), got.Count)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbacksTotal))
}

func TestStoreFaultDegradesToEmptySummary(t *testing.T) {
	boom := errors.New("store down")

	t.Run("primary", func(t *testing.T) {
		store := &scriptedStore{
			MemoryStore: infratrades.NewMemoryStore(),
			aggregate: func(summary.TimeWindow) (summary.Aggregate, error) {
				return summary.Aggregate{}, boom
			},
		}
		m := metrics.New(prometheus.NewRegistry())
		got, err := newAggregator(t, store, m).SummarizeRecentHour(context.Background())
		require.NoError(t, err)

		assert.Zero(t, got.Count)
		assert.True(t, got.TotalAmount.IsZero())
		assert.False(t, got.IsFallback())
		assert.Equal(t, fixedNow.UnixMilli()-hourMillis, got.Window.Start)
		assert.Equal(t, fixedNow.UnixMilli(), got.Window.End)
		assert.Zero(t, store.latestHits)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreErrors.WithLabelValues("primary")))
	})

	t.Run("fallback", func(t *testing.T) {
		latest := fixedNow.UnixMilli() - 5*hourMillis
		store := &scriptedStore{
			MemoryStore: infratrades.NewMemoryStore(),
			aggregate: func(w summary.TimeWindow) (summary.Aggregate, error) {
				if w.IsFallback {
					return summary.Aggregate{}, boom
				}
				return summary.Aggregate{}, nil
			},
		}
		_, err := store.Index(context.Background(), &trade.Record{ExecutedAt: trade.Millis(latest)})
		require.NoError(t, err)

		got, err := newAggregator(t, store, nil).SummarizeRecentHour(context.Background())
		require.NoError(t, err)
		assert.Zero(t, got.Count)
		assert.True(t, got.TotalAmount.IsZero())
		assert.True(t, got.IsFallback())
		assert.Equal(t, summary.TimeWindow{Start: latest - hourMillis, End: latest, IsFallback: true}, got.Window)
	})

	t.Run("latest lookup", func(t *testing.T) {
		store := &scriptedStore{
			MemoryStore: infratrades.NewMemoryStore(),
			aggregate: func(summary.TimeWindow) (summary.Aggregate, error) {
				return summary.Aggregate{}, nil
			},
			latestErr: boom,
		}
		got, err := newAggregator(t, store, nil).SummarizeRecentHour(context.Background())
		require.NoError(t, err)
		assert.False(t, got.IsFallback())
		assert.Equal(t, fixedNow.UnixMilli(), got.Window.End)
	})
}

func TestSummarizeRecentTradesEndToEnd(t *testing.T) {
	store := infratrades.NewMemoryStore()
	now := fixedNow.UnixMilli()
	for _, amount := range []int64{100, 200, 300} {
		_, err := store.Index(context.Background(), &trade.Record{
			ExecutedAt:  trade.Millis(now),
			TotalAmount: decimal.NewFromInt(amount),
		})
		require.NoError(t, err)
	}

	agg := NewAggregator(store, quietLogger(), WithClock(func() time.Time { return fixedNow }))
	got, err := agg.SummarizeRecentHour(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), got.Count)
	assert.True(t, decimal.NewFromInt(600).Equal(got.TotalAmount))
	assert.False(t, got.IsFallback())
}

func TestSummarizeFallsBackToLatestHourEndToEnd(t *testing.T) {
	store := infratrades.NewMemoryStore()
	now := fixedNow.UnixMilli()
	latest := now - 5*hourMillis
	records := []trade.Record{
		{TradeID: "latest", ExecutedAt: trade.Millis(latest), TotalAmount: decimal.NewFromInt(40)},
		{TradeID: "inside", ExecutedAt: trade.Millis(latest - 30*60*1000), TotalAmount: decimal.NewFromInt(2)},
		{TradeID: "outside", ExecutedAt: trade.Millis(latest - 2*hourMillis), TotalAmount: decimal.NewFromInt(1000)},
	}
	require.NoError(t, store.IndexBatch(context.Background(), records))

	agg := NewAggregator(infratrades.NewBounded(store, 4, time.Second), quietLogger(), WithClock(func() time.Time { return fixedNow }))
	got, err := agg.SummarizeRecentHour(context.Background())
	require.NoError(t, err)

	assert.True(t, got.IsFallback())
	assert.Equal(t, latest, got.Window.End)
	assert.Equal(t, latest-hourMillis, got.Window.Start)
	assert.Equal(t, int64(2), got.Count)
	assert.True(t, decimal.NewFromInt(42).Equal(got.TotalAmount))
}

func TestWindowOption(t *testing.T) {
	store := &scriptedStore{
		MemoryStore: infratrades.NewMemoryStore(),
		aggregate: func(summary.TimeWindow) (summary.Aggregate, error) {
			return summary.Aggregate{Count: 1}, nil
		},
	}
	agg := NewAggregator(store, quietLogger(),
		WithClock(func() time.Time { return fixedNow }),
		WithWindow(15*time.Minute),
	)
	got, err := agg.SummarizeRecentHour(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fixedNow.UnixMilli()-15*60*1000, got.Window.Start)
}
