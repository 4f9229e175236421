package summary

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	summary "tradefeed/internal/domain/entity/summary"
	"tradefeed/internal/infrastructure/broadcast"
	"tradefeed/internal/infrastructure/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type providerFunc func(ctx context.Context) (summary.WindowSummary, error)

func (f providerFunc) SummarizeRecentHour(ctx context.Context) (summary.WindowSummary, error) {
	return f(ctx)
}

type recordingPublisher struct {
	mu     sync.Mutex
	values []summary.WindowSummary
}

func (p *recordingPublisher) Publish(s summary.WindowSummary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values = append(p.values, s)
}

func (p *recordingPublisher) snapshot() []summary.WindowSummary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]summary.WindowSummary(nil), p.values...)
}

func TestTickPublishesProviderResult(t *testing.T) {
	want := summary.WindowSummary{
		Count:       3,
		TotalAmount: decimal.NewFromInt(600),
		Window:      summary.TimeWindow{Start: 1, End: 2},
	}
	pub := &recordingPublisher{}
	m := metrics.New(prometheus.NewRegistry())
	s := NewScheduler(SchedulerConfig{}, providerFunc(func(context.Context) (summary.WindowSummary, error) {
		return want, nil
	}), pub, quietLogger(), m)

	s.Tick(context.Background())

	got := pub.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, want, got[0])
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishesTotal.WithLabelValues("success")))
}

func TestTickFailurePublishesZeroSummary(t *testing.T) {
	tests := []struct {
		name     string
		provider providerFunc
	}{
		{
			name: "error",
			provider: func(context.Context) (summary.WindowSummary, error) {
				return summary.WindowSummary{Count: 9}, errors.New("boom")
			},
		},
		{
			name: "panic",
			provider: func(context.Context) (summary.WindowSummary, error) {
				panic("unexpected")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			m := metrics.New(prometheus.NewRegistry())
			s := NewScheduler(SchedulerConfig{}, tt.provider, pub, quietLogger(), m)

			require.NotPanics(t, func() { s.Tick(context.Background()) })

			got := pub.snapshot()
			require.Len(t, got, 1)
			assert.Equal(t, summary.Zero(), got[0])
			assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishesTotal.WithLabelValues("error")))

			payload, err := summary.Encode(got[0])
			require.NoError(t, err)
			assert.JSONEq(t, summary.FallbackPayload, string(payload))
		})
	}
}

func TestTickAppliesTimeout(t *testing.T) {
	pub := &recordingPublisher{}
	s := NewScheduler(SchedulerConfig{TickTimeout: 10 * time.Millisecond}, providerFunc(func(ctx context.Context) (summary.WindowSummary, error) {
		<-ctx.Done()
		return summary.WindowSummary{}, ctx.Err()
	}), pub, quietLogger(), nil)

	s.Tick(context.Background())
	got := pub.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, summary.Zero(), got[0])
}

func TestUntilNextTickAlignsToInterval(t *testing.T) {
	s := NewScheduler(SchedulerConfig{Interval: time.Minute}, nil, &recordingPublisher{}, quietLogger(), nil)
	s.now = func() time.Time { return time.Date(2024, 1, 1, 10, 15, 42, 0, time.UTC) }
	assert.Equal(t, 18*time.Second, s.untilNextTick())

	s.now = func() time.Time { return time.Date(2024, 1, 1, 10, 15, 0, 0, time.UTC) }
	assert.Equal(t, time.Minute, s.untilNextTick())
}

func TestRunPublishesOnStartIntoHub(t *testing.T) {
	hub := broadcast.NewHub[summary.WindowSummary](4)
	defer hub.Close()

	want := summary.WindowSummary{Count: 1, TotalAmount: decimal.NewFromInt(5)}
	s := NewScheduler(SchedulerConfig{Interval: time.Hour, PublishOnStart: true}, providerFunc(func(context.Context) (summary.WindowSummary, error) {
		return want, nil
	}), hub, quietLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, ok := hub.Latest()
		return ok
	}, time.Second, 5*time.Millisecond)

	sub := hub.Subscribe()
	defer sub.Close()
	got := <-sub.C
	assert.Equal(t, int64(1), got.Count)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestMockSourceStaysInRange(t *testing.T) {
	src := NewMockSource(time.Hour)
	src.now = func() time.Time { return fixedNow }
	for i := 0; i < 100; i++ {
		got, err := src.SummarizeRecentHour(context.Background())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.Count, int64(0))
		assert.Less(t, got.Count, int64(mockMaxCount))
		assert.False(t, got.TotalAmount.IsNegative())
		assert.True(t, got.TotalAmount.LessThanOrEqual(decimal.NewFromInt(mockMaxAmount)))
		assert.Equal(t, fixedNow.UnixMilli(), got.Window.End)
		assert.Equal(t, fixedNow.UnixMilli()-hourMillis, got.Window.Start)
		assert.False(t, got.IsFallback())
	}
}
