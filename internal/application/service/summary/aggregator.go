package summary

import (
	"context"
	"time"

	summary "tradefeed/internal/domain/entity/summary"
	interfaces "tradefeed/internal/domain/interfaces"
	"tradefeed/internal/infrastructure/metrics"

	"github.com/sirupsen/logrus"
)

// Aggregator computes the recent activity summary. When the recent window
// holds no data it answers from the window ending at the latest trade.
type Aggregator struct {
	repo    interfaces.TradeRepository
	window  time.Duration
	now     func() time.Time
	logger  *logrus.Entry
	metrics *metrics.Metrics
}

type Option func(*Aggregator)

func WithWindow(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.window = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Aggregator) {
		a.metrics = m
	}
}

func NewAggregator(repo interfaces.TradeRepository, logger *logrus.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		repo:   repo,
		window: summary.DefaultWindow,
		now:    time.Now,
		logger: logger.WithField("component", "summary_aggregator"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SummarizeRecentHour never returns an error: store faults degrade to an
// empty summary carrying the bounds that were requested.
func (a *Aggregator) SummarizeRecentHour(ctx context.Context) (summary.WindowSummary, error) {
	primary := summary.RecentWindow(a.now().UnixMilli(), a.window, false)
	result, ok := a.aggregate(ctx, primary, metrics.StagePrimary)
	if !ok || result.HasData() {
		return result, nil
	}

	latest, err := a.repo.FindLatest(ctx)
	if err != nil {
		a.metrics.StoreError(metrics.StageLatest)
		a.logger.WithError(err).Warn("latest trade lookup failed")
		return result, nil
	}
	if latest == nil || latest.ExecutedAt == nil {
		return result, nil
	}

	fallback := summary.RecentWindow(*latest.ExecutedAt, a.window, true)
	a.metrics.Fallback()
	result, _ = a.aggregate(ctx, fallback, metrics.StageFallback)
	return result, nil
}

func (a *Aggregator) aggregate(ctx context.Context, window summary.TimeWindow, stage metrics.Stage) (summary.WindowSummary, bool) {
	agg, err := a.repo.Aggregate(ctx, window)
	if err != nil {
		a.metrics.StoreError(stage)
		a.logger.WithError(err).WithFields(logrus.Fields{
			"window_start": window.Start,
			"window_end":   window.End,
			"fallback":     window.IsFallback,
		}).Warn("window aggregation failed")
		return summary.Empty(window), false
	}
	return summary.FromAggregate(agg, window), true
}
