package summary

import (
	"context"
	"fmt"
	"time"

	summary "tradefeed/internal/domain/entity/summary"
	interfaces "tradefeed/internal/domain/interfaces"
	"tradefeed/internal/infrastructure/metrics"

	"github.com/sirupsen/logrus"
)

const DefaultInterval = time.Minute

// Publisher receives every summary the scheduler produces.
type Publisher interface {
	Publish(summary.WindowSummary)
}

type SchedulerConfig struct {
	Interval       time.Duration
	TickTimeout    time.Duration
	PublishOnStart bool
}

// Scheduler periodically asks the provider for a summary and publishes it.
// A failed tick publishes summary.Zero() instead.
type Scheduler struct {
	cfg       SchedulerConfig
	provider  interfaces.SummaryProvider
	publisher Publisher
	logger    *logrus.Entry
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewScheduler(cfg SchedulerConfig, provider interfaces.SummaryProvider, publisher Publisher, logger *logrus.Logger, m *metrics.Metrics) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Scheduler{
		cfg:       cfg,
		provider:  provider,
		publisher: publisher,
		logger:    logger.WithField("component", "summary_scheduler"),
		metrics:   m,
		now:       time.Now,
	}
}

// Run blocks until ctx is cancelled. Ticks are aligned to multiples of the
// interval, so the default interval fires at the top of every minute.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.WithField("interval", s.cfg.Interval.String()).Info("summary scheduler started")
	defer s.logger.Info("summary scheduler stopped")

	if s.cfg.PublishOnStart {
		s.Tick(ctx)
	}

	timer := time.NewTimer(s.untilNextTick())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.Tick(ctx)
			timer.Reset(s.untilNextTick())
		}
	}
}

func (s *Scheduler) untilNextTick() time.Duration {
	now := s.now()
	return now.Truncate(s.cfg.Interval).Add(s.cfg.Interval).Sub(now)
}

// Tick runs one aggregation and publishes its outcome.
func (s *Scheduler) Tick(ctx context.Context) {
	start := time.Now()
	result, err := s.summarize(ctx)
	elapsed := time.Since(start)

	if err != nil {
		s.publisher.Publish(summary.Zero())
		s.metrics.ObserveTick(metrics.OutcomeError, elapsed)
		s.logger.WithError(err).WithField("took_ms", elapsed.Milliseconds()).Error("summary tick failed")
		return
	}

	s.publisher.Publish(result)
	s.metrics.ObserveTick(metrics.OutcomeSuccess, elapsed)
	s.logger.WithFields(logrus.Fields{
		"took_ms":      elapsed.Milliseconds(),
		"count":        result.Count,
		"total_amount": result.TotalAmount.String(),
		"window_start": result.Window.Start,
		"window_end":   result.Window.End,
		"fallback":     result.Window.IsFallback,
	}).Info("summary published")
}

func (s *Scheduler) summarize(ctx context.Context) (result summary.WindowSummary, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("summary provider panic: %v", r)
		}
	}()
	if s.cfg.TickTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.TickTimeout)
		defer cancel()
	}
	return s.provider.SummarizeRecentHour(ctx)
}
