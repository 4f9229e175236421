// Package metrics holds the Prometheus instruments of the summary feed.
// All methods are safe on a nil *Metrics so components can run without
// instrumentation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tradefeed"

// Outcome labels a scheduler tick.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
)

// Stage labels where a store fault happened during aggregation.
type Stage string

const (
	StagePrimary  Stage = "primary"
	StageLatest   Stage = "latest"
	StageFallback Stage = "fallback"
)

type Metrics struct {
	TickDuration    *prometheus.HistogramVec
	PublishesTotal  *prometheus.CounterVec
	FallbacksTotal  prometheus.Counter
	StoreErrors     *prometheus.CounterVec
	Subscribers     prometheus.Gauge
	IngestedRecords prometheus.Counter
}

// New registers every instrument on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TickDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "summary",
				Name:      "tick_duration_seconds",
				Help:      "Duration of summary scheduler ticks",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"outcome"},
		),
		PublishesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "summary",
				Name:      "publishes_total",
				Help:      "Summaries published to subscribers by tick outcome",
			},
			[]string{"outcome"},
		),
		FallbacksTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "summary",
				Name:      "fallbacks_total",
				Help:      "Aggregations answered from the fallback window",
			},
		),
		StoreErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "summary",
				Name:      "store_errors_total",
				Help:      "Store faults absorbed by the aggregation engine",
			},
			[]string{"stage"},
		),
		Subscribers: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "stream",
				Name:      "subscribers",
				Help:      "Live summary feed connections",
			},
		),
		IngestedRecords: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "records_total",
				Help:      "Trade records written by the broker consumer",
			},
		),
	}
}

func (m *Metrics) ObserveTick(outcome Outcome, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.TickDuration.WithLabelValues(string(outcome)).Observe(elapsed.Seconds())
	m.PublishesTotal.WithLabelValues(string(outcome)).Inc()
}

func (m *Metrics) Fallback() {
	if m == nil {
		return
	}
	m.FallbacksTotal.Inc()
}

func (m *Metrics) StoreError(stage Stage) {
	if m == nil {
		return
	}
	m.StoreErrors.WithLabelValues(string(stage)).Inc()
}

func (m *Metrics) SubscriberConnected() {
	if m == nil {
		return
	}
	m.Subscribers.Inc()
}

func (m *Metrics) SubscriberDisconnected() {
	if m == nil {
		return
	}
	m.Subscribers.Dec()
}

func (m *Metrics) Ingested(n int) {
	if m == nil {
		return
	}
	m.IngestedRecords.Add(float64(n))
}
