package summary

import (
	"context"
	"math/rand/v2"
	"time"

	summary "tradefeed/internal/domain/entity/summary"

	"github.com/shopspring/decimal"
)

const (
	mockMaxCount  = 200
	mockMaxAmount = 100_000
)

// MockSource produces random summaries over the last window. It stands in
// for the aggregator in demo deployments without trade data.
type MockSource struct {
	window time.Duration
	now    func() time.Time
	rand   *rand.Rand
}

func NewMockSource(window time.Duration) *MockSource {
	if window <= 0 {
		window = summary.DefaultWindow
	}
	return &MockSource{
		window: window,
		now:    time.Now,
		rand:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// SummarizeRecentHour is only called from the scheduler goroutine.
func (m *MockSource) SummarizeRecentHour(context.Context) (summary.WindowSummary, error) {
	amount := decimal.NewFromFloat(m.rand.Float64() * mockMaxAmount).Round(2)
	return summary.WindowSummary{
		Count:       m.rand.Int64N(mockMaxCount),
		TotalAmount: amount,
		Window:      summary.RecentWindow(m.now().UnixMilli(), m.window, false),
	}, nil
}
