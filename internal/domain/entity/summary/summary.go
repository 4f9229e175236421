package summary

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultWindow is the length of the canonical "recent hour" window.
const DefaultWindow = time.Hour

// FallbackPayload is sent verbatim when a summary cannot be serialized.
const FallbackPayload = `{"count":0,"totalAmount":0,"windowStart":0,"windowEnd":0,"fallback":false}`

// TimeWindow is the closed interval [Start, End] in epoch milliseconds.
type TimeWindow struct {
	Start      int64
	End        int64
	IsFallback bool
}

// RecentWindow returns [end-length, end] with start floored at zero.
func RecentWindow(end int64, length time.Duration, fallback bool) TimeWindow {
	return TimeWindow{
		Start:      max(0, end-length.Milliseconds()),
		End:        end,
		IsFallback: fallback,
	}
}

// Contains reports whether ms lies inside the window, both ends inclusive.
func (w TimeWindow) Contains(ms int64) bool {
	return ms >= w.Start && ms <= w.End
}

// Aggregate is the raw count/sum reported by a store for a window. Sum is
// nil when the store produced no aggregation bucket.
type Aggregate struct {
	Count int64
	Sum   *float64
}

// WindowSummary is the trade activity over one window. It is derived on
// every aggregation and never persisted.
type WindowSummary struct {
	Count       int64
	TotalAmount decimal.Decimal
	Window      TimeWindow
}

// FromAggregate converts a store aggregate into a summary for w.
func FromAggregate(agg Aggregate, w TimeWindow) WindowSummary {
	total := decimal.Zero
	if agg.Sum != nil {
		total = decimal.NewFromFloat(*agg.Sum)
	}
	return WindowSummary{
		Count:       agg.Count,
		TotalAmount: total,
		Window:      w,
	}
}

// Empty returns a zero summary that keeps the bounds of w.
func Empty(w TimeWindow) WindowSummary {
	return WindowSummary{TotalAmount: decimal.Zero, Window: w}
}

// Zero is the hard placeholder published when a tick fails outright.
func Zero() WindowSummary {
	return Empty(TimeWindow{})
}

// HasData is intentionally lenient: either signal being positive counts.
func (s WindowSummary) HasData() bool {
	return s.Count > 0 || s.TotalAmount.IsPositive()
}

func (s WindowSummary) IsFallback() bool {
	return s.Window.IsFallback
}

// Wire is the flat JSON shape sent to clients.
type Wire struct {
	Count       int64       `json:"count"`
	TotalAmount json.Number `json:"totalAmount"`
	WindowStart int64       `json:"windowStart"`
	WindowEnd   int64       `json:"windowEnd"`
	Fallback    bool        `json:"fallback"`
}

func (s WindowSummary) ToWire() Wire {
	return Wire{
		Count:       s.Count,
		TotalAmount: json.Number(s.TotalAmount.String()),
		WindowStart: s.Window.Start,
		WindowEnd:   s.Window.End,
		Fallback:    s.Window.IsFallback,
	}
}

func (s WindowSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.ToWire())
}

// Encode serializes a summary to its compact wire form.
func Encode(s WindowSummary) ([]byte, error) {
	return json.Marshal(s.ToWire())
}
