package interfaces

import (
	"context"

	summary "tradefeed/internal/domain/entity/summary"
	trade "tradefeed/internal/domain/entity/trade"
)

// TradeRepository is the document store holding trade records.
type TradeRepository interface {
	// Index stores the record under its TradeID, or under a new id when the
	// record has none, and returns the id. Indexing an existing id replaces
	// the stored record.
	Index(ctx context.Context, record *trade.Record) (string, error)
	IndexBatch(ctx context.Context, records []trade.Record) error
	// Search returns records matching filter ordered by executedAt desc.
	Search(ctx context.Context, filter trade.Filter, offset, limit int) ([]trade.Record, error)
	Count(ctx context.Context, filter trade.Filter) (int64, error)
	// Aggregate counts records with executedAt inside window and sums their
	// totalAmount.
	Aggregate(ctx context.Context, window summary.TimeWindow) (summary.Aggregate, error)
	// FindLatest returns the most recently executed record, or nil when the
	// store holds no record with an executedAt.
	FindLatest(ctx context.Context) (*trade.Record, error)
	Close()
}

// SummaryProvider produces the recent activity summary.
type SummaryProvider interface {
	SummarizeRecentHour(ctx context.Context) (summary.WindowSummary, error)
}
