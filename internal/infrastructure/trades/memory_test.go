package trades

import (
	"context"
	"testing"

	summary "tradefeed/internal/domain/entity/summary"
	trade "tradefeed/internal/domain/entity/trade"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id string, executedAt int64, amount float64, notes string) trade.Record {
	return trade.Record{
		TradeID:     id,
		UserID:      "u1",
		Symbol:      trade.SymbolBTC,
		Side:        trade.SideBuy,
		ExecutedAt:  trade.Millis(executedAt),
		TotalAmount: decimal.NewFromFloat(amount),
		Notes:       notes,
	}
}

func TestMemoryStoreIndexAssignsAndOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	id, err := store.Index(ctx, &trade.Record{UserID: "u1"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = store.Index(ctx, &trade.Record{TradeID: "t1", UserID: "u1"})
	require.NoError(t, err)
	_, err = store.Index(ctx, &trade.Record{TradeID: "t1", UserID: "u2"})
	require.NoError(t, err)

	total, err := store.Count(ctx, trade.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	found, err := store.Search(ctx, trade.Filter{Must: []trade.Predicate{
		{Kind: trade.PredicateTerm, Field: trade.FieldUserID, Value: "u2"},
	}}, 0, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "t1", found[0].TradeID)
}

func TestMemoryStoreSearchOrdersAndPages(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.IndexBatch(ctx, []trade.Record{
		record("a", 100, 1, ""),
		record("b", 300, 1, ""),
		record("c", 200, 1, ""),
		{TradeID: "d", UserID: "u1"},
	}))

	page, err := store.Search(ctx, trade.Filter{}, 0, 3)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{page[0].TradeID, page[1].TradeID, page[2].TradeID})

	page, err = store.Search(ctx, trade.Filter{}, 3, 3)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "d", page[0].TradeID)

	page, err = store.Search(ctx, trade.Filter{}, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestMemoryStoreMatchUsesAnyToken(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.IndexBatch(ctx, []trade.Record{
		record("a", 1, 1, "quick scalp on news"),
		record("b", 2, 1, "long term hold"),
		record("c", 3, 1, "Scalp-exit"),
	}))

	match := func(keyword string) trade.Filter {
		return trade.Filter{Must: []trade.Predicate{{Kind: trade.PredicateMatch, Field: trade.FieldNotes, Value: keyword}}}
	}

	n, err := store.Count(ctx, match("SCALP"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = store.Count(ctx, match("hold news"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = store.Count(ctx, match("..."))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryStoreAggregateWindowIsInclusive(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.IndexBatch(ctx, []trade.Record{
		record("a", 1000, 10.5, ""),
		record("b", 2000, 20, ""),
		record("c", 2001, 99, ""),
		{TradeID: "d", TotalAmount: decimal.NewFromInt(5)},
	}))

	agg, err := store.Aggregate(ctx, summary.TimeWindow{Start: 1000, End: 2000})
	require.NoError(t, err)
	assert.Equal(t, int64(2), agg.Count)
	require.NotNil(t, agg.Sum)
	assert.InDelta(t, 30.5, *agg.Sum, 1e-9)

	agg, err = store.Aggregate(ctx, summary.TimeWindow{Start: 5000, End: 6000})
	require.NoError(t, err)
	assert.Zero(t, agg.Count)
	assert.Nil(t, agg.Sum)
}

func TestMemoryStoreFindLatest(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	latest, err := store.FindLatest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	require.NoError(t, store.IndexBatch(ctx, []trade.Record{
		{TradeID: "no-time"},
		record("old", 10, 1, ""),
		record("new", 50, 1, ""),
	}))
	latest, err = store.FindLatest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "new", latest.TradeID)
}

func TestMemoryStoreSearchRejectsNegativeBounds(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.IndexBatch(context.Background(), []trade.Record{record("a", 1, 1, "")}))

	_, err := store.Search(context.Background(), trade.Filter{}, -40, 20)
	assert.ErrorIs(t, err, errBadPage)

	_, err = store.Search(context.Background(), trade.Filter{}, 0, -1)
	assert.ErrorIs(t, err, errBadPage)
}
